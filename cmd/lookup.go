package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tgifford-usc/CurrentWeather/internal/config"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/weathercode"
	"github.com/tgifford-usc/CurrentWeather/internal/widget"
	"github.com/tgifford-usc/CurrentWeather/pkg/telemetry"
	"go.uber.org/zap"
)

type lookupOptions struct {
	Latitude  string
	Longitude string
	Here      bool
	Output    string
}

func lookupCmd() *cobra.Command {
	var opts lookupOptions

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up the current weather once",
		Long:  `Runs a single widget update against in-memory collaborators and prints the resulting widget state.`,
		Example: `  weather lookup --lat 51.5 --lon -0.12
  weather lookup --here --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			weather := service.NewOpenMeteoServiceWithConfig(cfg.Weather, log.Logger, tele)
			return runLookup(cmd.Context(), cmd.OutOrStdout(), opts, cfg, weather, log.Logger, tele)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Latitude, "lat", "", "latitude in decimal degrees")
	flags.StringVar(&opts.Longitude, "lon", "", "longitude in decimal degrees, any value is wrapped into (-180, 180]")
	flags.BoolVar(&opts.Here, "here", false, "use the configured device position")
	flags.StringVarP(&opts.Output, "output", "o", "text", "output format: text or json")

	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("here", "lat")
	cmd.MarkFlagsMutuallyExclusive("here", "lon")
	cmd.MarkFlagsOneRequired("here", "lat")

	return cmd
}

func runLookup(ctx context.Context, out io.Writer, opts lookupOptions, cfg *config.Config,
	weather service.WeatherService, logger *zap.Logger, tele *telemetry.Telemetry) error {
	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("invalid output format %q", opts.Output)
	}

	factory := &widget.Factory{
		Weather:    weather,
		Geolocator: widget.NewGeolocator(cfg.Widget.Geolocation),
		Logger:     logger,
		Tele:       tele,
		Options:    widget.OptionsFromConfig(cfg.Widget, cfg.Weather),
	}
	session := factory.NewSession("cli")
	defer session.Controller.Close()

	var err error
	if opts.Here {
		err = session.Controller.Geolocate(ctx)
	} else {
		session.Panel.SetCoordinateFields(opts.Latitude, opts.Longitude)
		err = session.Controller.ManualUpdate(ctx, opts.Latitude, opts.Longitude)
	}

	snap := session.Snapshot()
	if opts.Output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(snap); encErr != nil {
			return encErr
		}
		return err
	}

	writeSnapshotText(out, snap)
	return err
}

func writeSnapshotText(out io.Writer, snap widget.Snapshot) {
	fmt.Fprintf(out, "latitude:   %s\n", snap.Fields.Latitude)
	fmt.Fprintf(out, "longitude:  %s\n", snap.Fields.Longitude)

	if snap.Notice != nil {
		fmt.Fprintf(out, "notice:     %s\n", snap.Notice.Message)
	}

	if w := snap.Weather; w != nil && snap.Notice == nil {
		fmt.Fprintf(out, "weather:    %s (code %d)\n", weathercode.Label(w.WeatherCode), w.WeatherCode)
		fmt.Fprintf(out, "temperature: %s °C\n", strconv.FormatFloat(w.Temperature, 'f', -1, 64))
		fmt.Fprintf(out, "wind:       %s km/h from %s°\n",
			strconv.FormatFloat(w.WindSpeed, 'f', -1, 64),
			strconv.FormatFloat(w.WindDirection, 'f', -1, 64))
		fmt.Fprintf(out, "observed:   %s %s\n", w.Time, w.Timezone)
		fmt.Fprintf(out, "map zoom:   %d\n", snap.Map.Zoom)
	}

	if snap.Debug != "" {
		fmt.Fprintf(out, "\n%s\n", snap.Debug)
	}
}
