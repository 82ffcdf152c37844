package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgifford-usc/CurrentWeather/internal/config"
	"github.com/tgifford-usc/CurrentWeather/internal/server"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the weather widget server",
		Long:  `Start the HTTP server that hosts weather widget sessions and the plain /weather lookup.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	log.Info("Starting weather widget server",
		zap.String("config_path", configPath),
		zap.String("weather_base_url", cfg.Weather.BaseURL),
		zap.Bool("geolocation_enabled", cfg.Widget.Geolocation.Enabled),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	weather := service.NewOpenMeteoServiceWithConfig(cfg.Weather, log.Logger, tele)
	srv := server.NewServer(cfg, weather, log.Logger, tele)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Error("Server error", zap.Error(err))
		return err
	case <-cmd.Context().Done():
		log.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
