package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgifford-usc/CurrentWeather/internal/config"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/widget"
	"github.com/tgifford-usc/CurrentWeather/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

const lookupBody = `{"latitude":45,"longitude":160,"timezone":"GMT","current_weather":` +
	`{"temperature":12.5,"windspeed":7.2,"winddirection":270,"is_day":1,"time":"2024-05-01T12:00","weathercode":61}}`

func lookupFixture(t *testing.T) (*config.Config, service.WeatherService) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(lookupBody))
	}))
	t.Cleanup(upstream.Close)

	cfg := config.NewDefaultConfig()
	cfg.Weather.BaseURL = upstream.URL

	weather := service.NewOpenMeteoServiceWithConfig(cfg.Weather, zaptest.NewLogger(t), telemetry.Disabled())
	return cfg, weather
}

func TestRunLookupText(t *testing.T) {
	cfg, weather := lookupFixture(t)

	var out bytes.Buffer
	err := runLookup(context.Background(), &out, lookupOptions{Latitude: "45", Longitude: "-200", Output: "text"},
		cfg, weather, zaptest.NewLogger(t), telemetry.Disabled())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "latitude:   45.0000\n")
	assert.Contains(t, text, "longitude:  160.0000\n")
	assert.Contains(t, text, "weather:    slight rain (code 61)\n")
	assert.Contains(t, text, "temperature: 12.5 °C\n")
	assert.Contains(t, text, "map zoom:   4\n")
	assert.Contains(t, text, `"current_weather": {`)
}

func TestRunLookupJSON(t *testing.T) {
	cfg, weather := lookupFixture(t)

	var out bytes.Buffer
	err := runLookup(context.Background(), &out, lookupOptions{Latitude: "10", Longitude: "20", Output: "json"},
		cfg, weather, zaptest.NewLogger(t), telemetry.Disabled())
	require.NoError(t, err)

	var snap widget.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.Equal(t, "cli", snap.ID)
	assert.Equal(t, geo.Coordinate{Latitude: 10, Longitude: 20}, snap.Coordinate)
	assert.Equal(t, "slight rain", snap.Map.Popup.Content)
}

func TestRunLookupInvalidInput(t *testing.T) {
	cfg, weather := lookupFixture(t)

	var out bytes.Buffer
	err := runLookup(context.Background(), &out, lookupOptions{Latitude: "abc", Longitude: "20", Output: "text"},
		cfg, weather, zaptest.NewLogger(t), telemetry.Disabled())

	var inputErr *widget.InvalidCoordinateInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "abc", inputErr.Value)
	assert.Contains(t, out.String(), "latitude:   abc\n")
	assert.Contains(t, out.String(), "notice:")
	assert.NotContains(t, out.String(), "weather:")
}

func TestRunLookupHere(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		cfg, weather := lookupFixture(t)

		var out bytes.Buffer
		err := runLookup(context.Background(), &out, lookupOptions{Here: true, Output: "text"},
			cfg, weather, zaptest.NewLogger(t), telemetry.Disabled())
		assert.ErrorIs(t, err, widget.ErrGeolocationUnavailable)
		assert.Contains(t, out.String(), "notice:")
	})

	t.Run("position", func(t *testing.T) {
		cfg, weather := lookupFixture(t)
		cfg.Widget.Geolocation = config.GeolocationConfig{Enabled: true, Latitude: 45, Longitude: 160}

		var out bytes.Buffer
		err := runLookup(context.Background(), &out, lookupOptions{Here: true, Output: "text"},
			cfg, weather, zaptest.NewLogger(t), telemetry.Disabled())
		require.NoError(t, err)
		assert.Contains(t, out.String(), "longitude:  160.0000\n")
	})
}

func TestRunLookupRejectsOutputFormat(t *testing.T) {
	cfg, weather := lookupFixture(t)

	err := runLookup(context.Background(), &bytes.Buffer{}, lookupOptions{Latitude: "1", Longitude: "1", Output: "yaml"},
		cfg, weather, zaptest.NewLogger(t), telemetry.Disabled())
	assert.EqualError(t, err, `invalid output format "yaml"`)
}
