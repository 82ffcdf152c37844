package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgifford-usc/CurrentWeather/internal/config"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/server/handlers"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/widget"
	"github.com/tgifford-usc/CurrentWeather/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

type testEnv struct {
	handler http.Handler
	fail    *atomic.Bool
	code    *atomic.Int64
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()

	env := &testEnv{fail: &atomic.Bool{}, code: &atomic.Int64{}}
	env.code.Store(61)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		q := r.URL.Query()
		body := `{"latitude":` + q.Get("latitude") + `,"longitude":` + q.Get("longitude") +
			`,"current_weather":{"temperature":18.2,"windspeed":5,"winddirection":90,"is_day":1,` +
			`"time":"2024-05-01T12:00","weathercode":` + strconv.FormatInt(env.code.Load(), 10) + `}}`
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	cfg := config.NewDefaultConfig()
	cfg.Weather.BaseURL = upstream.URL + "/v1"
	cfg.Weather.Timeout = 2
	if mutate != nil {
		mutate(cfg)
	}

	logger := zaptest.NewLogger(t)
	tele := telemetry.Disabled()
	weather := service.NewOpenMeteoServiceWithConfig(cfg.Weather, logger, tele)
	srv := NewServer(cfg, weather, logger, tele)
	t.Cleanup(func() { srv.registry.Close() })

	env.handler = srv.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) createSession(t *testing.T) widget.Snapshot {
	rec := e.do(t, http.MethodPost, "/widgets", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[widget.Snapshot](t, rec)
}

func TestWidgetClickFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	snap := env.createSession(t)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, widget.Fields{Latitude: "0.0000", Longitude: "0.0000"}, snap.Fields)
	assert.Equal(t, 2, snap.Map.Zoom)

	rec := env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/click", map[string]float64{"lat": 100, "lng": 200})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snap = decode[widget.Snapshot](t, rec)
	assert.Equal(t, geo.Coordinate{Latitude: 100, Longitude: -160}, snap.Coordinate)
	assert.Equal(t, widget.Fields{Latitude: "100.0000", Longitude: "-160.0000"}, snap.Fields)
	assert.Equal(t, "slight rain", snap.Map.Popup.Content)
	assert.True(t, snap.Map.Popup.Open)
	assert.Equal(t, 4, snap.Map.Zoom)
	assert.Equal(t, geo.Coordinate{Latitude: 100, Longitude: -160}, snap.Map.Center)
	require.NotNil(t, snap.Weather)
	assert.Equal(t, 18.2, snap.Weather.Temperature)
	assert.Contains(t, snap.Debug, "\"current_weather\": {")
	assert.Nil(t, snap.Notice)

	rec = env.do(t, http.MethodGet, "/widgets/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snap.Coordinate, decode[widget.Snapshot](t, rec).Coordinate)
}

func TestWidgetManualUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	snap := env.createSession(t)

	lat, lon := "45", "-200"
	rec := env.do(t, http.MethodPut, "/widgets/"+snap.ID+"/coordinates",
		handlers.CoordinatesRequest{Latitude: &lat, Longitude: &lon})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, geo.Coordinate{Latitude: 45, Longitude: 160}, decode[widget.Snapshot](t, rec).Coordinate)

	bad := "abc"
	rec = env.do(t, http.MethodPut, "/widgets/"+snap.ID+"/coordinates", handlers.CoordinatesRequest{Latitude: &bad})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[handlers.WidgetErrorResponse](t, rec)
	assert.Equal(t, "INVALID_COORDINATES", resp.Code)
	require.NotNil(t, resp.Widget)
	assert.Equal(t, geo.Coordinate{Latitude: 45, Longitude: 160}, resp.Widget.Coordinate)
	assert.Equal(t, "abc", resp.Widget.Fields.Latitude)
	require.NotNil(t, resp.Widget.Notice)
	assert.Equal(t, widget.NoticeInvalidInput, resp.Widget.Notice.Kind)

	rec = env.do(t, http.MethodPut, "/widgets/"+snap.ID+"/coordinates", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWidgetUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	snap := env.createSession(t)

	rec := env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/click", map[string]float64{"lat": 10, "lng": 20})
	require.Equal(t, http.StatusOK, rec.Code)

	env.fail.Store(true)
	rec = env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/click", map[string]float64{"lat": 30, "lng": 40})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	resp := decode[handlers.WidgetErrorResponse](t, rec)
	assert.Equal(t, "NETWORK_FAILURE", resp.Code)
	require.NotNil(t, resp.Widget)
	assert.Equal(t, geo.Coordinate{Latitude: 10, Longitude: 20}, resp.Widget.Coordinate)
	assert.Equal(t, 4, resp.Widget.Map.Zoom)
	assert.Equal(t, geo.Coordinate{Latitude: 10, Longitude: 20}, *resp.Widget.Map.Popup.Position)
	assert.Equal(t, widget.Fields{Latitude: "30.0000", Longitude: "40.0000"}, resp.Widget.Fields)
}

func TestWidgetUnknownCode(t *testing.T) {
	env := newTestEnv(t, nil)
	env.code.Store(7)
	snap := env.createSession(t)

	rec := env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/click", map[string]float64{"lat": 1, "lng": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unrecognized", decode[widget.Snapshot](t, rec).Map.Popup.Content)
}

func TestWidgetGeolocate(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		env := newTestEnv(t, nil)
		snap := env.createSession(t)

		rec := env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/geolocate", nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "GEOLOCATION_UNAVAILABLE", decode[handlers.WidgetErrorResponse](t, rec).Code)
	})

	t.Run("denied", func(t *testing.T) {
		env := newTestEnv(t, func(cfg *config.Config) {
			cfg.Widget.Geolocation = config.GeolocationConfig{Enabled: true, Denied: true}
		})
		snap := env.createSession(t)

		rec := env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/geolocate", nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "GEOLOCATION_DENIED", decode[handlers.WidgetErrorResponse](t, rec).Code)
	})

	t.Run("position", func(t *testing.T) {
		env := newTestEnv(t, func(cfg *config.Config) {
			cfg.Widget.Geolocation = config.GeolocationConfig{Enabled: true, Latitude: 51.5, Longitude: -0.12}
		})
		snap := env.createSession(t)

		rec := env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/geolocate", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, widget.Fields{Latitude: "51.5000", Longitude: "-0.1200"}, decode[widget.Snapshot](t, rec).Fields)
	})
}

func TestWidgetSessionErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/widgets/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", decode[handlers.ErrorResponse](t, rec).Code)

	snap := env.createSession(t)

	rec = env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/click", map[string]float64{"lat": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/widgets/"+snap.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/widgets/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWeatherLookup(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/weather?lat=45&lon=-200", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[handlers.WeatherResponse](t, rec)
	assert.Equal(t, geo.Coordinate{Latitude: 45, Longitude: 160}, resp.Coordinate)
	assert.Equal(t, "slight rain", resp.Label)
	assert.Contains(t, string(resp.Raw), "current_weather")

	rec = env.do(t, http.MethodGet, "/weather?lat=45", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.fail.Store(true)
	rec = env.do(t, http.MethodGet, "/weather?lat=0&lon=0", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "NETWORK_FAILURE", decode[handlers.ErrorResponse](t, rec).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	snap := env.createSession(t)
	env.do(t, http.MethodPost, "/widgets/"+snap.ID+"/click", map[string]float64{"lat": 1, "lng": 1})
	env.do(t, http.MethodGet, "/weather?lat=1&lon=1", nil)

	rec := env.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[handlers.HealthResponse](t, rec)
	require.NotNil(t, health.Sessions)
	assert.Equal(t, 1, *health.Sessions)

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `widget_updates_total{outcome="success"} 1`)
	assert.Contains(t, body, `weather_service_calls_total{service="open-meteo"} 1`)
	assert.Contains(t, body, `http_requests_total{route_status="POST /widgets_201"} 1`)
	assert.Contains(t, body, "widget_sessions_active 1")

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
