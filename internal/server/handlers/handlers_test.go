package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/weathercode"
	"github.com/tgifford-usc/CurrentWeather/internal/widget"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubWeather struct {
	result *service.CurrentWeather
	err    error
	got    geo.Coordinate
}

func (s *stubWeather) Name() string { return "stub" }

func (s *stubWeather) CurrentWeather(ctx context.Context, coord geo.Coordinate) (*service.CurrentWeather, error) {
	s.got = coord
	return s.result, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&widget.InvalidCoordinateInputError{Field: "latitude", Value: "abc"}, http.StatusUnprocessableEntity, "INVALID_COORDINATES"},
		{widget.ErrGeolocationDenied, http.StatusConflict, "GEOLOCATION_DENIED"},
		{errors.Join(widget.ErrGeolocationUnavailable, context.DeadlineExceeded), http.StatusConflict, "GEOLOCATION_UNAVAILABLE"},
		{widget.ErrSuperseded, http.StatusConflict, "SUPERSEDED"},
		{&service.MalformedResponseError{Reason: "missing current_weather"}, http.StatusBadGateway, "MALFORMED_RESPONSE"},
		{&service.StatusError{StatusCode: 500}, http.StatusBadGateway, "NETWORK_FAILURE"},
		{fmt.Errorf("dial: %w", service.ErrNetworkFailure), http.StatusBadGateway, "NETWORK_FAILURE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func serveWeather(t *testing.T, svc service.WeatherService, metrics ServiceCallRecorder, query string) *httptest.ResponseRecorder {
	t.Helper()

	engine := gin.New()
	engine.GET("/weather", NewWeatherHandler(svc, metrics, zaptest.NewLogger(t)).GetWeather)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/weather?"+query, nil))
	return rec
}

func TestGetWeather(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &stubWeather{result: &service.CurrentWeather{
			WeatherCode: weathercode.Code(3),
			Temperature: 9.1,
			Raw:         `{"current_weather": {"weathercode": 3}}`,
		}}
		metrics := NewMetricsHandler(zaptest.NewLogger(t))

		rec := serveWeather(t, svc, metrics, "lat=-33.9&lon=540")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, geo.Coordinate{Latitude: -33.9, Longitude: 180}, svc.got)

		var resp WeatherResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "overcast", resp.Label)
		assert.JSONEq(t, `{"current_weather": {"weathercode": 3}}`, string(resp.Raw))
		assert.Equal(t, int64(1), metrics.appMetrics.weatherServiceCalls["stub"])
		assert.Zero(t, metrics.appMetrics.weatherServiceErrors["stub"])
	})

	t.Run("malformed", func(t *testing.T) {
		svc := &stubWeather{err: &service.MalformedResponseError{Reason: "missing current_weather.weathercode"}}
		metrics := NewMetricsHandler(zaptest.NewLogger(t))

		rec := serveWeather(t, svc, metrics, "lat=1&lon=2")
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "MALFORMED_RESPONSE", resp.Code)
		assert.Equal(t, int64(1), metrics.appMetrics.weatherServiceErrors["stub"])
	})

	t.Run("missing parameter", func(t *testing.T) {
		svc := &stubWeather{}
		rec := serveWeather(t, svc, nil, "lat=1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not a number", func(t *testing.T) {
		svc := &stubWeather{}
		rec := serveWeather(t, svc, nil, "lat=abc&lon=2")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-finite", func(t *testing.T) {
		svc := &stubWeather{}
		rec := serveWeather(t, svc, nil, "lat=1&lon=Inf")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	engine := gin.New()
	h := NewHealthHandler(zaptest.NewLogger(t), nil)
	engine.GET("/health/ready", h.Readiness)
	engine.GET("/health", h.Health)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Nil(t, resp.Sessions)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestServeMetricsOrdersLabels(t *testing.T) {
	metrics := NewMetricsHandler(zaptest.NewLogger(t))
	metrics.RecordWidgetUpdate(context.Background(), "success")
	metrics.RecordWidgetUpdate(context.Background(), "invalid_input")
	metrics.RecordWidgetUpdate(context.Background(), "success")

	engine := gin.New()
	engine.GET("/metrics", metrics.ServeMetrics)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "widget_updates_total{outcome=\"invalid_input\"} 1\nwidget_updates_total{outcome=\"success\"} 2\n")
	assert.NotContains(t, body, "http_requests_total")
	assert.NotContains(t, body, "widget_sessions_active")
}
