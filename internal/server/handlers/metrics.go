package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tgifford-usc/CurrentWeather/internal/server/middlewares"
	"go.uber.org/zap"
)

// AppMetrics holds application-level metrics (widget updates, service calls)
type AppMetrics struct {
	mutex                sync.RWMutex
	widgetUpdates        map[string]int64
	weatherServiceCalls  map[string]int64
	weatherServiceErrors map[string]int64
}

// HTTPMetricsProvider exposes the request counters kept by the metrics middleware
type HTTPMetricsProvider interface {
	Snapshot() middlewares.HTTPMetricsSnapshot
}

type MetricsHandler struct {
	logger      *zap.Logger
	appMetrics  *AppMetrics
	httpMetrics HTTPMetricsProvider
	sessions    SessionCounter
}

func NewMetricsHandler(logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		logger: logger,
		appMetrics: &AppMetrics{
			widgetUpdates:        make(map[string]int64),
			weatherServiceCalls:  make(map[string]int64),
			weatherServiceErrors: make(map[string]int64),
		},
	}
}

func (h *MetricsHandler) SetHTTPMetricsProvider(p HTTPMetricsProvider) {
	h.httpMetrics = p
}

func (h *MetricsHandler) SetSessionCounter(s SessionCounter) {
	h.sessions = s
}

// RecordWidgetUpdate records the outcome of a widget operation
func (h *MetricsHandler) RecordWidgetUpdate(ctx context.Context, outcome string) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.widgetUpdates[outcome]++
	h.appMetrics.mutex.Unlock()
}

// RecordWeatherServiceCall records a weather service API call
func (h *MetricsHandler) RecordWeatherServiceCall(service string, success bool) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.weatherServiceCalls[service]++
	if !success {
		h.appMetrics.weatherServiceErrors[service]++
	}
	h.appMetrics.mutex.Unlock()
}

// ServeMetrics exposes metrics in Prometheus text format
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	var b strings.Builder

	if h.httpMetrics != nil {
		snap := h.httpMetrics.Snapshot()

		b.WriteString("# HELP http_requests_total Total number of HTTP requests\n")
		b.WriteString("# TYPE http_requests_total counter\n")
		writeCounters(&b, "http_requests_total", "route_status", snap.RequestsTotal)

		b.WriteString("\n# HELP http_request_duration_seconds_avg Average duration of HTTP requests\n")
		b.WriteString("# TYPE http_request_duration_seconds_avg gauge\n")
		b.WriteString("http_request_duration_seconds_avg " + strconv.FormatFloat(snap.AverageDurationSecs, 'f', 6, 64) + "\n")

		b.WriteString("\n# HELP http_active_requests Number of active HTTP requests\n")
		b.WriteString("# TYPE http_active_requests gauge\n")
		b.WriteString("http_active_requests " + strconv.FormatInt(snap.ActiveRequests, 10) + "\n\n")
	}

	if h.sessions != nil {
		b.WriteString("# HELP widget_sessions_active Number of live widget sessions\n")
		b.WriteString("# TYPE widget_sessions_active gauge\n")
		b.WriteString("widget_sessions_active " + strconv.Itoa(h.sessions.Len()) + "\n\n")
	}

	h.appMetrics.mutex.RLock()

	b.WriteString("# HELP widget_updates_total Widget operations by outcome\n")
	b.WriteString("# TYPE widget_updates_total counter\n")
	writeCounters(&b, "widget_updates_total", "outcome", h.appMetrics.widgetUpdates)

	b.WriteString("\n# HELP weather_service_calls_total Total weather service calls\n")
	b.WriteString("# TYPE weather_service_calls_total counter\n")
	writeCounters(&b, "weather_service_calls_total", "service", h.appMetrics.weatherServiceCalls)

	b.WriteString("\n# HELP weather_service_errors_total Total weather service errors\n")
	b.WriteString("# TYPE weather_service_errors_total counter\n")
	writeCounters(&b, "weather_service_errors_total", "service", h.appMetrics.weatherServiceErrors)

	h.appMetrics.mutex.RUnlock()

	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeCounters(b *strings.Builder, name, label string, values map[string]int64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString(name + "{" + label + "=\"" + k + "\"} " + strconv.FormatInt(values[k], 10) + "\n")
	}
}
