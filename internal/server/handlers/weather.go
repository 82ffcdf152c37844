package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/server/utils"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/weathercode"
	"go.uber.org/zap"
)

// ServiceCallRecorder counts calls to the forecast API.
type ServiceCallRecorder interface {
	RecordWeatherServiceCall(service string, success bool)
}

type WeatherHandler struct {
	service service.WeatherService
	metrics ServiceCallRecorder
	logger  *zap.Logger
}

func NewWeatherHandler(svc service.WeatherService, metrics ServiceCallRecorder, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		service: svc,
		metrics: metrics,
		logger:  logger,
	}
}

// GetWeather looks up the current weather at a coordinate without touching
// any widget session.
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := utils.RequestLogger(h.logger, c)

	var req WeatherRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	coord := geo.Normalize(*req.Lat, *req.Lon)
	if !coord.IsFinite() {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Coordinates must be finite numbers",
			Code:  "INVALID_COORDINATES",
		})
		return
	}

	reqLogger.Info("Processing weather request",
		zap.Float64("lat", coord.Latitude),
		zap.Float64("lon", coord.Longitude))

	result, err := h.service.CurrentWeather(ctx, coord)
	if h.metrics != nil {
		h.metrics.RecordWeatherServiceCall(h.service.Name(), err == nil)
	}
	if err != nil {
		status, code := classify(err)
		reqLogger.Error("Failed to get weather data", zap.Error(err))
		c.JSON(status, ErrorResponse{
			Error:   "Failed to fetch weather data",
			Code:    code,
			Details: err.Error(),
		})
		return
	}

	reqLogger.Info("Weather request completed successfully",
		zap.Int("weathercode", int(result.WeatherCode)))

	c.JSON(http.StatusOK, WeatherResponse{
		Coordinate: coord,
		Label:      weathercode.Label(result.WeatherCode),
		Weather:    result,
		Raw:        rawJSON(result.Raw),
	})
}

func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
