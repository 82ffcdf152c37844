package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/server/utils"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/widget"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type WidgetHandler struct {
	registry *widget.Registry
	logger   *zap.Logger
}

func NewWidgetHandler(registry *widget.Registry, logger *zap.Logger) *WidgetHandler {
	return &WidgetHandler{
		registry: registry,
		logger:   logger,
	}
}

func (h *WidgetHandler) Create(c *gin.Context) {
	s := h.registry.Create()
	h.requestLogger(c).Info("Widget session created", zap.String("session_id", s.ID))
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *WidgetHandler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *WidgetHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.Delete(id) {
		h.notFound(c, id)
		return
	}
	h.requestLogger(c).Info("Widget session deleted")
	c.Status(http.StatusNoContent)
}

// Geolocate handles the "use my location" button.
func (h *WidgetHandler) Geolocate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	err := s.Controller.Geolocate(utils.GetContextFromGinContext(c))
	h.respond(c, s, err)
}

// UpdateCoordinates handles an edit of the coordinate text fields. A field
// missing from the body keeps its current text.
func (h *WidgetHandler) UpdateCoordinates(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CoordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		h.requestLogger(c).Warn("Invalid coordinates request", zap.Any("errors", verrs))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: verrs[0].Message,
		})
		return
	}

	lat, lon := s.Panel.Fields()
	if req.Latitude != nil {
		lat = *req.Latitude
	}
	if req.Longitude != nil {
		lon = *req.Longitude
	}
	s.Panel.SetCoordinateFields(lat, lon)

	err := s.Controller.ManualUpdate(utils.GetContextFromGinContext(c), lat, lon)
	h.respond(c, s, err)
}

// Click handles a click on the map.
func (h *WidgetHandler) Click(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	err := s.Map.Click(utils.GetContextFromGinContext(c), geo.Coordinate{Latitude: *req.Lat, Longitude: *req.Lng})
	h.respond(c, s, err)
}

func (h *WidgetHandler) session(c *gin.Context) (*widget.Session, bool) {
	id := c.Param("id")
	s, ok := h.registry.Get(id)
	if !ok {
		h.notFound(c, id)
	}
	return s, ok
}

func (h *WidgetHandler) respond(c *gin.Context, s *widget.Session, err error) {
	utils.GetSpanFromGinContext(c).SetAttributes(attribute.String("widget.session_id", s.ID))

	snap := s.Snapshot()
	if err == nil {
		c.JSON(http.StatusOK, snap)
		return
	}

	status, code := classify(err)
	h.requestLogger(c).Info("Widget operation failed",
		zap.String("code", code),
		zap.Error(err))

	c.JSON(status, WidgetErrorResponse{
		ErrorResponse: ErrorResponse{
			Error:   http.StatusText(status),
			Code:    code,
			Details: err.Error(),
		},
		Widget: &snap,
	})
}

func (h *WidgetHandler) notFound(c *gin.Context, id string) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "Widget session not found",
		Code:    "SESSION_NOT_FOUND",
		Details: id,
	})
}

func (h *WidgetHandler) badRequest(c *gin.Context, err error) {
	h.requestLogger(c).Warn("Invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request body",
		Code:    "INVALID_PARAMS",
		Details: err.Error(),
	})
}

func (h *WidgetHandler) requestLogger(c *gin.Context) *zap.Logger {
	return utils.RequestLogger(h.logger, c)
}

// classify maps controller and client errors to an HTTP status and error code.
func classify(err error) (int, string) {
	var inputErr *widget.InvalidCoordinateInputError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusUnprocessableEntity, "INVALID_COORDINATES"
	case errors.Is(err, widget.ErrGeolocationDenied):
		return http.StatusConflict, "GEOLOCATION_DENIED"
	case errors.Is(err, widget.ErrGeolocationUnavailable):
		return http.StatusConflict, "GEOLOCATION_UNAVAILABLE"
	case errors.Is(err, widget.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED"
	case errors.Is(err, service.ErrMalformedResponse):
		return http.StatusBadGateway, "MALFORMED_RESPONSE"
	case errors.Is(err, service.ErrNetworkFailure):
		return http.StatusBadGateway, "NETWORK_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
