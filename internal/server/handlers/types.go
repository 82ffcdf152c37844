package handlers

import (
	"encoding/json"

	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/widget"
)

// WeatherRequest is a one-off lookup. Latitude is not range-checked.
type WeatherRequest struct {
	Lat *float64 `form:"lat" json:"lat" binding:"required"`
	Lon *float64 `form:"lon" json:"lon" binding:"required"`
}

// WeatherResponse is the result of a one-off lookup
type WeatherResponse struct {
	Coordinate geo.Coordinate          `json:"coordinate"`
	Label      string                  `json:"label"`
	Weather    *service.CurrentWeather `json:"weather"`
	Raw        json.RawMessage         `json:"raw"`
}

// CoordinatesRequest is an edit of one or both coordinate text fields.
type CoordinatesRequest struct {
	Latitude  *string `json:"latitude" validate:"required_without=Longitude"`
	Longitude *string `json:"longitude" validate:"required_without=Latitude"`
}

// ClickRequest is a click on the map canvas.
type ClickRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string `json:"error" validate:"required,min=1,max=500"`
	Code    string `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details string `json:"details,omitempty" validate:"omitempty,max=1000"`
}

// WidgetErrorResponse carries the widget state alongside the error so the
// front end can render whatever was already committed.
type WidgetErrorResponse struct {
	ErrorResponse
	Widget *widget.Snapshot `json:"widget,omitempty"`
}

// HealthResponse represents health check response with validation
type HealthResponse struct {
	Status    string `json:"status" validate:"required,oneof=ok alive ready degraded unavailable"`
	Uptime    string `json:"uptime" validate:"required"`
	Timestamp string `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Sessions  *int   `json:"sessions,omitempty"`
}
