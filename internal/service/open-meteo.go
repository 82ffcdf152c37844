package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tgifford-usc/CurrentWeather/internal/config"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/weathercode"
	"github.com/tgifford-usc/CurrentWeather/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	forecastEndpoint = "/forecast"
	userAgent        = "CurrentWeather/1.0"
)

type OpenMeteoService struct {
	client *resty.Client
	params map[string]string
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

// CurrentWeather is the validated subset of a forecast response.
type CurrentWeather struct {
	Coordinate    geo.Coordinate   `json:"coordinate"`
	GridLatitude  float64          `json:"grid_latitude"`
	GridLongitude float64          `json:"grid_longitude"`
	Timezone      string           `json:"timezone,omitempty"`
	Time          string           `json:"time,omitempty"`
	Temperature   float64          `json:"temperature"`
	WindSpeed     float64          `json:"windspeed"`
	WindDirection float64          `json:"winddirection"`
	IsDay         bool             `json:"is_day"`
	WeatherCode   weathercode.Code `json:"weathercode"`
	Description   string           `json:"description"`
	// Raw is the full response body, indented.
	Raw string `json:"-"`
}

type forecastResponse struct {
	Latitude       float64                `json:"latitude"`
	Longitude      float64                `json:"longitude"`
	Timezone       string                 `json:"timezone"`
	CurrentWeather *currentWeatherPayload `json:"current_weather"`
}

type currentWeatherPayload struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddirection"`
	IsDay         int     `json:"is_day"`
	WeatherCode   *int    `json:"weathercode"`
}

type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func NewOpenMeteoServiceWithConfig(cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) *OpenMeteoService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetLogger(logger.Sugar())

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("Forecast API response",
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("latency", resp.Time()),
			zap.Int("body_size", len(resp.Body())))
		return nil
	})

	return &OpenMeteoService{
		client: client,
		params: cfg.Params,
		logger: logger,
		tele:   tele,
	}
}

func (s *OpenMeteoService) Name() string {
	return "open-meteo"
}

// CurrentWeather performs one forecast request for coord. Errors match
// ErrNetworkFailure or ErrMalformedResponse.
func (s *OpenMeteoService) CurrentWeather(ctx context.Context, coord geo.Coordinate) (*CurrentWeather, error) {
	tracer := s.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "open-meteo.CurrentWeather")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", coord.Latitude),
		attribute.Float64("lon", coord.Longitude),
		attribute.String("service", s.Name()),
	)

	query := make(map[string]string, len(s.params)+3)
	for key, value := range s.params {
		query[key] = value
	}
	query["latitude"] = strconv.FormatFloat(coord.Latitude, 'f', -1, 64)
	query["longitude"] = strconv.FormatFloat(coord.Longitude, 'f', -1, 64)
	query["current_weather"] = "true"

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(forecastEndpoint)
	if err != nil {
		s.tele.RecordError(ctx, err, map[string]interface{}{"stage": "request"})
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	body := resp.Body()
	raw := indent(body)

	if !resp.IsSuccess() {
		statusErr := &StatusError{StatusCode: resp.StatusCode(), Raw: raw}
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil {
			statusErr.Reason = apiErr.Reason
		}
		s.tele.RecordError(ctx, statusErr, nil)
		return nil, statusErr
	}

	result, err := decodeCurrentWeather(body, raw)
	if err != nil {
		s.tele.RecordError(ctx, err, nil)
		return nil, err
	}
	result.Coordinate = coord

	span.SetAttributes(attribute.Int("weathercode", int(result.WeatherCode)))

	s.logger.Debug("Current weather fetched",
		zap.Float64("lat", coord.Latitude),
		zap.Float64("lon", coord.Longitude),
		zap.Int("weathercode", int(result.WeatherCode)))

	return result, nil
}

func decodeCurrentWeather(body []byte, raw string) (*CurrentWeather, error) {
	if raw == "" {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, &MalformedResponseError{Reason: "empty body"}
		}
		return nil, &MalformedResponseError{Reason: "invalid JSON", Err: json.Unmarshal(body, new(json.RawMessage))}
	}

	var payload forecastResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedResponseError{Reason: "unexpected schema", Raw: raw, Err: err}
	}

	cw := payload.CurrentWeather
	if cw == nil {
		return nil, &MalformedResponseError{Reason: "missing current_weather", Raw: raw}
	}
	if cw.WeatherCode == nil {
		return nil, &MalformedResponseError{Reason: "missing current_weather.weathercode", Raw: raw}
	}

	code := weathercode.Code(*cw.WeatherCode)
	return &CurrentWeather{
		GridLatitude:  payload.Latitude,
		GridLongitude: payload.Longitude,
		Timezone:      payload.Timezone,
		Time:          cw.Time,
		Temperature:   cw.Temperature,
		WindSpeed:     cw.WindSpeed,
		WindDirection: cw.WindDirection,
		IsDay:         cw.IsDay == 1,
		WeatherCode:   code,
		Description:   weathercode.Label(code),
		Raw:           raw,
	}, nil
}

// indent returns body re-indented with two spaces, or "" when it is not JSON.
func indent(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return ""
	}
	return buf.String()
}
