package widget

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tgifford-usc/CurrentWeather/internal/config"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/internal/weathercode"
	"github.com/tgifford-usc/CurrentWeather/pkg/telemetry"
	"go.uber.org/zap"
)

// Outcomes passed to MetricsRecorder.
const (
	OutcomeSuccess           = "success"
	OutcomeInvalidInput      = "invalid_input"
	OutcomeGeolocationFailed = "geolocation_failed"
	OutcomeNetworkFailure    = "network_failure"
	OutcomeMalformedResponse = "malformed_response"
	OutcomeSuperseded        = "superseded"
)

const defaultFetchTimeout = 10 * time.Second

type Options struct {
	Initial      geo.Coordinate
	InitialZoom  int
	FocusZoom    int
	MaxZoom      int
	FetchTimeout time.Duration
}

func OptionsFromConfig(w config.WidgetConfig, weather config.WeatherConfig) Options {
	return Options{
		Initial:      geo.Normalize(w.InitialLatitude, w.InitialLongitude),
		InitialZoom:  w.InitialZoom,
		FocusZoom:    w.FocusZoom,
		MaxZoom:      w.MaxZoom,
		FetchTimeout: time.Duration(weather.Timeout) * time.Second,
	}
}

// State is the committed widget state: the last coordinate whose weather was
// displayed, and that weather.
type State struct {
	Coordinate geo.Coordinate
	Weather    *service.CurrentWeather
}

// Controller turns geolocation, text-field edits and map clicks into weather
// lookups and owns the current coordinate.
//
// Every Update gets a sequence number; starting a new one cancels the fetch of
// the previous one, and a result is applied only if its Update is still the
// latest.
type Controller struct {
	weather    service.WeatherService
	geolocator Geolocator
	mapView    Map
	display    Display
	metrics    MetricsRecorder
	logger     *zap.Logger
	tele       *telemetry.Telemetry

	focusZoom    int
	fetchTimeout time.Duration

	mu       sync.Mutex
	state    State
	seq      uint64
	inflight context.CancelFunc
}

// NewController wires a controller to its collaborators and shows the initial
// coordinate in the text fields. geolocator may be nil when the device has no
// location capability.
func NewController(weather service.WeatherService, geolocator Geolocator, m Map, d Display,
	logger *zap.Logger, tele *telemetry.Telemetry, opts Options,
) *Controller {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}

	c := &Controller{
		weather:      weather,
		geolocator:   geolocator,
		mapView:      m,
		display:      d,
		logger:       logger,
		tele:         tele,
		focusZoom:    opts.FocusZoom,
		fetchTimeout: opts.FetchTimeout,
		state:        State{Coordinate: opts.Initial},
	}

	d.SetCoordinateFields(opts.Initial.Fields())
	return c
}

// SetMetricsRecorder sets the metrics recorder for the controller
func (c *Controller) SetMetricsRecorder(metrics MetricsRecorder) {
	c.metrics = metrics
}

// Bind subscribes the controller to clicks on its map.
func (c *Controller) Bind() {
	c.mapView.OnClick(c.MapClick)
}

// Geolocate runs an Update at the device position.
func (c *Controller) Geolocate(ctx context.Context) error {
	ctx, end := c.tele.StartSpan(ctx, "widget.Geolocate")
	defer end()

	if c.geolocator == nil {
		return c.geolocationFailed(ctx, ErrGeolocationUnavailable)
	}

	pos, err := c.geolocator.CurrentPosition(ctx)
	if err != nil {
		if !errors.Is(err, ErrGeolocationDenied) && !errors.Is(err, ErrGeolocationUnavailable) {
			err = errors.Join(ErrGeolocationUnavailable, err)
		}
		return c.geolocationFailed(ctx, err)
	}

	return c.Update(ctx, pos.Latitude, pos.Longitude)
}

// ManualUpdate parses the two text field values and runs an Update. Nothing
// changes when either value is not a finite number.
func (c *Controller) ManualUpdate(ctx context.Context, latText, lonText string) error {
	lat, err := parseField("latitude", latText)
	if err == nil {
		var lon float64
		lon, err = parseField("longitude", lonText)
		if err == nil {
			return c.Update(ctx, lat, lon)
		}
	}

	c.logger.Info("Rejected coordinate input", zap.Error(err))
	c.showNotice(Notice{Kind: NoticeInvalidInput, Message: err.Error()})
	c.record(ctx, OutcomeInvalidInput)
	return err
}

// MapClick runs an Update at the clicked point.
func (c *Controller) MapClick(ctx context.Context, at geo.Coordinate) error {
	return c.Update(ctx, at.Latitude, at.Longitude)
}

// Update normalizes the coordinate, echoes it into the text fields, fetches
// the current weather and, if still current when the fetch returns, moves
// the marker and the map there. On failure the previous coordinate, marker
// and zoom are kept and a notice is shown.
func (c *Controller) Update(ctx context.Context, lat, lon float64) error {
	coord := geo.Normalize(lat, lon)
	if !coord.IsFinite() {
		err := &InvalidCoordinateInputError{Field: "coordinate", Value: coord.String()}
		c.showNotice(Notice{Kind: NoticeInvalidInput, Message: err.Error()})
		c.record(ctx, OutcomeInvalidInput)
		return err
	}

	ctx, end := c.tele.StartSpanWithAttributes(ctx, "widget.Update", map[string]interface{}{
		"lat": coord.Latitude,
		"lon": coord.Longitude,
	})
	defer end()

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.inflight != nil {
		c.inflight()
	}
	c.inflight = cancel
	c.display.SetCoordinateFields(coord.Fields())
	c.display.ShowDebug("")
	c.mu.Unlock()

	log := c.logger.With(zap.Uint64("seq", seq), zap.Stringer("coordinate", coord))
	log.Debug("Fetching current weather")

	result, err := c.weather.CurrentWeather(fetchCtx, coord)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		log.Debug("Discarding superseded update", zap.Uint64("latest_seq", c.seq))
		c.record(ctx, OutcomeSuperseded)
		return ErrSuperseded
	}
	c.inflight = nil

	if err != nil {
		if raw, ok := service.RawBody(err); ok {
			c.display.ShowDebug(raw)
		}
		notice, outcome := noticeFor(err)
		c.display.ShowNotice(notice)
		c.record(ctx, outcome)
		c.tele.RecordError(ctx, err, map[string]interface{}{"seq": seq})
		log.Warn("Weather update failed", zap.Error(err))
		return err
	}

	label := weathercode.Label(result.WeatherCode)

	c.state = State{Coordinate: coord, Weather: result}
	c.display.ShowDebug(result.Raw)

	popup := c.mapView.Popup()
	popup.SetLatLng(coord)
	popup.SetContent(label)
	popup.Open()

	zoom := c.mapView.Zoom()
	if zoom < c.focusZoom {
		zoom = c.focusZoom
	}
	c.mapView.SetView(coord, zoom)
	c.display.ClearNotice()

	c.record(ctx, OutcomeSuccess)
	log.Info("Weather updated",
		zap.Int("weathercode", int(result.WeatherCode)),
		zap.String("label", label),
		zap.Int("zoom", zoom))

	return nil
}

// Coordinate returns the committed coordinate.
func (c *Controller) Coordinate() geo.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Coordinate
}

// Observe calls fn with the committed state while no Update can apply its
// results, so collaborators read inside fn are consistent with it.
func (c *Controller) Observe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.state)
}

// Close cancels the in-flight fetch, if any, and discards its result.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

func (c *Controller) geolocationFailed(ctx context.Context, err error) error {
	msg := "Location services not available"
	if errors.Is(err, ErrGeolocationDenied) {
		msg = "Location permission denied"
	}
	c.logger.Info("Geolocation failed", zap.Error(err))
	c.showNotice(Notice{Kind: NoticeGeolocation, Message: msg})
	c.record(ctx, OutcomeGeolocationFailed)
	return err
}

func (c *Controller) showNotice(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.display.ShowNotice(n)
}

func (c *Controller) record(ctx context.Context, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordWidgetUpdate(ctx, outcome)
	}
}

func noticeFor(err error) (Notice, string) {
	if errors.Is(err, service.ErrMalformedResponse) {
		return Notice{
			Kind:    NoticeMalformedResponse,
			Message: "The weather service sent an unexpected response: " + err.Error(),
		}, OutcomeMalformedResponse
	}
	return Notice{
		Kind:    NoticeNetworkFailure,
		Message: "Could not reach the weather service: " + err.Error(),
	}, OutcomeNetworkFailure
}

func parseField(field, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InvalidCoordinateInputError{Field: field, Value: text}
	}
	return v, nil
}
