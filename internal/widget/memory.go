package widget

import (
	"context"
	"errors"
	"sync"

	"github.com/tgifford-usc/CurrentWeather/internal/geo"
)

// MapView is an in-memory Map. It keeps the view and the popup so they can be
// reported to a front end, and dispatches clicks to subscribed handlers.
type MapView struct {
	mu       sync.RWMutex
	center   geo.Coordinate
	zoom     int
	maxZoom  int
	popup    PopupState
	handlers []ClickHandler
}

type MapState struct {
	Center geo.Coordinate `json:"center"`
	Zoom   int            `json:"zoom"`
	Popup  PopupState     `json:"popup"`
}

type PopupState struct {
	Position *geo.Coordinate `json:"position,omitempty"`
	Content  string          `json:"content,omitempty"`
	Open     bool            `json:"open"`
}

func NewMapView(center geo.Coordinate, zoom, maxZoom int) *MapView {
	m := &MapView{maxZoom: maxZoom}
	m.SetView(center, zoom)
	return m
}

// SetView moves the map; zoom is clamped to [0, maxZoom].
func (m *MapView) SetView(center geo.Coordinate, zoom int) {
	if zoom < 0 {
		zoom = 0
	}
	if zoom > m.maxZoom {
		zoom = m.maxZoom
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.center = center
	m.zoom = zoom
}

func (m *MapView) Zoom() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.zoom
}

func (m *MapView) OnClick(handler ClickHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// Click delivers a click at the given point to every handler.
func (m *MapView) Click(ctx context.Context, at geo.Coordinate) error {
	m.mu.RLock()
	handlers := make([]ClickHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, at); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MapView) Popup() Popup {
	return mapPopup{m}
}

func (m *MapView) State() MapState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := MapState{Center: m.center, Zoom: m.zoom, Popup: m.popup}
	if m.popup.Position != nil {
		pos := *m.popup.Position
		state.Popup.Position = &pos
	}
	return state
}

type mapPopup struct {
	m *MapView
}

func (p mapPopup) SetLatLng(at geo.Coordinate) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	p.m.popup.Position = &at
}

func (p mapPopup) SetContent(content string) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	p.m.popup.Content = content
}

func (p mapPopup) Open() {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	p.m.popup.Open = true
}

// Panel is an in-memory Display.
type Panel struct {
	mu        sync.RWMutex
	latitude  string
	longitude string
	debug     string
	notice    *Notice
}

type PanelState struct {
	Latitude  string  `json:"latitude"`
	Longitude string  `json:"longitude"`
	Debug     string  `json:"debug"`
	Notice    *Notice `json:"notice,omitempty"`
}

func NewPanel() *Panel {
	return &Panel{}
}

func (p *Panel) SetCoordinateFields(lat, lon string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latitude = lat
	p.longitude = lon
}

// Fields returns the current text of the two coordinate fields.
func (p *Panel) Fields() (lat, lon string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latitude, p.longitude
}

func (p *Panel) ShowDebug(raw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.debug = raw
}

func (p *Panel) ShowNotice(n Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notice = &n
}

func (p *Panel) ClearNotice() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notice = nil
}

func (p *Panel) State() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state := PanelState{
		Latitude:  p.latitude,
		Longitude: p.longitude,
		Debug:     p.debug,
	}
	if p.notice != nil {
		n := *p.notice
		state.Notice = &n
	}
	return state
}
