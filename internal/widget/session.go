package widget

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
	"github.com/tgifford-usc/CurrentWeather/internal/service"
	"github.com/tgifford-usc/CurrentWeather/pkg/telemetry"
	"go.uber.org/zap"
)

// Session is one widget instance: a controller with its own map and panel.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *Controller
	Map        *MapView
	Panel      *Panel
}

// Snapshot is everything a front end needs to render the widget.
type Snapshot struct {
	ID         string                  `json:"id"`
	Coordinate geo.Coordinate          `json:"coordinate"`
	Weather    *service.CurrentWeather `json:"weather,omitempty"`
	Fields     Fields                  `json:"fields"`
	Map        MapState                `json:"map"`
	Debug      string                  `json:"debug"`
	Notice     *Notice                 `json:"notice,omitempty"`
}

type Fields struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Snapshot reads the session under the controller lock.
func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	s.Controller.Observe(func(st State) {
		panel := s.Panel.State()
		snap = Snapshot{
			ID:         s.ID,
			Coordinate: st.Coordinate,
			Weather:    st.Weather,
			Fields:     Fields{Latitude: panel.Latitude, Longitude: panel.Longitude},
			Map:        s.Map.State(),
			Debug:      panel.Debug,
			Notice:     panel.Notice,
		}
	})
	return snap
}

// Factory builds sessions that share a weather service and device position.
type Factory struct {
	Weather    service.WeatherService
	Geolocator Geolocator
	Metrics    MetricsRecorder
	Logger     *zap.Logger
	Tele       *telemetry.Telemetry
	Options    Options
}

func (f *Factory) NewSession(id string) *Session {
	m := NewMapView(f.Options.Initial, f.Options.InitialZoom, f.Options.MaxZoom)
	panel := NewPanel()

	ctrl := NewController(f.Weather, f.Geolocator, m, panel,
		f.Logger.With(zap.String("session_id", id)), f.Tele, f.Options)
	ctrl.SetMetricsRecorder(f.Metrics)
	ctrl.Bind()

	return &Session{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		Controller: ctrl,
		Map:        m,
		Panel:      panel,
	}
}

// Registry keeps live sessions by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  *Factory
}

func NewRegistry(factory *Factory) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

func (r *Registry) Create() *Session {
	s := r.factory.NewSession(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes the session and cancels its in-flight fetch.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Controller.Close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close discards every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
	}
}
