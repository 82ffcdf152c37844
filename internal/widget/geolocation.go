package widget

import (
	"context"

	"github.com/tgifford-usc/CurrentWeather/internal/config"
	"github.com/tgifford-usc/CurrentWeather/internal/geo"
)

// StaticGeolocator reports a fixed device position.
type StaticGeolocator struct {
	Position geo.Coordinate
	Denied   bool
}

// NewGeolocator returns nil when location services are disabled.
func NewGeolocator(cfg config.GeolocationConfig) Geolocator {
	if !cfg.Enabled {
		return nil
	}
	return &StaticGeolocator{
		Position: geo.Coordinate{Latitude: cfg.Latitude, Longitude: cfg.Longitude},
		Denied:   cfg.Denied,
	}
}

func (g *StaticGeolocator) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}
	if g.Denied {
		return geo.Coordinate{}, ErrGeolocationDenied
	}
	return g.Position, nil
}
