package service

import (
	"context"

	"github.com/tgifford-usc/CurrentWeather/internal/geo"
)

type WeatherService interface {
	CurrentWeather(ctx context.Context, coord geo.Coordinate) (*CurrentWeather, error)
	Name() string
}
