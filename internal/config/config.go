package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, ok := configValue.Load().(*Config)
	if !ok {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Widget      WidgetConfig    `mapstructure:"widget"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// WeatherConfig configures the Open-Meteo forecast client.
type WeatherConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	Timeout int               `mapstructure:"timeout"`
	Params  map[string]string `mapstructure:"params"`
}

// WidgetConfig holds the map defaults and the device position used by sessions.
type WidgetConfig struct {
	InitialLatitude  float64           `mapstructure:"initial_latitude"`
	InitialLongitude float64           `mapstructure:"initial_longitude"`
	InitialZoom      int               `mapstructure:"initial_zoom"`
	FocusZoom        int               `mapstructure:"focus_zoom"`
	MaxZoom          int               `mapstructure:"max_zoom"`
	Geolocation      GeolocationConfig `mapstructure:"geolocation"`
}

// GeolocationConfig describes the position reported to "use my location".
// Disabled means the capability is absent; Denied simulates a refused prompt.
type GeolocationConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Denied    bool    `mapstructure:"denied"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.open-meteo.com/v1",
			Timeout: 10,
			Params:  map[string]string{},
		},
		Widget: WidgetConfig{
			InitialLatitude:  0,
			InitialLongitude: 0,
			InitialZoom:      2,
			FocusZoom:        4,
			MaxZoom:          19,
			Geolocation: GeolocationConfig{
				Enabled: false,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}
