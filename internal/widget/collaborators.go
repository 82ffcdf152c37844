package widget

import (
	"context"

	"github.com/tgifford-usc/CurrentWeather/internal/geo"
)

// Geolocator reports the device position. Implementations return
// ErrGeolocationDenied or ErrGeolocationUnavailable when no position is given.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
}

// ClickHandler receives a map click.
type ClickHandler func(ctx context.Context, at geo.Coordinate) error

// Map is the map canvas the widget draws on.
type Map interface {
	SetView(center geo.Coordinate, zoom int)
	Zoom() int
	OnClick(handler ClickHandler)
	Popup() Popup
}

// Popup is the single labelled marker on the map.
type Popup interface {
	SetLatLng(at geo.Coordinate)
	SetContent(content string)
	Open()
}

// Display holds the text controls around the map.
type Display interface {
	SetCoordinateFields(lat, lon string)
	ShowDebug(raw string)
	ShowNotice(n Notice)
	ClearNotice()
}

// NoticeKind classifies a user-visible notice.
type NoticeKind string

const (
	NoticeGeolocation       NoticeKind = "geolocation"
	NoticeInvalidInput      NoticeKind = "invalid_input"
	NoticeNetworkFailure    NoticeKind = "network_failure"
	NoticeMalformedResponse NoticeKind = "malformed_response"
)

// Notice is a non-fatal message shown to the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// MetricsRecorder receives one outcome per widget operation.
type MetricsRecorder interface {
	RecordWidgetUpdate(ctx context.Context, outcome string)
}
