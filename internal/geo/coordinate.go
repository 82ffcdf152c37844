package geo

import (
	"math"
	"strconv"
)

// Coordinate is a point on the map. Longitude is kept in (-180, 180].
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Normalize builds a Coordinate with the longitude wrapped into (-180, 180].
// Latitude is passed through as-is.
func Normalize(lat, lon float64) Coordinate {
	return Coordinate{
		Latitude:  lat,
		Longitude: NormalizeLongitude(lon),
	}
}

// NormalizeLongitude returns the representative of lon in (-180, 180].
// -180 maps to 180. Non-finite input yields NaN.
func NormalizeLongitude(lon float64) float64 {
	l := math.Mod(lon, 360)
	switch {
	case l <= -180:
		l += 360
	case l > 180:
		l -= 360
	}
	return l
}

func (c Coordinate) IsFinite() bool {
	return isFinite(c.Latitude) && isFinite(c.Longitude)
}

// Fields renders both components the way the coordinate text fields show them.
func (c Coordinate) Fields() (lat, lon string) {
	return FormatDegrees(c.Latitude), FormatDegrees(c.Longitude)
}

func (c Coordinate) String() string {
	lat, lon := c.Fields()
	return lat + "," + lon
}

// FormatDegrees formats v with exactly 4 decimal places.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
