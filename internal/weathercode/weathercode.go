package weathercode

import "sort"

// Code is a WMO weather interpretation code as reported by Open-Meteo.
type Code int

// Unrecognized is the label for codes missing from the table.
const Unrecognized = "unrecognized"

// descriptions holds the labels the widget shows.
var descriptions = map[Code]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	52: "moderate drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	71: "slight snow fall",
	73: "moderate snowfall",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm",
	99: "thunderstorm",
}

var known = func() []Code {
	codes := make([]Code, 0, len(descriptions))
	for c := range descriptions {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}()

// Describe returns the phrase for code and whether the code is in the table.
func Describe(code Code) (string, bool) {
	d, ok := descriptions[code]
	return d, ok
}

// Label returns the phrase for code, or Unrecognized.
func Label(code Code) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return Unrecognized
}

// Known lists every code in the table in ascending order.
func Known() []Code {
	out := make([]Code, len(known))
	copy(out, known)
	return out
}
