package domain

import (
	"strings"
	"time"
)

// Coord is one geocoding result as kept in the coordinate cache.
type Coord struct {
	Name     string    `json:"name"`
	Country  string    `json:"country,omitempty"`
	Admin1   string    `json:"admin1,omitempty"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	StoredAt time.Time `json:"storedAt,omitempty"`
}

// Label renders "name, region, country", skipping empty parts.
func (c Coord) Label() string {
	parts := []string{c.Name}
	if c.Admin1 != "" {
		parts = append(parts, c.Admin1)
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	return strings.Join(parts, ", ")
}

// CoordKey normalizes a place name into its cache key.
func CoordKey(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}

// Conditions are the current weather values for one location.
type Conditions struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature_2m"`
	Precipitation float64 `json:"precipitation"`
	WindSpeed     float64 `json:"wind_speed_10m"`
}

// WeatherRow is one line of a weather lookup. Err is set instead of the
// values when the stop could not be resolved.
type WeatherRow struct {
	Query         string   `json:"query"`
	Place         string   `json:"place"`
	Temperature   *float64 `json:"temperature,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
	Wind          *float64 `json:"wind,omitempty"`
	Time          string   `json:"time,omitempty"`
	Err           string   `json:"err,omitempty"`
}
