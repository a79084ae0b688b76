package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"routegen/internal/adapters/upstream"
	"routegen/internal/domain"
)

const currentFields = "temperature_2m,precipitation,wind_speed_10m"

// Geocoder resolves place names through the Open-Meteo geocoding API.
type Geocoder struct {
	up   *upstream.Client
	lang string
}

func NewGeocoder(up *upstream.Client, lang string) *Geocoder {
	return &Geocoder{up: up, lang: lang}
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Admin1    string  `json:"admin1"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// Geocode returns the best match for name, or nil when there is none.
func (g *Geocoder) Geocode(ctx context.Context, name string) (*domain.Coord, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", "1")
	params.Set("language", g.lang)
	params.Set("format", "json")

	var res geocodeResponse
	if err := g.up.GetJSON(ctx, "/search", params, &res); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(res.Results) == 0 {
		return nil, nil
	}
	r := res.Results[0]
	return &domain.Coord{Name: r.Name, Country: r.Country, Admin1: r.Admin1, Lat: r.Latitude, Lon: r.Longitude}, nil
}

// Forecast reads current conditions from the Open-Meteo forecast API.
type Forecast struct {
	up       *upstream.Client
	timezone string
}

func NewForecast(up *upstream.Client, timezone string) *Forecast {
	return &Forecast{up: up, timezone: timezone}
}

type forecastResponse struct {
	Current *domain.Conditions `json:"current"`
}

func (f *Forecast) Current(ctx context.Context, lat, lon float64) (domain.Conditions, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current", currentFields)
	params.Set("timezone", f.timezone)

	var res forecastResponse
	if err := f.up.GetJSON(ctx, "/forecast", params, &res); err != nil {
		return domain.Conditions{}, fmt.Errorf("forecast %.4f,%.4f: %w", lat, lon, err)
	}
	if res.Current == nil {
		return domain.Conditions{}, fmt.Errorf("forecast %.4f,%.4f: response without current block", lat, lon)
	}
	return *res.Current, nil
}
