package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"routegen/internal/adapters/observability"
	"routegen/internal/domain"
)

const (
	DefaultWeatherStops = 12

	weatherNotFound = "nicht gefunden"
	weatherFailed   = "Fehler"
)

// WeatherReport holds one row per looked-up stop, in stop order.
type WeatherReport struct {
	Rows   []domain.WeatherRow `json:"rows"`
	Loaded int                 `json:"loaded"`
	Total  int                 `json:"total"`
}

type WeatherService struct {
	geo      domain.Geocoder
	wx       domain.WeatherClient
	maxStops int
	workers  int
}

// NewWeatherService looks up at most maxStops stops with the given number of
// concurrent workers. Non-positive values fall back to 12 stops and 1 worker.
func NewWeatherService(geo domain.Geocoder, wx domain.WeatherClient, maxStops, workers int) *WeatherService {
	if maxStops <= 0 {
		maxStops = DefaultWeatherStops
	}
	if workers <= 0 {
		workers = 1
	}
	return &WeatherService{geo: geo, wx: wx, maxStops: maxStops, workers: workers}
}

// Lookup resolves current conditions for the first stops. A failing stop
// yields an error row and never aborts the others.
func (s *WeatherService) Lookup(ctx context.Context, stops []string) (WeatherReport, error) {
	stops = cleanStops(stops)
	if len(stops) == 0 {
		return WeatherReport{}, domain.ErrNoStops
	}
	total := len(stops)
	if len(stops) > s.maxStops {
		stops = stops[:s.maxStops]
	}

	rows := make([]domain.WeatherRow, len(stops))
	sem := semaphore.NewWeighted(int64(s.workers))
	var wg sync.WaitGroup
	for i, stop := range stops {
		if err := sem.Acquire(ctx, 1); err != nil {
			// canceled: remaining rows report the failure
			for j := i; j < len(stops); j++ {
				rows[j] = domain.WeatherRow{Query: stops[j], Place: stops[j], Err: weatherFailed}
			}
			break
		}
		wg.Add(1)
		go func(i int, stop string) {
			defer wg.Done()
			defer sem.Release(1)
			rows[i] = s.row(ctx, stop)
		}(i, stop)
	}
	wg.Wait()

	loaded := 0
	for _, r := range rows {
		if r.Err == "" {
			loaded++
		}
	}
	log.Debug().Int("stops", len(stops)).Int("total", total).Int("loaded", loaded).Msg("weather lookup done")
	return WeatherReport{Rows: rows, Loaded: loaded, Total: total}, nil
}

func (s *WeatherService) row(ctx context.Context, stop string) domain.WeatherRow {
	row := domain.WeatherRow{Query: stop, Place: stop}

	c, err := s.geo.Geocode(ctx, stop)
	if err != nil {
		log.Warn().Err(err).Str("err_type", observability.LabelErr(err)).Str("stop", stop).Msg("weather geocode failed")
		observability.ObserveWeatherRow("error")
		row.Err = weatherFailed
		return row
	}
	if c == nil {
		observability.ObserveWeatherRow("not_found")
		row.Err = weatherNotFound
		return row
	}
	row.Place = c.Label()

	cur, err := s.wx.Current(ctx, c.Lat, c.Lon)
	if err != nil {
		log.Warn().Err(err).Str("err_type", observability.LabelErr(err)).Str("stop", stop).Msg("weather forecast failed")
		observability.ObserveWeatherRow("error")
		row.Err = weatherFailed
		return row
	}
	t, p, w := cur.Temperature, cur.Precipitation, cur.WindSpeed
	row.Temperature, row.Precipitation, row.Wind = &t, &p, &w
	row.Time = cur.Time
	observability.ObserveWeatherRow("ok")
	return row
}
