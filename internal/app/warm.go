package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"routegen/internal/domain"
)

// WarmService geocodes every stop of every saved trip so later weather
// lookups are served from the coordinate cache.
type WarmService struct {
	trips domain.TripRepository
	geo   domain.Geocoder
}

func NewWarmService(r domain.TripRepository, g domain.Geocoder) *WarmService {
	return &WarmService{trips: r, geo: g}
}

type WarmReport struct {
	Trips    int `json:"trips"`
	Places   int `json:"places"`
	Resolved int `json:"resolved"`
	Unknown  int `json:"unknown"`
	Failed   int `json:"failed"`
}

// Warm resolves each distinct place once, with at most workers lookups in
// flight. Single failures are counted, not returned.
func (s *WarmService) Warm(ctx context.Context, workers int) (WarmReport, error) {
	if workers <= 0 {
		workers = 1
	}
	names, err := s.trips.ListTrips(ctx)
	if err != nil {
		return WarmReport{}, fmt.Errorf("list trips: %w", err)
	}

	seen := map[string]bool{}
	var places []string
	for _, n := range names {
		t, err := s.trips.LoadTrip(ctx, n)
		if err != nil {
			log.Warn().Err(err).Str("trip", n).Msg("warm: load trip failed")
			continue
		}
		for _, stop := range SelectStops(t.Stops, t.FreeText) {
			k := domain.CoordKey(stop)
			if seen[k] {
				continue
			}
			seen[k] = true
			places = append(places, stop)
		}
	}

	var resolved, unknown, failed atomic.Int64
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	for _, p := range places {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return WarmReport{}, err
		}
		wg.Add(1)
		go func(place string) {
			defer wg.Done()
			defer sem.Release(1)

			c, err := s.geo.Geocode(ctx, place)
			switch {
			case err != nil:
				failed.Add(1)
				log.Warn().Err(err).Str("place", place).Msg("warm failed")
			case c == nil:
				unknown.Add(1)
				log.Info().Str("place", place).Msg("warm: place unknown")
			default:
				resolved.Add(1)
				log.Debug().Str("place", place).Str("label", c.Label()).Msg("warm ok")
			}
		}(p)
	}
	wg.Wait()

	return WarmReport{
		Trips:    len(names),
		Places:   len(places),
		Resolved: int(resolved.Load()),
		Unknown:  int(unknown.Load()),
		Failed:   int(failed.Load()),
	}, nil
}
