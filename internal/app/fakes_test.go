package app_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"routegen/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu    sync.Mutex
	trips map[string]domain.Trip
	last  string
	saves int
	err   error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{trips: map[string]domain.Trip{}} }

func (f *fakeRepo) LoadTrip(ctx context.Context, name string) (domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Trip{}, f.err
	}
	t, ok := f.trips[name]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) SaveTrip(ctx context.Context, name string, t domain.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.trips[name] = t
	f.saves++
	return nil
}

func (f *fakeRepo) ListTrips(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.trips {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeRepo) LastTrip(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, nil
}

func (f *fakeRepo) SetLastTrip(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = name
	return nil
}

func (f *fakeRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type fakeCoordStore struct {
	mu sync.Mutex
	m  map[string]domain.Coord
}

func newFakeCoordStore() *fakeCoordStore { return &fakeCoordStore{m: map[string]domain.Coord{}} }

func (f *fakeCoordStore) LookupCoord(ctx context.Context, key string) (*domain.Coord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeCoordStore) StoreCoord(ctx context.Context, key string, c domain.Coord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[key]; !ok {
		f.m[key] = c
	}
	return nil
}

func (f *fakeCoordStore) DeleteCoord(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, key)
	return nil
}

// fakeGeocoder resolves names found in known; "fail" returns an error.
type fakeGeocoder struct {
	mu    sync.Mutex
	known map[string]domain.Coord
	calls map[string]int
}

func newFakeGeocoder(known map[string]domain.Coord) *fakeGeocoder {
	return &fakeGeocoder{known: known, calls: map[string]int{}}
}

func (f *fakeGeocoder) Geocode(ctx context.Context, name string) (*domain.Coord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if strings.Contains(name, "fail") {
		return nil, errors.New("geocoding failed")
	}
	c, ok := f.known[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeGeocoder) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.calls {
		n += v
	}
	return n
}

type fakeWeather struct {
	failLat float64
}

func (f *fakeWeather) Current(ctx context.Context, lat, lon float64) (domain.Conditions, error) {
	if lat == f.failLat {
		return domain.Conditions{}, errors.New("weather failed")
	}
	return domain.Conditions{Time: "2026-10-19T10:00", Temperature: lat, Precipitation: 0.1, WindSpeed: lon}, nil
}

type fakeSuggester struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, q string) ([]string, error)
}

func (f *fakeSuggester) Suggest(ctx context.Context, q string, limit int) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, q)
	}
	out := make([]string, 0, limit)
	for i := 0; i < 8 && len(out) < limit; i++ {
		out = append(out, q+" "+string(rune('A'+i)))
	}
	return out, nil
}

func (f *fakeSuggester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*[]string) = v
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]string{}
	}
	c.store[key] = v.([]string)
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}
