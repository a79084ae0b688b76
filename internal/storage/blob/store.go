// Package blob keeps trips and the coordinate cache as two whole JSON
// documents under fixed keys of a flat key-value store.
package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"routegen/internal/domain"
)

const (
	TripsKey  = "routegen_v1"
	CoordsKey = "routegen_coordcache_v1"

	lastTripField = domain.ReservedTripName
)

// Store implements domain.TripRepository and domain.CoordStore.
// Writers in other processes are not coordinated: last writer wins.
type Store struct {
	kv domain.KV
	mu sync.Mutex
}

func New(kv domain.KV) *Store { return &Store{kv: kv} }

// ---- trips document ----

// readTrips returns an empty document when the stored blob is missing or
// cannot be parsed.
func (s *Store) readTrips(ctx context.Context) (map[string]json.RawMessage, error) {
	raw, ok, err := s.kv.GetRaw(ctx, TripsKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", TripsKey, err)
	}
	doc := map[string]json.RawMessage{}
	if !ok || raw == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
		log.Warn().Err(err).Str("key", TripsKey).Msg("corrupted trips document, starting empty")
		return map[string]json.RawMessage{}, nil
	}
	return doc, nil
}

func (s *Store) writeTrips(ctx context.Context, doc map[string]json.RawMessage) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.kv.SetRaw(ctx, TripsKey, string(b))
}

func (s *Store) LoadTrip(ctx context.Context, name string) (domain.Trip, error) {
	doc, err := s.readTrips(ctx)
	if err != nil {
		return domain.Trip{}, err
	}
	raw, ok := doc[name]
	if !ok || name == lastTripField {
		return domain.Trip{}, domain.ErrNotFound
	}
	var t domain.Trip
	if err := json.Unmarshal(raw, &t); err != nil {
		log.Warn().Err(err).Str("trip", name).Msg("corrupted trip record, treating as missing")
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

func (s *Store) SaveTrip(ctx context.Context, name string, t domain.Trip) error {
	if name == lastTripField {
		return domain.ErrReservedName
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readTrips(ctx)
	if err != nil {
		return err
	}
	doc[name] = b
	return s.writeTrips(ctx, doc)
}

func (s *Store) ListTrips(ctx context.Context) ([]string, error) {
	doc, err := s.readTrips(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc))
	for k := range doc {
		if k != lastTripField {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) LastTrip(ctx context.Context) (string, error) {
	doc, err := s.readTrips(ctx)
	if err != nil {
		return "", err
	}
	var name string
	if raw, ok := doc[lastTripField]; ok {
		_ = json.Unmarshal(raw, &name)
	}
	return name, nil
}

func (s *Store) SetLastTrip(ctx context.Context, name string) error {
	if name == lastTripField {
		return domain.ErrReservedName
	}
	b, _ := json.Marshal(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readTrips(ctx)
	if err != nil {
		return err
	}
	doc[lastTripField] = b
	return s.writeTrips(ctx, doc)
}

// ---- coordinate cache document ----

func (s *Store) readCoords(ctx context.Context) (map[string]domain.Coord, error) {
	raw, ok, err := s.kv.GetRaw(ctx, CoordsKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CoordsKey, err)
	}
	doc := map[string]domain.Coord{}
	if !ok || raw == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
		log.Warn().Err(err).Str("key", CoordsKey).Msg("corrupted coordinate cache, starting empty")
		return map[string]domain.Coord{}, nil
	}
	return doc, nil
}

func (s *Store) writeCoords(ctx context.Context, doc map[string]domain.Coord) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.kv.SetRaw(ctx, CoordsKey, string(b))
}

func (s *Store) LookupCoord(ctx context.Context, key string) (*domain.Coord, error) {
	doc, err := s.readCoords(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := doc[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// StoreCoord keeps the first stored value for a key.
func (s *Store) StoreCoord(ctx context.Context, key string, c domain.Coord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readCoords(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc[key]; exists {
		return nil
	}
	doc[key] = c
	return s.writeCoords(ctx, doc)
}

func (s *Store) DeleteCoord(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readCoords(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc[key]; !exists {
		return nil
	}
	delete(doc, key)
	return s.writeCoords(ctx, doc)
}
