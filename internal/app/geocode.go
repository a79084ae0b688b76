package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"routegen/internal/adapters/observability"
	"routegen/internal/domain"
)

// CachedGeocoder resolves place names through the coordinate cache and
// falls back to the upstream geocoder on a miss. Unknown places are not
// cached. Concurrent misses for one key share a single upstream call.
type CachedGeocoder struct {
	store    domain.CoordStore
	upstream domain.Geocoder
	ttl      time.Duration
	now      func() time.Time
	sf       singleflight.Group

	callTimeout time.Duration
}

// DefaultGeocodeTimeout bounds one shared upstream lookup.
const DefaultGeocodeTimeout = 30 * time.Second

// NewCachedGeocoder keeps entries forever when ttl is 0.
func NewCachedGeocoder(s domain.CoordStore, g domain.Geocoder, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{store: s, upstream: g, ttl: ttl, now: time.Now, callTimeout: DefaultGeocodeTimeout}
}

func (g *CachedGeocoder) WithClock(now func() time.Time) *CachedGeocoder {
	g.now = now
	return g
}

func (g *CachedGeocoder) Geocode(ctx context.Context, name string) (*domain.Coord, error) {
	key := domain.CoordKey(name)
	if key == "" {
		return nil, nil
	}

	c, err := g.store.LookupCoord(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("coord cache read failed")
	}
	if c != nil {
		if !g.expired(*c) {
			observability.ObserveCache("coords", "hit")
			return c, nil
		}
		observability.ObserveCache("coords", "expired")
		if err := g.store.DeleteCoord(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("drop expired coord failed")
		}
	} else {
		observability.ObserveCache("coords", "miss")
	}

	// The shared call outlives any single caller; each caller still
	// honors its own ctx while waiting.
	ch := g.sf.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.callTimeout)
		defer cancel()
		got, err := g.upstream.Geocode(sctx, name)
		if err != nil || got == nil {
			return got, err
		}
		got.StoredAt = g.now().UTC()
		if err := g.store.StoreCoord(sctx, key, *got); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("coord cache write failed")
		}
		return got, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("geocode %q: %w", name, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("geocode %q: %w", name, res.Err)
	}
	out, _ := res.Val.(*domain.Coord)
	if out == nil {
		return nil, nil
	}
	cp := *out
	return &cp, nil
}

// Invalidate drops the cached entry for name.
func (g *CachedGeocoder) Invalidate(ctx context.Context, name string) error {
	key := domain.CoordKey(name)
	if key == "" {
		return nil
	}
	return g.store.DeleteCoord(ctx, key)
}

// Entries without a timestamp predate expiry and never expire.
func (g *CachedGeocoder) expired(c domain.Coord) bool {
	if g.ttl <= 0 || c.StoredAt.IsZero() {
		return false
	}
	return g.now().Sub(c.StoredAt) > g.ttl
}
