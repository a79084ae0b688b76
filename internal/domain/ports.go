package domain

import "context"

type TripRepository interface {
	// LoadTrip returns ErrNotFound when no record exists under name.
	LoadTrip(ctx context.Context, name string) (Trip, error)
	SaveTrip(ctx context.Context, name string, t Trip) error
	ListTrips(ctx context.Context) ([]string, error)

	LastTrip(ctx context.Context) (string, error)
	SetLastTrip(ctx context.Context, name string) error
}

// CoordStore keys are already normalized with CoordKey.
type CoordStore interface {
	LookupCoord(ctx context.Context, key string) (*Coord, error)
	StoreCoord(ctx context.Context, key string, c Coord) error
	DeleteCoord(ctx context.Context, key string) error
}

// KV is a flat string store holding whole serialized documents.
// Get reports ok=false for a missing key.
type KV interface {
	GetRaw(ctx context.Context, key string) (string, bool, error)
	SetRaw(ctx context.Context, key, value string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Suggester interface {
	Suggest(ctx context.Context, q string, limit int) ([]string, error)
}

// Geocoder returns nil, nil when the place is unknown.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (*Coord, error)
}

type WeatherClient interface {
	Current(ctx context.Context, lat, lon float64) (Conditions, error)
}
