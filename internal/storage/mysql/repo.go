package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"routegen/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Migrate applies schema.sql one statement at a time.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *Repo) SaveTrip(ctx context.Context, name string, t domain.Trip) error {
	stops := t.Stops
	if stops == nil {
		stops = []string{}
	}
	pack := t.Pack
	if pack == nil {
		pack = []domain.PackItem{}
	}
	sb, _ := json.Marshal(stops)
	pb, _ := json.Marshal(pack)
	_, err := r.db.ExecContext(ctx, upsertTripSQL, name, t.FreeText, string(sb), string(pb), t.SavedAt.UTC())
	return err
}

func (r *Repo) LoadTrip(ctx context.Context, name string) (domain.Trip, error) {
	var (
		t           domain.Trip
		stops, pack []byte
	)
	err := r.db.QueryRowContext(ctx, getTripSQL, name).Scan(&t.FreeText, &stops, &pack, &t.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Trip{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Trip{}, err
	}
	if len(stops) > 0 {
		if err := json.Unmarshal(stops, &t.Stops); err != nil {
			return domain.Trip{}, fmt.Errorf("decode stops of %q: %w", name, err)
		}
	}
	if len(pack) > 0 {
		if err := json.Unmarshal(pack, &t.Pack); err != nil {
			return domain.Trip{}, fmt.Errorf("decode pack of %q: %w", name, err)
		}
	}
	return t, nil
}

func (r *Repo) ListTrips(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listTripsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repo) LastTrip(ctx context.Context) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, getMetaSQL, lastTripKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (r *Repo) SetLastTrip(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, upsertMetaSQL, lastTripKey, name)
	return err
}

func (r *Repo) LookupCoord(ctx context.Context, key string) (*domain.Coord, error) {
	var (
		c               domain.Coord
		country, admin1 sql.NullString
	)
	err := r.db.QueryRowContext(ctx, getCoordSQL, key).
		Scan(&c.Name, &country, &admin1, &c.Lat, &c.Lon, &c.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Country = country.String
	c.Admin1 = admin1.String
	return &c, nil
}

func (r *Repo) StoreCoord(ctx context.Context, key string, c domain.Coord) error {
	_, err := r.db.ExecContext(ctx, insertCoordSQL,
		key, c.Name, valStr(c.Country), valStr(c.Admin1), c.Lat, c.Lon, c.StoredAt.UTC())
	return err
}

func (r *Repo) DeleteCoord(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, deleteCoordSQL, key)
	return err
}
