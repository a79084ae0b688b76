// Package storage selects the persistence backend named by STORE_BACKEND.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	redisad "routegen/internal/adapters/redis"
	"routegen/internal/domain"
	"routegen/internal/shared"
	"routegen/internal/storage/blob"
	mysqlrepo "routegen/internal/storage/mysql"
	"routegen/internal/storage/sqlite"
)

// Backend bundles the stores the services need. Cache is nil when no
// Redis is reachable.
type Backend struct {
	Trips  domain.TripRepository
	Coords domain.CoordStore
	Cache  domain.Cache

	closers []func() error
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Warn().Err(err).Msg("backend close failed")
		}
	}
}

const pingTimeout = 3 * time.Second

func Open(ctx context.Context, cfg shared.Config) (*Backend, error) {
	b := &Backend{}
	switch cfg.StoreBackend {
	case "memory":
		s := blob.New(blob.NewMemoryKV())
		b.Trips, b.Coords = s, s
		b.Cache = optionalRedis(ctx, cfg, b)

	case "redis":
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := rc.Ping(pctx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		s := blob.New(rc)
		b.Trips, b.Coords, b.Cache = s, s, rc
		b.closers = append(b.closers, rc.Close)

	case "sqlite":
		kv, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s := blob.New(kv)
		b.Trips, b.Coords = s, s
		b.closers = append(b.closers, kv.Close)
		b.Cache = optionalRedis(ctx, cfg, b)

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("sql.Open: %w", err)
		}
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		repo := mysqlrepo.New(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		b.Trips, b.Coords = repo, repo
		b.closers = append(b.closers, db.Close)
		b.Cache = optionalRedis(ctx, cfg, b)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	log.Info().Str("backend", cfg.StoreBackend).Bool("cache", b.Cache != nil).Msg("storage ready")
	return b, nil
}

// optionalRedis returns a suggestion cache when Redis answers a ping.
func optionalRedis(ctx context.Context, cfg shared.Config, b *Backend) domain.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rc.Ping(pctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, suggestions uncached")
		_ = rc.Close()
		return nil
	}
	b.closers = append(b.closers, rc.Close)
	return rc
}
