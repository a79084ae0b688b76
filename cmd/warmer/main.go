package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"routegen/internal/adapters/observability"
	"routegen/internal/adapters/openmeteo"
	"routegen/internal/adapters/upstream"
	"routegen/internal/app"
	"routegen/internal/shared"
	"routegen/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("base", cfg.GeocodingBase).
		Str("backend", cfg.StoreBackend).
		Int("workers", cfg.WarmWorkers).
		Msg("warmer starting")

	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	defer backend.Close()

	up, err := upstream.New(cfg.GeocodingBase, upstream.Options{
		Service:   "open-meteo-geocoding",
		UserAgent: cfg.UserAgent,
		RPS:       cfg.UpstreamRPS,
		Timeout:   cfg.UpstreamTimeoutDuration(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize geocoding client")
	}
	geo := app.NewCachedGeocoder(backend.Coords, openmeteo.NewGeocoder(up, cfg.Language), cfg.CoordTTL())

	rep, err := app.NewWarmService(backend.Trips, geo).Warm(ctx, cfg.WarmWorkers)
	if err != nil {
		log.Error().Err(err).Msg("warming aborted")
		return
	}
	log.Info().
		Int("trips", rep.Trips).
		Int("places", rep.Places).
		Int("resolved", rep.Resolved).
		Int("unknown", rep.Unknown).
		Int("failed", rep.Failed).
		Msg("warming completed")
}
