package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "routegen/internal/adapters/http_server"
	"routegen/internal/adapters/nominatim"
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

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	observability.Serve(cfg.MetricsAddr)

	// storage
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	defer backend.Close()

	// upstream clients
	opts := func(service, lang string) upstream.Options {
		return upstream.Options{
			Service:   service,
			UserAgent: cfg.UserAgent,
			Language:  lang,
			RPS:       cfg.UpstreamRPS,
			Timeout:   cfg.UpstreamTimeoutDuration(),
		}
	}
	nomUp, err := upstream.New(cfg.NominatimBase, opts("nominatim", cfg.Language))
	if err != nil {
		log.Fatal().Err(err).Msg("nominatim client init failed")
	}
	geoUp, err := upstream.New(cfg.GeocodingBase, opts("open-meteo-geocoding", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("geocoding client init failed")
	}
	wxUp, err := upstream.New(cfg.ForecastBase, opts("open-meteo-forecast", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("forecast client init failed")
	}

	// services
	geo := app.NewCachedGeocoder(backend.Coords, openmeteo.NewGeocoder(geoUp, cfg.Language), cfg.CoordTTL())
	h := &server.Handlers{
		Trips:   app.NewTripService(backend.Trips),
		Suggest: app.NewSuggestService(nominatim.New(nomUp), backend.Cache, cfg.Language, cfg.CacheTTL()),
		Weather: app.NewWeatherService(geo, openmeteo.NewForecast(wxUp, cfg.Timezone), cfg.WeatherMaxStops, cfg.WeatherWorkers),
		Geo:     geo,
		Routes:  app.NewRouteFormatter(cfg.MapsBase),
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.StoreBackend).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
