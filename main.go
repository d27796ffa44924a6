package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/config"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/geocode"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/httpserver"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/metrics"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/properties"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	holder := catalog.NewHolder(loadCatalog(cfg.Catalog.File))

	geo, closeGeo, err := newGeocoder(cfg.Geocode)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open geocode cache")
	}
	defer closeGeo()

	svc := properties.NewService(holder, geo)
	srv := httpserver.New(holder, svc, httpserver.Options{
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reloadOnHangup(ctx, cfg.Catalog.File, holder)

	log.Info().Str("port", cfg.Port).Bool("geocoding", cfg.Geocode.APIKey != "").Msg("starting deal-detective server")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		closeGeo()
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func setupLogging(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// loadCatalog loads the catalog file, falling back to the embedded sample.
func loadCatalog(path string) *catalog.Catalog {
	c, rep := catalog.Load(path)
	metrics.CatalogProperties.Set(float64(c.Len()))
	if rep.Fallback {
		metrics.CatalogReloads.WithLabelValues("fallback").Inc()
	} else {
		metrics.CatalogReloads.WithLabelValues("ok").Inc()
	}
	return c
}

// newGeocoder builds the Google geocoder behind a coordinate cache.
// With GEOCODE_CACHE_DB set, the in-memory cache is backed by SQLite.
func newGeocoder(cfg config.Geocode) (geocode.Geocoder, func(), error) {
	google := geocode.NewGoogle(geocode.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if !google.Enabled() {
		return google, func() {}, nil
	}

	mem := store.NewMemory(cfg.CacheTTL)
	if cfg.CacheDB == "" {
		return geocode.NewCached(google, mem), func() {}, nil
	}

	db, err := store.OpenSQLite(cfg.CacheDB, cfg.CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", cfg.CacheDB).Msg("persistent geocode cache enabled")
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("closing geocode cache")
		}
	}
	return geocode.NewCached(google, store.NewTiered(mem, db)), closeFn, nil
}

// reloadOnHangup swaps in a freshly loaded catalog on SIGHUP.
// A reload that would fall back to the embedded sample keeps the current catalog.
func reloadOnHangup(ctx context.Context, path string, holder *catalog.Holder) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			c, rep := catalog.Load(path)
			if rep.Fallback {
				metrics.CatalogReloads.WithLabelValues("fallback").Inc()
				log.Warn().Err(rep.Cause).Msg("catalog reload failed, keeping current catalog")
				continue
			}
			holder.Swap(c)
			metrics.CatalogReloads.WithLabelValues("ok").Inc()
			metrics.CatalogProperties.Set(float64(c.Len()))
			log.Info().Int("properties", c.Len()).Str("version", c.Version()).Msg("catalog reloaded")
		}
	}
}
