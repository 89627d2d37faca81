package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/floodplan-service/internal/adapter/echarts"
	httpadapter "github.com/couchcryptid/floodplan-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/floodplan-service/internal/adapter/kafka"
	"github.com/couchcryptid/floodplan-service/internal/adapter/mapbox"
	"github.com/couchcryptid/floodplan-service/internal/adapter/openmeteo"
	redisadapter "github.com/couchcryptid/floodplan-service/internal/adapter/redis"
	"github.com/couchcryptid/floodplan-service/internal/adapter/usgs"
	"github.com/couchcryptid/floodplan-service/internal/catalog"
	"github.com/couchcryptid/floodplan-service/internal/config"
	"github.com/couchcryptid/floodplan-service/internal/dashboard"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"github.com/couchcryptid/floodplan-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	seeds, err := catalog.LoadAll(cfg.Dashboards)
	if err != nil {
		logger.Error("failed to load dashboard seeds", "error", err)
		os.Exit(1)
	}

	// Geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	opts := []dashboard.Option{
		dashboard.WithClock(clock),
		dashboard.WithRandom(domain.NewRandomSource(cfg.RNGSeed)),
		dashboard.WithLogger(logger),
		dashboard.WithMetrics(metrics),
		dashboard.WithGeocoder(geocoder),
	}
	if cfg.LiveDataEnabled {
		weather := openmeteo.NewClient(cfg.OpenMeteoURL, cfg.ProviderTimeout, cfg.ProviderRateLimit, metrics, logger)
		flow := usgs.NewClient(cfg.USGSURL, cfg.ProviderTimeout, cfg.ProviderRateLimit, metrics, logger)
		opts = append(opts, dashboard.WithLiveProviders(weather, flow))
		logger.Info("live data providers enabled", "open_meteo", cfg.OpenMeteoURL, "usgs", cfg.USGSURL)
	}

	dashboards := make([]*dashboard.Dashboard, 0, len(seeds))
	for _, seed := range seeds {
		d, err := dashboard.New(seed, opts...)
		if err != nil {
			logger.Error("failed to build dashboard", "dashboard", seed.ID, "error", err)
			os.Exit(1)
		}
		dashboards = append(dashboards, d)
	}

	var (
		loader   pipeline.Loader
		checkers []sharedobs.ReadinessChecker
		closeFn  = func() error { return nil }
	)
	switch cfg.SnapshotSink {
	case config.SinkKafka:
		w := kafkaadapter.NewWriter(cfg, logger)
		loader, closeFn = w, w.Close
	case config.SinkRedis:
		s := redisadapter.NewStore(cfg, logger)
		loader, closeFn = s, s.Close
		checkers = append(checkers, s)
	}
	logger.Info("snapshot sink configured", "sink", cfg.SnapshotSink)

	var pipelines []*pipeline.Pipeline
	if cfg.JitterEnabled {
		for _, d := range dashboards {
			interval := d.Interval()
			if cfg.JitterInterval > 0 {
				interval = cfg.JitterInterval
			}
			p := pipeline.New(d, loader, interval, clock, logger, metrics)
			pipelines = append(pipelines, p)
			checkers = append(checkers, p)
		}
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, dashboards, echarts.NewRenderer(logger, metrics),
		httpadapter.AllReady(checkers...), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	for _, p := range pipelines {
		if err := p.Start(ctx); err != nil {
			logger.Error("pipeline start error", "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, p := range pipelines {
		p.Stop()
	}
	for _, d := range dashboards {
		d.Close()
	}
	if err := closeFn(); err != nil {
		logger.Error("snapshot sink close error", "sink", cfg.SnapshotSink, "error", err)
	}

	logger.Info("shutdown complete")
}
