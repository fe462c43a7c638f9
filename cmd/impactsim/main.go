package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/meteor-impact-service/internal/adapter/analysis"
	httpadapter "github.com/couchcryptid/meteor-impact-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/meteor-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/meteor-impact-service/internal/adapter/mapbox"
	"github.com/couchcryptid/meteor-impact-service/internal/adapter/neows"
	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/couchcryptid/meteor-impact-service/internal/report"
	"github.com/couchcryptid/meteor-impact-service/internal/simulation"
	"github.com/couchcryptid/meteor-impact-service/internal/timeline"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingEnabled, os.Stderr, logger)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	neo := neows.NewClient(cfg.NASAAPIKey, cfg.NASABaseURL, cfg.NASATimeout, metrics, logger)
	asteroids := neows.NewCachedProvider(neo, cfg.NASACacheSize, metrics)

	// Optional geocoder (MAPBOX_ENABLED + MAPBOX_TOKEN) names bare coordinates.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		mb := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxBaseURL, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(mb, cfg.MapboxCacheSize)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize)
	}

	// Narrative provider (ANALYSIS_PROVIDER + key). Without one every report uses the fallback.
	provider := analysis.FromConfig(cfg)
	if provider != nil {
		logger.Info("narrative analysis enabled", "provider", provider.Name(), "timeout", cfg.AnalysisTimeout)
	} else {
		logger.Info("narrative analysis disabled, using fallback reports")
	}
	synth := report.NewSynthesizer(provider, logger, metrics)

	var (
		publisher simulation.ReportPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg)
		publisher = writer
		logger.Info("report events enabled", "topic", cfg.KafkaReportTopic, "brokers", cfg.KafkaBrokers)
	}

	tl := timeline.New(clockwork.NewRealClock(), logger, metrics)
	sim := simulation.New(tl, synth, publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, sim, asteroids, geocoder, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	sim.Close()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	observability.ShutdownTracing(shutdownCtx, shutdownTracing, logger)

	logger.Info("shutdown complete")
}
