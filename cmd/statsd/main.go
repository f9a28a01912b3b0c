package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/covid-stats-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/covid-stats-service/internal/adapter/kafka"
	"github.com/couchcryptid/covid-stats-service/internal/adapter/mapbox"
	"github.com/couchcryptid/covid-stats-service/internal/adapter/odata"
	"github.com/couchcryptid/covid-stats-service/internal/config"
	"github.com/couchcryptid/covid-stats-service/internal/domain"
	"github.com/couchcryptid/covid-stats-service/internal/observability"
	"github.com/couchcryptid/covid-stats-service/internal/pipeline"
	"github.com/couchcryptid/covid-stats-service/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	source := odata.NewClient(odata.Options{
		BaseURL:     cfg.SourceBaseURL,
		Timeout:     cfg.SourceTimeout,
		TLSInsecure: cfg.SourceTLSInsecure,
	}, metrics, logger)
	if cfg.SourceTLSInsecure {
		logger.Warn("tls verification disabled for source", "base_url", cfg.SourceBaseURL)
	}

	store := snapshot.NewStore()
	opts := []pipeline.Option{pipeline.WithRefreshInterval(cfg.RefreshInterval)}

	// Geometry backfill (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		opts = append(opts, pipeline.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)))
		logger.Info("mapbox geometry backfill enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geometry backfill disabled")
	}

	// Snapshot sink (feature-flagged via KAFKA_ENABLED).
	var writer *kafkaadapter.SnapshotWriter
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewSnapshotWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("kafka snapshot sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSnapshotTopic)
	} else {
		logger.Info("kafka snapshot sink disabled")
	}

	p := pipeline.New(source, domain.NewAggregator(cfg.GeometryMode), store, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, httpadapter.API{
		Snapshots: store,
		Refresher: p,
		Limiter:   rate.NewLimiter(rate.Limit(cfg.RefreshRateLimit), cfg.RefreshBurst),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start fetch loop.
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	// The writer is closed only after the last in-flight cycle has published.
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
