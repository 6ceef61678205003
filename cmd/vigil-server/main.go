package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/banksecure/vigil/internal/alert"
	"github.com/banksecure/vigil/internal/api"
	"github.com/banksecure/vigil/internal/chread"
	"github.com/banksecure/vigil/internal/config"
	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/engine/layers"
	"github.com/banksecure/vigil/internal/profile"
	"github.com/banksecure/vigil/internal/storage"
	"github.com/banksecure/vigil/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := mustBuildLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting vigil server",
		zap.String("addr", cfg.Addr),
		zap.Int("layer_timeout_ms", cfg.LayerTimeoutMS),
		zap.Float64("allow_below", cfg.AllowBelow),
		zap.Float64("deny_at", cfg.DenyAt),
	)

	// Postgres pool — tenants and profiles; in-memory fallback for dev.
	var (
		tenants  store.TenantStore
		profiles profile.FreezeStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		tenants = store.NewStore(db)
		profiles = profile.NewPostgresStore(db)
		logger.Info("postgres connected")
	} else {
		tenants = store.NewMemoryStore()
		profiles = profile.NewMemoryStore()
		logger.Info("no postgres_dsn set, using in-memory stores")
	}

	// Signal layers — wired here to avoid import cycles.
	sessions := layers.NewSessionRegistry(time.Duration(cfg.SIMCloneWindowMS) * time.Millisecond)
	var feed layers.ThreatFeed
	if len(cfg.PhishingBlocklist) > 0 {
		feed = layers.NewStaticThreatFeed(cfg.PhishingBlocklist)
	}
	patterns := layers.NewMemoryPatternStore()

	layerSet := []engine.Layer{
		layers.NewBehavioralLayer(cfg.BaselineMinSamples),
		layers.NewSimIntelligenceLayer(sessions),
		layers.NewDeviceFingerprintLayer(),
		layers.NewGeoVelocityLayer(cfg.GeoCeilingKMH),
		layers.NewBotActivityLayer(),
		layers.NewPhishingContextLayer(feed),
		layers.NewConfirmedFraudLayer(patterns),
	}

	eng := engine.NewRiskEngine(layerSet,
		time.Duration(cfg.LayerTimeoutMS)*time.Millisecond, profiles, logger)

	aggCfg := engine.AggregatorConfig{
		AllowBelow:        cfg.AllowBelow,
		DenyAt:            cfg.DenyAt,
		ContributingFloor: cfg.ContributingFloor,
	}
	pipeline := engine.NewPipeline(eng, aggCfg, profiles, logger)

	updater := profile.NewUpdater(profiles, profile.Bounds{
		GeoTrailLen:        cfg.GeoTrailLen,
		MaxDevices:         cfg.MaxDevices,
		MaxSIMHistory:      cfg.MaxSIMHistory,
		BaselineMinSamples: cfg.BaselineMinSamples,
	}, logger)

	// Storage — ClickHouse or LogWriter fallback
	var writer storage.DecisionWriter
	if cfg.ClickHouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no clickhouse_dsn set, using log writer")
	}
	defer writer.Close()

	// ClickHouse reader (for decisions/analytics HTTP endpoints)
	var chReader *chread.Reader
	if cfg.ClickHouseDSN != "" {
		var err error
		chReader, err = chread.NewReader(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
		} else {
			defer func() { _ = chReader.Close() }()
			logger.Info("clickhouse reader connected")
		}
	}

	// Alert dispatch
	dispatcher := alert.NewDispatcher(alert.NewLogNotifier(logger), alert.Config{
		QueueSize:   cfg.AlertQueueSize,
		MaxAttempts: cfg.AlertMaxAttempts,
		BaseDelay:   time.Duration(cfg.AlertBaseDelayMS) * time.Millisecond,
		SendTimeout: time.Duration(cfg.AlertSendTimeoutS) * time.Second,
	}, logger)
	defer dispatcher.Close()

	deps := &api.Dependencies{
		Tenants:  tenants,
		Pipeline: pipeline,
		Updater:  updater,
		Freezes:  profiles,
		Writer:   writer,
		Alerts:   dispatcher,
		Reader:   chReader,
		AggCfg:   aggCfg,
		Logger:   logger,
		CacheTTL: time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
	}
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("vigil server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
