// Package main is the entry point for the herdbook tag API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herdbook/internal/config"
	coretagging "herdbook/internal/core/tagging"
	"herdbook/internal/domain/auth"
	"herdbook/internal/domain/scanpayload"
	"herdbook/internal/domain/tagging"
	v1 "herdbook/internal/infrastructure/http/v1"
	"herdbook/internal/infrastructure/http/v1/handlers"
	"herdbook/internal/infrastructure/metrics"
	"herdbook/internal/infrastructure/numerator"
	"herdbook/internal/infrastructure/storage/postgres"
	"herdbook/internal/infrastructure/storage/sqlite"
	"herdbook/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// backend is the storage the server runs on.
type backend struct {
	store  coretagging.Store
	writer coretagging.SettingsWriter
	ready  handlers.ReadinessChecker
	close  func()
}

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config:\n%v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting herdbook server", "version", version, "store", cfg.Store)

	// --- Storage ---
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open store", "error", err)
	}
	defer be.close()

	// --- Tag engine ---
	promObserver := metrics.NewPrometheusObserver("herdbook")
	generator := tagging.NewGenerator(be.store, tagging.WithObserver(tagging.MultiObserver{
		tagging.LogObserver{Logger: log.WithComponent("tagging")},
		promObserver,
	}))

	codec, err := scanpayload.NewCodec(nil)
	if err != nil {
		log.Fatalw("failed to create payload codec", "error", err)
	}

	// --- JWT Service ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		JWTValidator:   jwtService,
		Generator:      generator,
		Settings:       be.store,
		SettingsWriter: be.writer,
		Codec:          codec,
		Readiness:      be.ready,
		Metrics:        promObserver.Handler(),
		Version:        version,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// openBackend connects the configured store and applies its schema.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Infow("sqlite store opened", "path", store.Path())
		return &backend{
			store:  store,
			writer: store,
			ready:  store,
			close:  func() { _ = store.Close() },
		}, nil

	default:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		poolCfg.MaxConns = cfg.DBMaxConns

		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("database connection established")

		opts, err := cfg.CounterOptions()
		if err != nil {
			pool.Close()
			return nil, err
		}

		txm := postgres.NewTxManager(pool)
		counter := numerator.New(postgres.ContextQuerier{Manager: txm}, opts)
		store := postgres.NewTagStore(txm, counter)
		log.Infow("tag counter configured", "strategy", opts.Strategy.String(), "range_size", opts.RangeSize)

		return &backend{
			store:  store,
			writer: store,
			ready:  pool,
			close: func() {
				pool.LogStats(ctx)
				pool.Close()
			},
		}, nil
	}
}
