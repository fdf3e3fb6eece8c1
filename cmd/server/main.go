// server runs the pairing coordination HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nexty-pairing-service/internal/config"
	connectionrepo "nexty-pairing-service/internal/connection/repository"
	"nexty-pairing-service/internal/db"
	healthhandler "nexty-pairing-service/internal/health/handler"
	"nexty-pairing-service/internal/paircode"
	paircoderepo "nexty-pairing-service/internal/paircode/repository"
	pairingservice "nexty-pairing-service/internal/pairing/service"
	"nexty-pairing-service/internal/server"
	sessionrepo "nexty-pairing-service/internal/session/repository"
	"nexty-pairing-service/internal/telemetry/otel"
)

// shutdownTimeout bounds graceful HTTP drain and telemetry flush.
const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "nexty-pairing-service", cfg.OTLPInsecure)
	if err != nil {
		logger.Fatal("telemetry setup", zap.Error(err))
	}
	providers.SetGlobal()

	var (
		sessions pairingservice.SessionRepo
		codes    interface {
			pairingservice.CodeRepo
			paircode.ExpiredDeleter
		}
		conns  pairingservice.ConnectionRepo
		pinger healthhandler.Pinger
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database open", zap.Error(err))
		}
		defer conn.Close()
		sessions = sessionrepo.NewPostgresRepository(conn)
		codes = paircoderepo.NewPostgresRepository(conn)
		conns = connectionrepo.NewPostgresRepository(conn)
		pinger = conn
		logger.Info("using postgres stores")
	} else {
		sessions = sessionrepo.NewMemoryRepository()
		codes = paircoderepo.NewMemoryRepository()
		conns = connectionrepo.NewMemoryRepository()
		logger.Info("DATABASE_URL not set; using in-memory stores")
	}

	svc := pairingservice.New(
		sessions, codes, conns,
		cfg.CodeTTL(), cfg.PairCodeLength, cfg.PairCodeMaxAttempts,
		logger,
	)

	router := server.NewRouter(server.Deps{
		Logger:       logger,
		Pairing:      svc,
		HealthPinger: pinger,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if interval := cfg.SweepInterval(); interval > 0 {
		sweeper := paircode.NewSweeper(codes, interval, logger)
		go sweeper.Run(sweepCtx)
		logger.Info("expired code sweeper running", zap.Duration("interval", interval))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down HTTP server...")
	stopSweep()
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")
}

// newLogger builds the zap logger from APP_ENV and LOG_LEVEL.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	var zcfg zap.Config
	if cfg.Env == "development" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
