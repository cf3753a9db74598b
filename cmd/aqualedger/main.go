package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"aqualedger/internal/cache"
	"aqualedger/internal/cli"
	apphttp "aqualedger/internal/http"
	applog "aqualedger/internal/log"
	"aqualedger/internal/services"
	"aqualedger/internal/session"
	"aqualedger/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backend := cli.OpenBackend(context.Background(), logger, cfg)

	storeLogger := logger.WithComponent(applog.ComponentStorage)
	st := store.New(backend.Store,
		store.WithLogger(storeLogger.Slog()),
		store.WithFailureReporter(func(ctx context.Context, key string, err error) {
			storeLogger.ErrorContext(ctx, "Ledger not saved", "storage_key", key, "error", err)
		}),
	)

	opts := []services.Option{services.WithLogger(logger.WithComponent(applog.ComponentLedger).Slog())}
	if backend.Publisher != nil {
		opts = append(opts, services.WithPublisher(backend.Publisher))
	}
	svc := services.NewLedgerService(st, opts...)

	sessions := session.NewManager(backend.Store,
		session.WithLogger(logger.WithComponent(applog.ComponentSession).Slog()),
		session.WithCache(cache.NewLRUCache[session.Session](cfg.SessionCacheSize, cfg.SessionTTL)),
	)

	janitor := cache.NewJanitor(logger.WithComponent(applog.ComponentSession).Slog())
	janitor.Register(sessions.Cache())
	janitor.Start(cfg.SessionTTL)

	srv := apphttp.NewServer(":"+cfg.Port, svc, sessions, apphttp.Options{
		WeekStart:        cfg.Weekday(),
		OverdueAfterDays: cfg.OverdueAfterDays,
		Logger:           logger,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		janitor.Stop()
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting aqualedger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", backend.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
