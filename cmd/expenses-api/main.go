// Command expenses-api serves the expense REST surface over a local store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	gin.SetMode(gin.ReleaseMode)

	if cfg.DataBackend != config.BackendLocal {
		logger.Error("The API must own its data: DATA_BACKEND must be local",
			log.FieldBackend, cfg.DataBackend,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	st, closeStore, err := cli.OpenStore(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err.Error(), log.FieldKVDriver, cfg.KVDriver)
		os.Exit(1)
	}

	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithAllowedOrigins(cfg.CORSAllowedOrigins...),
		apphttp.WithRateLimit(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
	}
	events := cli.ConnectEvents(cfg, logger)
	if events != nil {
		opts = append(opts, apphttp.WithObserver(amqp.NewObserver(events, logger)))
	}

	srv := apphttp.NewServer(":"+cfg.Port, st, opts...)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if events != nil {
			_ = events.Close()
		}
		if err := closeStore(); err != nil {
			logger.Error("Store close error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting expenses API",
		"port", cfg.Port,
		log.FieldKVDriver, cfg.KVDriver,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
