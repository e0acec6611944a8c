// Command expenses-worker keeps the xlsx snapshot and the optional Google
// Sheets mirror in step with the store.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/app"
	"expenses/internal/cli"
	"expenses/internal/export"
	"expenses/internal/log"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting expenses-worker", log.FieldOperation, log.OpStartup)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	st, closeStore, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer closeStore()

	state := app.New(st, app.WithLogger(logger))

	sinks := []export.Sink{export.FileSink{Path: cfg.ExportPath, Location: state.Location()}}
	if cfg.GoogleSpreadsheetID != "" {
		mirror, err := export.NewSheetsMirror(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName,
			cfg.GoogleServiceAccountFile, state.Location())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets mirror", log.FieldError, err.Error())
			os.Exit(1)
		}
		sinks = append(sinks, mirror)
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewExportWorker(state, logger, sinks...)

	// Startup snapshot so the file exists before the first change arrives.
	if err := w.Refresh(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err.Error())
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer client.Close()

		go func() {
			if err := client.ConsumeChanges(ctx, w.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
			}
		}()
	} else {
		logger.Info("AMQP disabled, relying on periodic refresh", "interval", cfg.SyncInterval.String())
	}

	w.Run(ctx, cfg.SyncInterval)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
