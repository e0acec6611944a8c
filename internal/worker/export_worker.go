package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/app"
	"expenses/internal/export"
	"expenses/internal/log"
)

// ExportWorker keeps spreadsheet snapshots in step with the store. Every
// change message triggers a full reload and rewrite of each sink.
type ExportWorker struct {
	state  *app.State
	sinks  []export.Sink
	logger *log.Logger

	mu       sync.Mutex
	lastSync time.Time
}

func NewExportWorker(state *app.State, logger *log.Logger, sinks ...export.Sink) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		state:  state,
		sinks:  sinks,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange processes a single change message from AMQP. An error makes
// the consumer requeue the message.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		log.FieldEvent, msg.Type,
		"id", msg.ID)

	// A refresh that started after the change already covers it.
	w.mu.Lock()
	covered := !msg.Timestamp.IsZero() && w.lastSync.After(msg.Timestamp)
	w.mu.Unlock()
	if covered {
		w.logger.DebugContext(ctx, "Change already exported", "id", msg.ID)
		return nil
	}
	return w.Refresh(ctx)
}

// Refresh reloads the collection and rewrites every sink. Sink failures are
// joined so one broken sink does not starve the others.
func (w *ExportWorker) Refresh(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := time.Now()
	if err := w.state.Load(ctx); err != nil {
		return fmt.Errorf("reload state: %w", err)
	}
	expenses := w.state.Expenses()

	var errs []error
	for _, s := range w.sinks {
		if err := s.Sync(ctx, expenses); err != nil {
			w.logger.ErrorContext(ctx, "Export failed",
				"sink", s.Name(),
				log.FieldError, err.Error(),
				log.FieldOperation, log.OpExport)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		w.logger.InfoContext(ctx, "Export written",
			"sink", s.Name(),
			log.FieldCount, len(expenses))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	w.lastSync = started
	return nil
}

// Run refreshes every interval until ctx is done, as a safety net for
// messages lost while the worker was down.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", log.FieldError, err.Error())
			}
		}
	}
}
