// Package worker keeps the spreadsheet export in step with expense changes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// MonthExporter rewrites the export of one month.
type MonthExporter interface {
	ExportMonth(ctx context.Context, monthKey string) error
}

// ExportWorker re-exports the months touched by expense events and
// periodically refreshes the current month to recover from missed events.
type ExportWorker struct {
	exporter MonthExporter
	interval time.Duration
	now      func() time.Time

	// mu serialises exports so two writers never interleave on one tab.
	mu sync.Mutex
}

// NewExportWorker returns a worker. An interval of zero disables the
// periodic reconciliation.
func NewExportWorker(exporter MonthExporter, interval time.Duration) *ExportWorker {
	return &ExportWorker{
		exporter: exporter,
		interval: interval,
		now:      time.Now,
	}
}

// HandleEvent exports every month the event touches. A returned error makes
// the consumer requeue the message.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		log.FieldComponent, log.ComponentWorker,
		log.FieldEventType, string(ev.Type),
		log.FieldUserID, ev.UserID,
		log.FieldExpenseID, ev.ExpenseID,
		log.FieldMonthKey, ev.MonthKey)

	var errs []error
	for _, month := range ev.Months() {
		if err := w.export(ctx, month); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExportCurrentMonth exports the current UTC month.
func (w *ExportWorker) ExportCurrentMonth(ctx context.Context) error {
	return w.export(ctx, w.now().UTC().Format(core.MonthLayout))
}

// RunReconcile exports the current month at startup and then on every tick
// until ctx is cancelled. Failures are logged and retried on the next tick.
func (w *ExportWorker) RunReconcile(ctx context.Context) error {
	if err := w.ExportCurrentMonth(ctx); err != nil && ctx.Err() == nil {
		slog.WarnContext(ctx, "Startup export failed",
			log.FieldComponent, log.ComponentWorker, log.FieldError, err)
	}
	if w.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	slog.InfoContext(ctx, "Export reconciliation started",
		log.FieldComponent, log.ComponentWorker, "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Export reconciliation stopped", log.FieldComponent, log.ComponentWorker)
			return nil
		case <-ticker.C:
			if err := w.ExportCurrentMonth(ctx); err != nil && ctx.Err() == nil {
				slog.WarnContext(ctx, "Periodic export failed",
					log.FieldComponent, log.ComponentWorker, log.FieldError, err)
			}
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, month string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	if err := w.exporter.ExportMonth(ctx, month); err != nil {
		slog.ErrorContext(ctx, "Month export failed",
			log.FieldComponent, log.ComponentWorker,
			log.FieldMonthKey, month,
			log.FieldError, err)
		return fmt.Errorf("export %s: %w", month, err)
	}
	slog.DebugContext(ctx, "Month exported",
		log.FieldComponent, log.ComponentWorker,
		log.FieldMonthKey, month,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
