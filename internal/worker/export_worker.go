// Package worker mirrors ledger events into an external export target.
package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"farmstead/internal/amqp"
	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/store"
)

// Exporter is the write side of an export target such as a spreadsheet.
type Exporter interface {
	store.LedgerWriter
	store.LedgerDeleter
	store.LedgerLister
}

// ExportWorker applies ledger events to an Exporter. Calls are throttled to
// stay under the target's write quota.
type ExportWorker struct {
	exporter Exporter
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewExportWorker creates a worker. A nil limiter disables throttling.
func NewExportWorker(exporter Exporter, limiter *rate.Limiter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &ExportWorker{
		exporter: exporter,
		limiter:  limiter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one event. It matches amqp.Handler; a returned error
// requeues the message, so permanent failures are logged and swallowed.
func (w *ExportWorker) Handle(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger event", "event", msg.Event, log.FieldEntryID, msg.EntryID)

	switch msg.Event {
	case amqp.EventEntryRecorded:
		e, err := msg.LedgerEntry()
		if err != nil {
			w.logger.ErrorContext(ctx, "Dropping event with invalid entry", log.FieldEntryID, msg.EntryID, log.FieldError, err)
			return nil
		}
		return w.export(ctx, e)

	case amqp.EventEntryDeleted:
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		err := w.exporter.DeleteEntry(ctx, msg.EntryID)
		if errors.Is(err, store.ErrNotFound) {
			w.logger.WarnContext(ctx, "Deleted entry was never exported", log.FieldEntryID, msg.EntryID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete exported entry: %w", err)
		}
		return nil

	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event", "event", msg.Event)
		return nil
	}
}

func (w *ExportWorker) export(ctx context.Context, e core.LedgerEntry) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := w.exporter.AppendEntry(ctx, e); err != nil {
		return fmt.Errorf("export entry: %w", err)
	}
	return nil
}

// Reconcile exports every entry of source that the target is missing. It
// recovers from events lost while the worker was down. Entries removed from
// source are not pruned from the target.
func (w *ExportWorker) Reconcile(ctx context.Context, source store.LedgerLister) (int, error) {
	want, err := source.ListEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list source entries: %w", err)
	}
	have, err := w.exporter.ListEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list exported entries: %w", err)
	}
	exported := make(map[string]struct{}, len(have))
	for _, e := range have {
		exported[e.ID] = struct{}{}
	}

	synced, failed := 0, 0
	for _, e := range want {
		if _, ok := exported[e.ID]; ok {
			continue
		}
		if err := w.export(ctx, e); err != nil {
			if ctx.Err() != nil {
				return synced, ctx.Err()
			}
			w.logger.ErrorContext(ctx, "Failed to export entry during reconcile", log.FieldEntryID, e.ID, log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Reconcile completed",
		"total", len(want),
		"synced", synced,
		"errors", failed)
	return synced, nil
}
