package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/store"
)

var ErrInvalidRange = errors.New("end date before start date")

// EventPublisher announces ledger changes to downstream consumers.
type EventPublisher interface {
	PublishEntryRecorded(ctx context.Context, e core.LedgerEntry) error
	PublishEntryDeleted(ctx context.Context, id string) error
	Close() error
}

// LedgerService records entries and builds statements. Events are published
// after the store accepted the change; publish failures are logged only.
type LedgerService struct {
	ledger    store.Ledger
	taxonomy  store.TaxonomyReader
	publisher EventPublisher
	logger    *log.Logger
	events    *log.Events
}

// NewLedgerService wires the service. taxonomy and publisher may be nil.
func NewLedgerService(ledger store.Ledger, taxonomy store.TaxonomyReader, publisher EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		ledger:    ledger,
		taxonomy:  taxonomy,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		events:    log.NewEvents(logger.WithComponent(log.ComponentLedger)),
	}
}

// Record validates and stores e, returning it with its assigned id.
func (s *LedgerService) Record(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	id, err := s.ledger.AppendEntry(ctx, e)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("save entry: %w", err)
	}
	e.ID = id
	s.events.EntryRecorded(ctx, e.ID, string(e.Type), e.Category, e.Amount.Cents)

	if s.publisher != nil {
		if err := s.publisher.PublishEntryRecorded(ctx, e); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish entry event", log.FieldEntryID, e.ID, log.FieldError, err)
		}
	}
	return e, nil
}

// Delete removes an entry by id.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.ledger.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger entry deleted", log.FieldEntryID, id)

	if s.publisher != nil {
		if err := s.publisher.PublishEntryDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish delete event", log.FieldEntryID, id, log.FieldError, err)
		}
	}
	return nil
}

// Entries returns the entries dated within [start, end] ordered by date,
// then id.
func (s *LedgerService) Entries(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	if end.Before(start.Time) {
		return nil, ErrInvalidRange
	}
	out, err := s.between(ctx, start, end)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Statement aggregates the ledger over [start, end].
func (s *LedgerService) Statement(ctx context.Context, start, end core.Date) (core.Statement, error) {
	if end.Before(start.Time) {
		return core.Statement{}, ErrInvalidRange
	}
	inRange, err := s.between(ctx, start, end)
	if err != nil {
		return core.Statement{}, err
	}
	st := core.Aggregate(inRange, start, end)
	if st.Skipped > 0 {
		s.logger.WarnContext(ctx, "Entries with unknown type left out of statement", "skipped", st.Skipped)
	}
	return st, nil
}

// CashFlow computes monthly flows over [start, end].
func (s *LedgerService) CashFlow(ctx context.Context, start, end core.Date) (core.CashFlowStatement, error) {
	if end.Before(start.Time) {
		return core.CashFlowStatement{}, ErrInvalidRange
	}
	all, err := s.ledger.ListEntries(ctx)
	if err != nil {
		return core.CashFlowStatement{}, fmt.Errorf("list entries: %w", err)
	}
	return core.CashFlow(all, start, end), nil
}

// between reads the entries dated within [start, end], letting the store
// filter when it can.
func (s *LedgerService) between(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	if rl, ok := s.ledger.(store.RangeLister); ok {
		entries, err := rl.ListEntriesBetween(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		return entries, nil
	}
	all, err := s.ledger.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]core.LedgerEntry, 0, len(all))
	for _, e := range all {
		if e.Date.Within(start, end) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Categories lists known income and expense categories.
func (s *LedgerService) Categories(ctx context.Context) ([]string, []string, error) {
	if s.taxonomy == nil {
		all, err := s.ledger.ListEntries(ctx)
		if err != nil {
			return nil, nil, err
		}
		income, expense := store.Distinct(all)
		return income, expense, nil
	}
	return s.taxonomy.Categories(ctx)
}

// Close releases the publisher.
func (s *LedgerService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
