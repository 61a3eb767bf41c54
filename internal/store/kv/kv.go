// Package kv persists the board, ledger and planting log as JSON documents in a plain
// key-value store, one document per key.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/store"
)

// KV is the minimal contract of a key-value backend. Get returns
// store.ErrNotFound for keys that were never written.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store keeps the board under store.KeyProjects, the ledger under
// store.KeyTransactions and plantings under store.KeyPlantings. Every write
// replaces the whole document.
type Store struct {
	kv     KV
	logger *log.Logger
	// ledgerMu serialises read-modify-write cycles on the ledger document.
	ledgerMu sync.Mutex
	// plantingsMu does the same for the planting log.
	plantingsMu sync.Mutex
}

var (
	_ store.BoardStore     = (*Store)(nil)
	_ store.Ledger         = (*Store)(nil)
	_ store.TaxonomyReader = (*Store)(nil)
	_ store.PlantingStore  = (*Store)(nil)
)

func New(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{kv: kv, logger: logger.WithComponent(log.ComponentStorage)}
}

// LoadBoard returns an empty board when nothing was saved yet or the stored
// document is corrupt. Backend failures are returned.
func (s *Store) LoadBoard(ctx context.Context) (core.Board, error) {
	data, err := s.get(ctx, store.KeyProjects)
	if err != nil {
		return nil, err
	}
	return store.DecodeBoard(data, s.logger), nil
}

func (s *Store) SaveBoard(ctx context.Context, b core.Board) error {
	data, err := store.EncodeBoard(b)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyProjects, data); err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	data, err := s.get(ctx, store.KeyTransactions)
	if err != nil {
		return nil, err
	}
	return store.DecodeEntries(data, s.logger), nil
}

func (s *Store) AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	entries, err := s.ListEntries(ctx)
	if err != nil {
		return "", err
	}
	for _, existing := range entries {
		if existing.ID == e.ID {
			return "", fmt.Errorf("entry %s already exists", e.ID)
		}
	}
	if err := s.putEntries(ctx, append(entries, e)); err != nil {
		return "", err
	}
	return e.ID, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	entries, err := s.ListEntries(ctx)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.ID == id {
			return s.putEntries(ctx, append(entries[:i:i], entries[i+1:]...))
		}
	}
	return fmt.Errorf("entry %s: %w", id, store.ErrNotFound)
}

func (s *Store) Categories(ctx context.Context) ([]string, []string, error) {
	entries, err := s.ListEntries(ctx)
	if err != nil {
		return nil, nil, err
	}
	income, expense := store.Distinct(entries)
	return income, expense, nil
}

// ListPlantings skips a corrupt document the same way the ledger does.
func (s *Store) ListPlantings(ctx context.Context) ([]core.Planting, error) {
	data, err := s.get(ctx, store.KeyPlantings)
	if err != nil || len(data) == 0 {
		return nil, err
	}
	var ps []core.Planting
	if err := json.Unmarshal(data, &ps); err != nil {
		s.logger.Warn("Ignoring corrupt planting log", log.FieldError, err)
		return nil, nil
	}
	return ps, nil
}

func (s *Store) AddPlanting(ctx context.Context, p core.Planting) (string, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.plantingsMu.Lock()
	defer s.plantingsMu.Unlock()

	ps, err := s.ListPlantings(ctx)
	if err != nil {
		return "", err
	}
	for _, existing := range ps {
		if existing.ID == p.ID {
			return "", fmt.Errorf("planting %s already exists", p.ID)
		}
	}
	if err := s.putPlantings(ctx, append(ps, p)); err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *Store) DeletePlanting(ctx context.Context, id string) error {
	s.plantingsMu.Lock()
	defer s.plantingsMu.Unlock()

	ps, err := s.ListPlantings(ctx)
	if err != nil {
		return err
	}
	for i, p := range ps {
		if p.ID == id {
			return s.putPlantings(ctx, append(ps[:i:i], ps[i+1:]...))
		}
	}
	return fmt.Errorf("planting %s: %w", id, store.ErrNotFound)
}

func (s *Store) putPlantings(ctx context.Context, ps []core.Planting) error {
	data, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("encode plantings: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyPlantings, data); err != nil {
		return fmt.Errorf("save plantings: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) putEntries(ctx context.Context, entries []core.LedgerEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyTransactions, data); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}
