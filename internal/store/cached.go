package store

import (
	"context"

	"farmstead/internal/cache"
	"farmstead/internal/core"
)

const (
	boardCacheKey  = "board"
	ledgerCacheKey = "ledger"
)

// CachedBoards serves LoadBoard through a read-through cache and evicts the
// cached board after every successful save.
type CachedBoards struct {
	base BoardStore
	rt   *cache.ReadThrough[core.Board]
}

func NewCachedBoards(base BoardStore, c cache.Cache[core.Board]) *CachedBoards {
	if base == nil {
		panic("store.NewCachedBoards: base store is nil")
	}
	return &CachedBoards{base: base, rt: cache.NewReadThrough(c)}
}

func (s *CachedBoards) LoadBoard(ctx context.Context) (core.Board, error) {
	b, err := s.rt.Get(ctx, boardCacheKey, s.base.LoadBoard)
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

func (s *CachedBoards) SaveBoard(ctx context.Context, b core.Board) error {
	if err := s.base.SaveBoard(ctx, b); err != nil {
		return err
	}
	s.rt.Invalidate(boardCacheKey)
	return nil
}

// Invalidate forces the next LoadBoard to hit the backing store.
func (s *CachedBoards) Invalidate() {
	s.rt.Invalidate(boardCacheKey)
}

// Rows exposes the base store's row writer, evicting the cached board after
// each successful write.
func (s *CachedBoards) Rows() (CardRows, bool) {
	rows, ok := s.base.(CardRows)
	if !ok {
		return nil, false
	}
	return evictingRows{rows: rows, evict: s.Invalidate}, true
}

type evictingRows struct {
	rows  CardRows
	evict func()
}

func (e evictingRows) InsertCard(ctx context.Context, c core.Card) error {
	return e.after(e.rows.InsertCard(ctx, c))
}

func (e evictingRows) UpdateCard(ctx context.Context, c core.Card) error {
	return e.after(e.rows.UpdateCard(ctx, c))
}

func (e evictingRows) DeleteCard(ctx context.Context, id string) error {
	return e.after(e.rows.DeleteCard(ctx, id))
}

func (e evictingRows) after(err error) error {
	if err == nil {
		e.evict()
	}
	return err
}

// CachedLedger serves ListEntries through a read-through cache and evicts
// the cached list after every successful write.
type CachedLedger struct {
	base Ledger
	rt   *cache.ReadThrough[[]core.LedgerEntry]
}

func NewCachedLedger(base Ledger, c cache.Cache[[]core.LedgerEntry]) *CachedLedger {
	if base == nil {
		panic("store.NewCachedLedger: base ledger is nil")
	}
	return &CachedLedger{base: base, rt: cache.NewReadThrough(c)}
}

func (s *CachedLedger) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	entries, err := s.rt.Get(ctx, ledgerCacheKey, s.base.ListEntries)
	if err != nil {
		return nil, err
	}
	return append([]core.LedgerEntry(nil), entries...), nil
}

// ListEntriesBetween queries the base store directly when it can filter by
// date, and filters the cached ledger otherwise.
func (s *CachedLedger) ListEntriesBetween(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	if rl, ok := s.base.(RangeLister); ok {
		return rl.ListEntriesBetween(ctx, start, end)
	}
	all, err := s.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.LedgerEntry, 0, len(all))
	for _, e := range all {
		if e.Date.Within(start, end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *CachedLedger) AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	id, err := s.base.AppendEntry(ctx, e)
	if err != nil {
		return "", err
	}
	s.rt.Invalidate(ledgerCacheKey)
	return id, nil
}

func (s *CachedLedger) DeleteEntry(ctx context.Context, id string) error {
	if err := s.base.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.rt.Invalidate(ledgerCacheKey)
	return nil
}

// Invalidate forces the next ListEntries to hit the backing store.
func (s *CachedLedger) Invalidate() {
	s.rt.Invalidate(ledgerCacheKey)
}
