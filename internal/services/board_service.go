package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/store"
)

var ErrCardExists = errors.New("card already exists")

// PendingSave tracks a background board write.
type PendingSave struct {
	done chan struct{}
	err  error
}

func newPendingSave() *PendingSave {
	return &PendingSave{done: make(chan struct{})}
}

// Done is closed once the write finished.
func (p *PendingSave) Done() <-chan struct{} { return p.done }

// Err returns the write outcome. It is only meaningful after Done is closed.
func (p *PendingSave) Err() error { return p.err }

// Wait blocks until the write finished or ctx is done. The write itself is
// not cancelled by ctx.
func (p *PendingSave) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BoardService owns the in-memory board. Moves are applied to memory first
// and persisted in the background; writes reach the store in issue order.
// A failed write is reported through PendingSave and is neither retried nor
// rolled back.
type BoardService struct {
	store  store.BoardStore
	rows   store.CardRows
	logger *log.Logger
	events *log.Events
	now    func() time.Time

	mu       sync.Mutex
	board    core.Board
	loaded   bool
	lastSave *PendingSave
}

func NewBoardService(s store.BoardStore, logger *log.Logger) *BoardService {
	if logger == nil {
		logger = log.Discard()
	}
	rows, _ := store.CardRowsOf(s)
	return &BoardService{
		store:  s,
		rows:   rows,
		logger: logger.WithComponent(log.ComponentBoard),
		events: log.NewEvents(logger.WithComponent(log.ComponentBoard)),
		now:    time.Now,
	}
}

// Board returns a copy of the current board, loading it on first use.
func (s *BoardService) Board(ctx context.Context) (core.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return s.board.Clone(), nil
}

// Move applies a drop event. On rejection the current board is returned with
// the reason and nothing is written. On success the new board is already
// visible to other callers when Move returns; the returned PendingSave
// reports the outcome of persisting it.
func (s *BoardService) Move(ctx context.Context, ev core.DropEvent) (core.Board, *PendingSave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, nil, err
	}

	next, err := core.Reorder(s.board, ev)
	if err != nil {
		s.logger.DebugContext(ctx, "Drop rejected", log.FieldCardID, ev.CardID, log.FieldError, err)
		return s.board.Clone(), nil, err
	}
	s.board = next
	pending := s.saveLocked(ctx, nil)

	_, at, _ := next.Find(ev.CardID)
	s.events.CardMoved(ctx, ev.CardID, string(ev.Source.Lane), string(at.Lane), at.Index)
	return next.Clone(), pending, nil
}

// AddCard appends c to its lane (To Do when unset) and waits for the write.
func (s *BoardService) AddCard(ctx context.Context, c core.Card) (core.Card, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Status == "" {
		c.Status = core.LaneToDo
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsEmpty() {
		t := s.now().UTC()
		c.CreatedAt = core.NewDate(t.Year(), int(t.Month()), t.Day())
	}
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}

	pending, err := s.mutate(ctx, func(b core.Board) error {
		if _, _, exists := b.Find(c.ID); exists {
			return fmt.Errorf("card %s: %w", c.ID, ErrCardExists)
		}
		b[c.Status] = append(b[c.Status], c)
		return nil
	}, func(ctx context.Context, rows store.CardRows) error {
		return rows.InsertCard(ctx, c)
	})
	if err != nil {
		return core.Card{}, err
	}
	return c, pending.Wait(ctx)
}

// UpdateCard replaces the display fields of an existing card. Lane and
// position are kept; use Move to change them.
func (s *BoardService) UpdateCard(ctx context.Context, c core.Card) (core.Card, error) {
	var updated core.Card
	pending, err := s.mutate(ctx, func(b core.Board) error {
		current, pos, ok := b.Find(c.ID)
		if !ok {
			return fmt.Errorf("card %s: %w", c.ID, store.ErrNotFound)
		}
		current.Name = strings.TrimSpace(c.Name)
		current.Assignee = c.Assignee
		current.Description = c.Description
		current.StartDate = c.StartDate
		current.DueDate = c.DueDate
		if err := current.Validate(); err != nil {
			return err
		}
		b[pos.Lane][pos.Index] = current
		updated = current
		return nil
	}, func(ctx context.Context, rows store.CardRows) error {
		return rows.UpdateCard(ctx, updated)
	})
	if err != nil {
		return core.Card{}, err
	}
	return updated, pending.Wait(ctx)
}

// DeleteCard removes a card by id.
func (s *BoardService) DeleteCard(ctx context.Context, id string) error {
	pending, err := s.mutate(ctx, func(b core.Board) error {
		_, pos, ok := b.Find(id)
		if !ok {
			return fmt.Errorf("card %s: %w", id, store.ErrNotFound)
		}
		b[pos.Lane] = append(b[pos.Lane][:pos.Index:pos.Index], b[pos.Lane][pos.Index+1:]...)
		return nil
	}, func(ctx context.Context, rows store.CardRows) error {
		return rows.DeleteCard(ctx, id)
	})
	if err != nil {
		return err
	}
	return pending.Wait(ctx)
}

// Reload waits for pending writes, drops any cached read and loads the
// board again from the store.
func (s *BoardService) Reload(ctx context.Context) (core.Board, error) {
	if err := s.Flush(ctx); err != nil {
		s.logger.WarnContext(ctx, "Last board write failed before reload", log.FieldError, err)
	}
	if inv, ok := s.store.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return s.board.Clone(), nil
}

// LastSaveError reports the error of the most recent write once it has
// finished. A later successful write clears it: the write after a failure
// always stores the whole board.
func (s *BoardService) LastSaveError() error {
	s.mu.Lock()
	last := s.lastSave
	s.mu.Unlock()
	if last == nil {
		return nil
	}
	select {
	case <-last.done:
		return last.err
	default:
		return nil
	}
}

// Flush waits for the most recent write and returns its error.
func (s *BoardService) Flush(ctx context.Context) error {
	s.mu.Lock()
	last := s.lastSave
	s.mu.Unlock()
	if last == nil {
		return nil
	}
	return last.Wait(ctx)
}

// rowWrite persists a single-card change through the store's row writer.
type rowWrite func(ctx context.Context, rows store.CardRows) error

func (s *BoardService) mutate(ctx context.Context, fn func(core.Board) error, row rowWrite) (*PendingSave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	next := s.board.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.board = next
	return s.saveLocked(ctx, row), nil
}

func (s *BoardService) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	b, err := s.store.LoadBoard(ctx)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	if b == nil {
		b = core.NewBoard()
	}
	s.board = b.Clone()
	s.loaded = true
	s.logger.DebugContext(ctx, "Board loaded", log.FieldCardCount, b.Count())
	return nil
}

// saveLocked snapshots the board and writes it after the previous write
// completed. When row is set, the store writes rows and the previous write
// succeeded, only the changed card is written; a row the store does not have
// falls back to writing the whole board.
func (s *BoardService) saveLocked(ctx context.Context, row rowWrite) *PendingSave {
	snapshot := s.board.Clone()
	prev := s.lastSave
	p := newPendingSave()
	s.lastSave = p

	writeCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(p.done)
		if prev != nil {
			<-prev.done
		}
		if row != nil && s.rows != nil && (prev == nil || prev.err == nil) {
			err := row(writeCtx, s.rows)
			if err == nil {
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				p.err = err
				s.logger.ErrorContext(writeCtx, "Card write failed", log.FieldError, err)
				return
			}
			s.logger.WarnContext(writeCtx, "Card row missing, writing whole board", log.FieldError, err)
		}
		if err := s.store.SaveBoard(writeCtx, snapshot); err != nil {
			p.err = err
			s.logger.ErrorContext(writeCtx, "Board write failed", log.FieldError, err, log.FieldCardCount, snapshot.Count())
		}
	}()
	return p
}
