package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/store"
)

// fakeBoardStore records every saved board. When gate is set each SaveBoard
// blocks until a value is received from it.
type fakeBoardStore struct {
	mu      sync.Mutex
	board   core.Board
	saves   []core.Board
	loads   int
	loadErr error
	saveErr error
	gate    chan struct{}
}

func (f *fakeBoardStore) LoadBoard(context.Context) (core.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.board == nil {
		return core.NewBoard(), nil
	}
	return f.board.Clone(), nil
}

func (f *fakeBoardStore) SaveBoard(_ context.Context, b core.Board) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, b.Clone())
	if f.saveErr != nil {
		return f.saveErr
	}
	f.board = b.Clone()
	return nil
}

func (f *fakeBoardStore) saved() []core.Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Board(nil), f.saves...)
}

func farmBoard() core.Board {
	b := core.NewBoard()
	b[core.LaneToDo] = []core.Card{
		{ID: "t1", Status: core.LaneToDo, Name: "Seed barley"},
		{ID: "t2", Status: core.LaneToDo, Name: "Mend fence"},
	}
	b[core.LaneInProgress] = []core.Card{
		{ID: "p1", Status: core.LaneInProgress, Name: "Barn roof"},
	}
	return b
}

func move(id string, from core.Lane, fromIdx int, to core.Lane, toIdx int) core.DropEvent {
	return core.DropEvent{
		CardID:      id,
		Source:      core.Position{Lane: from, Index: fromIdx},
		Destination: &core.Position{Lane: to, Index: toIdx},
	}
}

func laneIDs(cards []core.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestBoardService_MoveVisibleBeforeWrite(t *testing.T) {
	fs := &fakeBoardStore{board: farmBoard(), gate: make(chan struct{})}
	svc := NewBoardService(fs, nil)
	ctx := context.Background()

	b, pending, err := svc.Move(ctx, move("t1", core.LaneToDo, 0, core.LaneInProgress, 0))
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, []string{"t1", "p1"}, laneIDs(b[core.LaneInProgress]))

	// The write is still blocked but readers already see the move.
	current, err := svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "p1"}, laneIDs(current[core.LaneInProgress]))
	assert.Equal(t, core.LaneInProgress, current[core.LaneInProgress][0].Status)

	select {
	case <-pending.Done():
		t.Fatal("write finished before it was released")
	default:
	}

	fs.gate <- struct{}{}
	require.NoError(t, pending.Wait(ctx))
	require.Len(t, fs.saved(), 1)
	assert.Equal(t, []string{"t2"}, laneIDs(fs.saved()[0][core.LaneToDo]))
}

func TestBoardService_WritesInIssueOrder(t *testing.T) {
	fs := &fakeBoardStore{board: farmBoard(), gate: make(chan struct{})}
	svc := NewBoardService(fs, nil)
	ctx := context.Background()

	_, first, err := svc.Move(ctx, move("t1", core.LaneToDo, 0, core.LaneDone, 0))
	require.NoError(t, err)
	_, second, err := svc.Move(ctx, move("t2", core.LaneToDo, 0, core.LaneDone, 1))
	require.NoError(t, err)

	go func() {
		for i := 0; i < 2; i++ {
			fs.gate <- struct{}{}
		}
	}()
	require.NoError(t, second.Wait(ctx))
	require.NoError(t, first.Err())

	saves := fs.saved()
	require.Len(t, saves, 2)
	assert.Equal(t, []string{"t1"}, laneIDs(saves[0][core.LaneDone]))
	assert.Equal(t, []string{"t1", "t2"}, laneIDs(saves[1][core.LaneDone]))
}

func TestBoardService_WriteFailureSurfaced(t *testing.T) {
	boom := errors.New("disk full")
	fs := &fakeBoardStore{board: farmBoard(), saveErr: boom}
	svc := NewBoardService(fs, nil)
	ctx := context.Background()

	_, pending, err := svc.Move(ctx, move("p1", core.LaneInProgress, 0, core.LaneDone, 0))
	require.NoError(t, err)
	assert.ErrorIs(t, pending.Wait(ctx), boom)
	assert.ErrorIs(t, svc.Flush(ctx), boom)
	assert.ErrorIs(t, svc.LastSaveError(), boom)

	// Memory keeps the optimistic state.
	b, err := svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, laneIDs(b[core.LaneDone]))
}

func TestBoardService_LastSaveErrorClearsAfterGoodWrite(t *testing.T) {
	fs := &fakeBoardStore{board: farmBoard(), saveErr: errors.New("disk full")}
	svc := NewBoardService(fs, nil)
	ctx := context.Background()
	assert.NoError(t, svc.LastSaveError())

	_, pending, err := svc.Move(ctx, move("t1", core.LaneToDo, 0, core.LaneDone, 0))
	require.NoError(t, err)
	require.Error(t, pending.Wait(ctx))
	require.Error(t, svc.LastSaveError())

	fs.mu.Lock()
	fs.saveErr = nil
	fs.mu.Unlock()
	_, pending, err = svc.Move(ctx, move("t2", core.LaneToDo, 0, core.LaneDone, 1))
	require.NoError(t, err)
	require.NoError(t, pending.Wait(ctx))
	assert.NoError(t, svc.LastSaveError())
	assert.Equal(t, []string{"t1", "t2"}, laneIDs(fs.board[core.LaneDone]))
}

func TestBoardService_MoveLogsLandingPosition(t *testing.T) {
	var buf bytes.Buffer
	svc := NewBoardService(&fakeBoardStore{board: farmBoard()}, log.NewText(&buf, slog.LevelInfo, log.ComponentApp))
	ctx := context.Background()

	_, pending, err := svc.Move(ctx, move("t1", core.LaneToDo, 0, core.LaneInProgress, 40))
	require.NoError(t, err)
	require.NoError(t, pending.Wait(ctx))

	out := buf.String()
	assert.Contains(t, out, `msg="Card moved"`)
	assert.Contains(t, out, "index=1", "clamped to the end of In Progress")
	assert.NotContains(t, out, "index=40")
	assert.Contains(t, out, "component=board")
}

func TestBoardService_RejectedDropWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		ev   core.DropEvent
		want error
	}{
		{"cancelled", core.DropEvent{CardID: "t1", Source: core.Position{Lane: core.LaneToDo}}, core.ErrDropCancelled},
		{"unknown lane", move("t1", core.LaneToDo, 0, core.Lane("Archive"), 0), core.ErrUnknownLane},
		{"bad index", move("t1", core.LaneToDo, 7, core.LaneDone, 0), core.ErrSourceIndex},
		{"stale card", move("t2", core.LaneToDo, 0, core.LaneDone, 0), core.ErrCardMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeBoardStore{board: farmBoard()}
			svc := NewBoardService(fs, nil)

			b, pending, err := svc.Move(context.Background(), tt.ev)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, pending)
			assert.Equal(t, []string{"t1", "t2"}, laneIDs(b[core.LaneToDo]))
			assert.Empty(t, fs.saved())
		})
	}
}

func TestBoardService_LoadError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewBoardService(&fakeBoardStore{loadErr: boom}, nil)

	_, err := svc.Board(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestBoardService_AddUpdateDeleteCard(t *testing.T) {
	fs := &fakeBoardStore{board: farmBoard()}
	svc := NewBoardService(fs, nil)
	svc.now = func() time.Time { return time.Date(2024, 4, 2, 15, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	c, err := svc.AddCard(ctx, core.Card{Name: "  Shear sheep "})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, core.LaneToDo, c.Status)
	assert.Equal(t, "Shear sheep", c.Name)
	assert.Equal(t, "2024-04-02", c.CreatedAt.String())

	b, err := svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", c.ID}, laneIDs(b[core.LaneToDo]))

	c.Name = "Shear ewes"
	c.Assignee = "Ada"
	c.Status = core.LaneDone
	updated, err := svc.UpdateCard(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "Shear ewes", updated.Name)
	assert.Equal(t, core.LaneToDo, updated.Status, "update must not move the card")

	require.NoError(t, svc.DeleteCard(ctx, "t1"))
	b, err = svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", c.ID}, laneIDs(b[core.LaneToDo]))

	err = svc.DeleteCard(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.AddCard(ctx, core.Card{Name: " "})
	assert.ErrorIs(t, err, core.ErrEmptyName)

	_, err = svc.AddCard(ctx, core.Card{ID: "t2", Name: "dup"})
	assert.ErrorIs(t, err, ErrCardExists)

	saves := fs.saved()
	require.Len(t, saves, 3)
	assert.Equal(t, "Ada", saves[1][core.LaneToDo][2].Assignee)
}

func TestBoardService_ReloadReadsStore(t *testing.T) {
	fs := &fakeBoardStore{board: farmBoard()}
	svc := NewBoardService(fs, nil)
	ctx := context.Background()

	_, err := svc.Board(ctx)
	require.NoError(t, err)

	fs.mu.Lock()
	fs.board = core.NewBoard()
	fs.mu.Unlock()

	b, err := svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Count(), "board is served from memory")

	b, err = svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Count())
	assert.Equal(t, 2, fs.loads)
}

func TestBoardService_ReturnedBoardIsACopy(t *testing.T) {
	svc := NewBoardService(&fakeBoardStore{board: farmBoard()}, nil)
	ctx := context.Background()

	b, err := svc.Board(ctx)
	require.NoError(t, err)
	b[core.LaneToDo][0].Name = "mutated"

	again, err := svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Seed barley", again[core.LaneToDo][0].Name)
}

// rowBoardStore also writes single cards. Row writes go to rows, whole-board
// writes to the embedded fake.
type rowBoardStore struct {
	fakeBoardStore
	rowErr error
	rows   []string
}

func (f *rowBoardStore) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, op)
	return f.rowErr
}

func (f *rowBoardStore) InsertCard(_ context.Context, c core.Card) error {
	return f.record("insert " + c.ID)
}

func (f *rowBoardStore) UpdateCard(_ context.Context, c core.Card) error {
	return f.record("update " + c.ID)
}

func (f *rowBoardStore) DeleteCard(_ context.Context, id string) error {
	return f.record("delete " + id)
}

func (f *rowBoardStore) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rows...)
}

func TestBoardService_CardEditsWriteRows(t *testing.T) {
	fs := &rowBoardStore{fakeBoardStore: fakeBoardStore{board: farmBoard()}}
	svc := NewBoardService(fs, nil)
	ctx := context.Background()

	_, err := svc.AddCard(ctx, core.Card{ID: "n1", Name: "Prune orchard"})
	require.NoError(t, err)
	_, err = svc.UpdateCard(ctx, core.Card{ID: "t1", Name: "Seed winter barley"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCard(ctx, "t2"))

	assert.Equal(t, []string{"insert n1", "update t1", "delete t2"}, fs.recorded())
	assert.Empty(t, fs.saved(), "row writes must not rewrite the board")

	// Moves still store the whole board.
	_, pending, err := svc.Move(ctx, move("n1", core.LaneToDo, 1, core.LaneDone, 0))
	require.NoError(t, err)
	require.NoError(t, pending.Wait(ctx))
	assert.Len(t, fs.saved(), 1)
}

func TestBoardService_RowWriteAfterFailedSaveStoresBoard(t *testing.T) {
	boom := errors.New("disk full")
	fs := &rowBoardStore{fakeBoardStore: fakeBoardStore{board: farmBoard(), saveErr: boom}}
	svc := NewBoardService(fs, nil)
	ctx := context.Background()

	_, pending, err := svc.Move(ctx, move("t1", core.LaneToDo, 0, core.LaneDone, 0))
	require.NoError(t, err)
	require.ErrorIs(t, pending.Wait(ctx), boom)

	fs.mu.Lock()
	fs.saveErr = nil
	fs.mu.Unlock()

	_, err = svc.UpdateCard(ctx, core.Card{ID: "t2", Name: "Mend north fence"})
	require.NoError(t, err)

	assert.Empty(t, fs.recorded(), "the lost move must be stored with the edit")
	saves := fs.saved()
	require.Len(t, saves, 2)
	assert.Equal(t, []string{"t1"}, laneIDs(saves[1][core.LaneDone]))
	assert.NoError(t, svc.LastSaveError())
}

func TestBoardService_MissingRowFallsBackToBoard(t *testing.T) {
	fs := &rowBoardStore{fakeBoardStore: fakeBoardStore{board: farmBoard()}, rowErr: store.ErrNotFound}
	svc := NewBoardService(fs, nil)
	ctx := context.Background()

	_, err := svc.UpdateCard(ctx, core.Card{ID: "p1", Name: "Barn roof, east side"})
	require.NoError(t, err)

	assert.Equal(t, []string{"update p1"}, fs.recorded())
	saves := fs.saved()
	require.Len(t, saves, 1)
	assert.Equal(t, "Barn roof, east side", saves[0][core.LaneInProgress][0].Name)
}

func TestBoardService_RowWriteFailureSurfaced(t *testing.T) {
	boom := errors.New("locked")
	fs := &rowBoardStore{fakeBoardStore: fakeBoardStore{board: farmBoard()}, rowErr: boom}
	svc := NewBoardService(fs, nil)

	err := svc.DeleteCard(context.Background(), "t1")
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.LastSaveError(), boom)
	assert.Empty(t, fs.saved())
}
