package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmstead/internal/core"
	"farmstead/internal/store"
)

type backendCase struct {
	name string
	kv   func(t *testing.T) (KV, func(key, raw string))
}

func backends() []backendCase {
	return []backendCase{
		{"file", func(t *testing.T) (KV, func(string, string)) {
			dir := t.TempDir()
			f, err := NewFileKV(dir)
			require.NoError(t, err)
			return f, func(key, raw string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, key+".json"), []byte(raw), 0o644))
			}
		}},
		{"redis", func(t *testing.T) (KV, func(string, string)) {
			mr, err := miniredis.Run()
			require.NoError(t, err)
			t.Cleanup(mr.Close)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewRedisKV(client, "farm:"), func(key, raw string) {
				require.NoError(t, mr.Set("farm:"+key, raw))
			}
		}},
	}
}

func sampleBoard() core.Board {
	b := core.NewBoard()
	b[core.LaneToDo] = []core.Card{
		{ID: "a", Status: core.LaneToDo, Name: "Plant beans", Assignee: "Sam", StartDate: core.NewDate(2024, 4, 1)},
		{ID: "b", Status: core.LaneToDo, Name: "Fix gate"},
	}
	b[core.LaneDone] = []core.Card{
		{ID: "c", Status: core.LaneDone, Name: "Order seed", DueDate: core.NewDate(2024, 3, 15)},
	}
	return b
}

func TestStoreBoard(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			kv, raw := bc.kv(t)
			s := New(kv, nil)

			empty, err := s.LoadBoard(ctx)
			require.NoError(t, err)
			assert.Equal(t, core.NewBoard(), empty)

			require.NoError(t, s.SaveBoard(ctx, sampleBoard()))
			got, err := s.LoadBoard(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleBoard(), got)

			// Last write wins, no merge.
			next := core.NewBoard()
			next[core.LaneInProgress] = []core.Card{{ID: "z", Status: core.LaneInProgress, Name: "Only"}}
			require.NoError(t, s.SaveBoard(ctx, next))
			got, err = s.LoadBoard(ctx)
			require.NoError(t, err)
			assert.Equal(t, next, got)

			raw(store.KeyProjects, "{definitely not json")
			got, err = s.LoadBoard(ctx)
			require.NoError(t, err)
			assert.Equal(t, core.NewBoard(), got)
		})
	}
}

func TestStoreBoardRehomesUnknownStatus(t *testing.T) {
	kv, raw := backends()[0].kv(t)
	s := New(kv, nil)
	raw(store.KeyProjects, `[{"id":"1","status":"Blocked","name":"Old lane"},{"id":"2","status":"Done","name":"Kept"}]`)

	b, err := s.LoadBoard(context.Background())
	require.NoError(t, err)
	require.Len(t, b[core.LaneToDo], 1)
	assert.Equal(t, core.LaneToDo, b[core.LaneToDo][0].Status)
	assert.Equal(t, 2, b.Count())
}

func TestStoreLedger(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			kv, raw := bc.kv(t)
			s := New(kv, nil)

			entries, err := s.ListEntries(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)

			id1, err := s.AppendEntry(ctx, core.LedgerEntry{Date: core.NewDate(2024, 1, 10), Type: core.Income, Amount: core.Money{Cents: 50000}, Category: "Eggs"})
			require.NoError(t, err)
			id2, err := s.AppendEntry(ctx, core.LedgerEntry{ID: "fixed", Date: core.NewDate(2024, 2, 1), Type: core.Expense, Amount: core.Money{Cents: 12000}, Category: "Feed"})
			require.NoError(t, err)
			assert.Equal(t, "fixed", id2)

			_, err = s.AppendEntry(ctx, core.LedgerEntry{ID: "fixed", Date: core.NewDate(2024, 2, 1), Type: core.Expense, Amount: core.Money{Cents: 1}, Category: "Feed"})
			assert.Error(t, err)

			entries, err = s.ListEntries(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, id1, entries[0].ID)
			assert.Equal(t, int64(12000), entries[1].Amount.Cents)

			income, expense, err := s.Categories(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Eggs"}, income)
			assert.Equal(t, []string{"Feed"}, expense)

			require.NoError(t, s.DeleteEntry(ctx, id1))
			assert.ErrorIs(t, s.DeleteEntry(ctx, id1), store.ErrNotFound)

			raw(store.KeyTransactions, "[[[")
			entries, err = s.ListEntries(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestStorePlantings(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			kv, raw := bc.kv(t)
			s := New(kv, nil)

			ps, err := s.ListPlantings(ctx)
			require.NoError(t, err)
			assert.Empty(t, ps)

			id, err := s.AddPlanting(ctx, core.Planting{Variety: " Moringa ", Location: "North Field", PlantedOn: core.NewDate(2024, 3, 15), Quantity: 100})
			require.NoError(t, err)
			_, err = s.AddPlanting(ctx, core.Planting{Variety: "Cherry Tomato", Location: "Greenhouse 1", PlantedOn: core.NewDate(2024, 4, 1)})
			assert.ErrorIs(t, err, core.ErrInvalidQuantity)

			ps, err = s.ListPlantings(ctx)
			require.NoError(t, err)
			require.Len(t, ps, 1)
			assert.Equal(t, id, ps[0].ID)
			assert.Equal(t, "Moringa", ps[0].Variety)
			assert.Equal(t, "2024-03-15", ps[0].PlantedOn.String())

			require.NoError(t, s.DeletePlanting(ctx, id))
			assert.ErrorIs(t, s.DeletePlanting(ctx, id), store.ErrNotFound)

			raw(store.KeyPlantings, "{oops")
			ps, err = s.ListPlantings(ctx)
			require.NoError(t, err)
			assert.Empty(t, ps)
		})
	}
}

func TestStoreConcurrentAppends(t *testing.T) {
	kv, _ := backends()[0].kv(t)
	s := New(kv, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendEntry(ctx, core.LedgerEntry{Date: core.NewDate(2024, 5, 5), Type: core.Expense, Amount: core.Money{Cents: 100}, Category: "Fuel"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, string, []byte) error   { return f.err }

func TestStoreSurfacesBackendErrors(t *testing.T) {
	quota := errors.New("quota exceeded")
	s := New(failingKV{err: quota}, nil)

	err := s.SaveBoard(context.Background(), sampleBoard())
	assert.ErrorIs(t, err, quota)

	_, err = s.LoadBoard(context.Background())
	assert.ErrorIs(t, err, quota)
}

func TestFileKVRejectsPathKeys(t *testing.T) {
	f, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, f.Set(context.Background(), "../escape", []byte("x")))
}
