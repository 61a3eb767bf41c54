package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"farmstead/internal/core"
	"farmstead/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "farm.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteBoardRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if b.Count() != 0 || len(b) != len(core.Lanes()) {
		t.Fatalf("expected empty board, got %v", b)
	}

	want := core.NewBoard()
	want[core.LaneToDo] = []core.Card{
		{ID: "b", Status: core.LaneToDo, Name: "Second alphabetically first", StartDate: core.NewDate(2024, 4, 2)},
		{ID: "a", Status: core.LaneToDo, Name: "Then this"},
	}
	want[core.LaneInProgress] = []core.Card{
		{ID: "c", Status: core.LaneInProgress, Name: "Barn", Assignee: "Robin", DueDate: core.NewDate(2024, 6, 30)},
	}
	if err := repo.SaveBoard(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, lane := range core.Lanes() {
		if len(got[lane]) != len(want[lane]) {
			t.Fatalf("lane %q: expected %d cards, got %d", lane, len(want[lane]), len(got[lane]))
		}
		for i := range want[lane] {
			if got[lane][i] != want[lane][i] {
				t.Fatalf("lane %q index %d: expected %+v, got %+v", lane, i, want[lane][i], got[lane][i])
			}
		}
	}

	// A second save fully replaces the first.
	next := core.NewBoard()
	next[core.LaneDone] = []core.Card{{ID: "c", Status: core.LaneDone, Name: "Barn"}}
	if err := repo.SaveBoard(ctx, next); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, _ = repo.LoadBoard(ctx)
	if got.Count() != 1 || got[core.LaneDone][0].ID != "c" {
		t.Fatalf("expected only card c in Done, got %v", got)
	}
}

func TestSQLiteCardRowOperations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, c := range []core.Card{
		{ID: "1", Status: core.LaneToDo, Name: "Till"},
		{ID: "2", Status: core.LaneToDo, Name: "Sow"},
	} {
		if err := repo.InsertCard(ctx, c); err != nil {
			t.Fatalf("insert %s: %v", c.ID, err)
		}
	}
	if err := repo.InsertCard(ctx, core.Card{ID: "3", Status: core.LaneToDo}); err == nil {
		t.Fatalf("expected validation error for nameless card")
	}

	b, _ := repo.LoadBoard(ctx)
	if len(b[core.LaneToDo]) != 2 || b[core.LaneToDo][1].ID != "2" {
		t.Fatalf("insert must append to lane end, got %v", b[core.LaneToDo])
	}

	if err := repo.UpdateCard(ctx, core.Card{ID: "1", Name: "Till north field", Assignee: "Ari"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, _ = repo.LoadBoard(ctx)
	if c := b[core.LaneToDo][0]; c.ID != "1" || c.Name != "Till north field" || c.Assignee != "Ari" {
		t.Fatalf("unexpected card %+v", c)
	}

	if err := repo.DeleteCard(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteCard(ctx, "1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	b, _ = repo.LoadBoard(ctx)
	if b.Count() != 1 || b[core.LaneToDo][0].ID != "2" {
		t.Fatalf("expected only card 2 left, got %v", b)
	}
	if err := repo.UpdateCard(ctx, core.Card{ID: "missing", Name: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestSQLiteLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entries := []core.LedgerEntry{
		{Date: core.NewDate(2024, 1, 10), Type: core.Income, Amount: core.Money{Cents: 50000}, Category: "Eggs", Description: "Market"},
		{Date: core.NewDate(2024, 2, 1), Type: core.Expense, Amount: core.Money{Cents: 12000}, Category: "Feed"},
		{Date: core.NewDate(2024, 1, 20), Type: core.Expense, Amount: core.Money{Cents: 300}, Category: "Fuel"},
	}
	var ids []string
	for _, e := range entries {
		id, err := repo.AppendEntry(ctx, e)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, id)
	}

	all, err := repo.ListEntries(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d err=%v", len(all), err)
	}
	if all[0].ID != ids[0] || all[0].Description != "Market" || !all[0].Date.Equal(entries[0].Date.Time) {
		t.Fatalf("unexpected first entry %+v", all[0])
	}

	jan, err := repo.ListEntriesBetween(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	if err != nil || len(jan) != 2 || jan[0].Category != "Eggs" || jan[1].Category != "Fuel" {
		t.Fatalf("unexpected january entries %+v err=%v", jan, err)
	}
	st := core.Aggregate(all, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if st.Net.Cents != 50000-12000-300 {
		t.Fatalf("unexpected net %d", st.Net.Cents)
	}

	income, expense, err := repo.Categories(ctx)
	if err != nil || len(income) != 1 || len(expense) != 2 || expense[0] != "Feed" {
		t.Fatalf("unexpected categories %v %v err=%v", income, expense, err)
	}

	if err := repo.DeleteEntry(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteEntry(ctx, ids[1]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLitePlantings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.AddPlanting(ctx, core.Planting{Variety: "Moringa", Location: "North Field", PlantedOn: core.NewDate(2024, 3, 15), Quantity: 100})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.AddPlanting(ctx, core.Planting{ID: "p2", Variety: "Cherry Tomato", Location: "Greenhouse 1", PlantedOn: core.NewDate(2024, 4, 1), Quantity: 200}); err != nil {
		t.Fatalf("add second: %v", err)
	}
	if _, err := repo.AddPlanting(ctx, core.Planting{ID: "p2", Variety: "Basil", Location: "Bed 1", PlantedOn: core.NewDate(2024, 4, 2), Quantity: 3}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if _, err := repo.AddPlanting(ctx, core.Planting{Variety: "Basil", PlantedOn: core.NewDate(2024, 4, 2), Quantity: 3}); !errors.Is(err, core.ErrEmptyLocation) {
		t.Fatalf("expected ErrEmptyLocation, got %v", err)
	}

	ps, err := repo.ListPlantings(ctx)
	if err != nil || len(ps) != 2 {
		t.Fatalf("expected 2 plantings, got %v err=%v", ps, err)
	}
	if ps[0].ID != id || ps[0].Quantity != 100 || ps[0].PlantedOn.String() != "2024-03-15" {
		t.Fatalf("unexpected first planting %+v", ps[0])
	}

	if err := repo.DeletePlanting(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeletePlanting(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farm.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path, nil)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
	version, err := migrateSchema(path)
	if err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}
}
