package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"farmstead/internal/core"
	"farmstead/internal/store"
)

// Store keeps the board, the ledger and the planting log in process memory.
type Store struct {
	mu        sync.Mutex
	income    []string
	expense   []string
	board     core.Board
	entries   []core.LedgerEntry
	plantings []core.Planting
}

var (
	_ store.BoardStore     = (*Store)(nil)
	_ store.Ledger         = (*Store)(nil)
	_ store.TaxonomyReader = (*Store)(nil)
	_ store.PlantingStore  = (*Store)(nil)
)

func New(income, expense []string) *Store {
	return &Store{
		income:  dedupe(income),
		expense: dedupe(expense),
		board:   core.NewBoard(),
	}
}

// NewFromFiles seeds the category lists from seed_income_categories.txt and
// seed_expense_categories.txt under base, one name per line.
func NewFromFiles(base string) *Store {
	income := readLines(filepath.Join(base, "seed_income_categories.txt"))
	expense := readLines(filepath.Join(base, "seed_expense_categories.txt"))
	if len(income) == 0 {
		income = []string{"Crops", "Livestock", "Eggs"}
	}
	if len(expense) == 0 {
		expense = []string{"Feed", "Seed", "Fuel", "Veterinary"}
	}
	return New(income, expense)
}

func (s *Store) LoadBoard(_ context.Context) (core.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone(), nil
}

func (s *Store) SaveBoard(_ context.Context, b core.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = b.Clone()
	return nil
}

// AppendEntry stores the entry and returns its id.
func (s *Store) AppendEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries {
		if existing.ID == e.ID {
			return "", fmt.Errorf("entry %s already exists", e.ID)
		}
	}
	s.entries = append(s.entries, e)
	return e.ID, nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("entry %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListEntries(_ context.Context) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LedgerEntry{}, s.entries...), nil
}

// Categories returns the seeded categories followed by any new ones used
// by recorded entries.
func (s *Store) Categories(_ context.Context) ([]string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	usedIncome, usedExpense := store.Distinct(s.entries)
	income := dedupe(append(append([]string(nil), s.income...), usedIncome...))
	expense := dedupe(append(append([]string(nil), s.expense...), usedExpense...))
	return income, expense, nil
}

func (s *Store) ListPlantings(_ context.Context) ([]core.Planting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Planting{}, s.plantings...), nil
}

func (s *Store) AddPlanting(_ context.Context, p core.Planting) (string, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.plantings {
		if existing.ID == p.ID {
			return "", fmt.Errorf("planting %s already exists", p.ID)
		}
	}
	s.plantings = append(s.plantings, p)
	return p.ID, nil
}

func (s *Store) DeletePlanting(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.plantings {
		if p.ID == id {
			s.plantings = append(s.plantings[:i:i], s.plantings[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("planting %s: %w", id, store.ErrNotFound)
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, keeping first-seen order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
