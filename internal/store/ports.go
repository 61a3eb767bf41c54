// Package store defines the persistence ports shared by every backend and
// the cached adapter that wraps them.
package store

import (
	"context"
	"errors"

	"farmstead/internal/core"
)

// Keys used by key-value backends. They are the localStorage keys the browser
// board used, so its exported data imports unchanged.
const (
	KeyProjects     = "projects"
	KeyTransactions = "transactions"
	KeyPlantings    = "plantings"
)

var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	// BoardStore persists the whole board. SaveBoard fully replaces prior
	// state. LoadBoard returns an empty board for missing or corrupt data.
	BoardStore interface {
		LoadBoard(ctx context.Context) (core.Board, error)
		SaveBoard(ctx context.Context, b core.Board) error
	}

	LedgerWriter interface {
		// AppendEntry stores e and returns its id. Backends assign an id
		// when e.ID is empty.
		AppendEntry(ctx context.Context, e core.LedgerEntry) (id string, err error)
	}

	LedgerDeleter interface {
		// DeleteEntry returns ErrNotFound for unknown ids.
		DeleteEntry(ctx context.Context, id string) error
	}

	LedgerLister interface {
		// ListEntries returns every entry in insertion order.
		ListEntries(ctx context.Context) ([]core.LedgerEntry, error)
	}

	// CardRows writes one card without rewriting the board. Unknown ids
	// return ErrNotFound. InsertCard appends at the end of the card's lane.
	CardRows interface {
		InsertCard(ctx context.Context, c core.Card) error
		UpdateCard(ctx context.Context, c core.Card) error
		DeleteCard(ctx context.Context, id string) error
	}

	// RangeLister lists entries dated within [start, end] without reading
	// the whole ledger.
	RangeLister interface {
		ListEntriesBetween(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error)
	}

	// TaxonomyReader lists known categories for the entry form.
	TaxonomyReader interface {
		Categories(ctx context.Context) (income []string, expense []string, err error)
	}

	Ledger interface {
		LedgerWriter
		LedgerDeleter
		LedgerLister
	}

	// PlantingStore keeps the planting log. AddPlanting assigns an id when
	// p.ID is empty; DeletePlanting returns ErrNotFound for unknown ids.
	PlantingStore interface {
		ListPlantings(ctx context.Context) ([]core.Planting, error)
		AddPlanting(ctx context.Context, p core.Planting) (id string, err error)
		DeletePlanting(ctx context.Context, id string) error
	}
)

// CardRowsOf returns the row writer behind bs, looking through a cache
// wrapper.
func CardRowsOf(bs BoardStore) (CardRows, bool) {
	if w, ok := bs.(interface{ Rows() (CardRows, bool) }); ok {
		return w.Rows()
	}
	rows, ok := bs.(CardRows)
	return rows, ok
}
