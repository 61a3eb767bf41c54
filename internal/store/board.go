package store

import (
	"encoding/json"

	"farmstead/internal/core"
	"farmstead/internal/log"
)

// HomeCards builds a board from persisted cards. Cards whose status is not a
// known lane are moved to the first lane instead of being dropped, so a
// later save does not lose them.
func HomeCards(cards []core.Card, logger *log.Logger) core.Board {
	b, orphans := core.BoardFromCards(cards)
	if len(orphans) == 0 {
		return b
	}
	first := core.Lanes()[0]
	for _, c := range orphans {
		if logger != nil {
			logger.Warn("Card with unknown status moved to first lane",
				log.FieldCardID, c.ID, "status", string(c.Status), log.FieldToLane, string(first))
		}
		c.Status = first
		b[first] = append(b[first], c)
	}
	return b
}

// DecodeBoard parses the JSON card array stored under KeyProjects. Empty or
// undecodable input yields an empty board.
func DecodeBoard(data []byte, logger *log.Logger) core.Board {
	if len(data) == 0 {
		return core.NewBoard()
	}
	var cards []core.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		if logger != nil {
			logger.Warn("Stored board is corrupt, starting empty", log.FieldError, err)
		}
		return core.NewBoard()
	}
	return HomeCards(cards, logger)
}

// EncodeBoard renders the board as a flat JSON array in lane order.
func EncodeBoard(b core.Board) ([]byte, error) {
	return json.Marshal(b.Cards())
}

// DecodeEntries parses the JSON array stored under KeyTransactions. Empty or
// undecodable input yields no entries.
func DecodeEntries(data []byte, logger *log.Logger) []core.LedgerEntry {
	if len(data) == 0 {
		return []core.LedgerEntry{}
	}
	var entries []core.LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		if logger != nil {
			logger.Warn("Stored ledger is corrupt, starting empty", log.FieldError, err)
		}
		return []core.LedgerEntry{}
	}
	if entries == nil {
		entries = []core.LedgerEntry{}
	}
	return entries
}

// Distinct returns the categories used per entry type, first-seen order.
func Distinct(entries []core.LedgerEntry) (income, expense []string) {
	seen := map[core.CategoryKey]bool{}
	income, expense = []string{}, []string{}
	for _, e := range entries {
		k := core.CategoryKey{Type: e.Type, Category: e.Category}
		if seen[k] {
			continue
		}
		seen[k] = true
		switch e.Type {
		case core.Income:
			income = append(income, e.Category)
		case core.Expense:
			expense = append(expense, e.Category)
		}
	}
	return income, expense
}
