package google

import (
	"fmt"
	"strings"

	"farmstead/internal/core"
)

func entryRow(e core.LedgerEntry) []any {
	return []any{e.ID, e.Date.String(), string(e.Type), e.Category, e.Description, e.Amount.String()}
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// parseRows converts sheet rows (ID, Date, Type, Category, Description,
// Amount) into entries. The header row and blank rows are ignored; rows that
// fail to parse are counted in bad.
func parseRows(values [][]any) (entries []core.LedgerEntry, bad int) {
	entries = make([]core.LedgerEntry, 0, len(values))
	for i, raw := range values {
		cols := toStrings(raw)
		if len(cols) == 0 || cols[0] == "" {
			continue
		}
		if i == 0 && strings.EqualFold(cols[0], "ID") {
			continue
		}
		e, err := parseRow(cols)
		if err != nil {
			bad++
			continue
		}
		entries = append(entries, e)
	}
	return entries, bad
}

func parseRow(cols []string) (core.LedgerEntry, error) {
	if len(cols) < 6 {
		return core.LedgerEntry{}, fmt.Errorf("want 6 columns, got %d", len(cols))
	}
	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.LedgerEntry{}, err
	}
	typ, err := core.ParseEntryType(cols[2])
	if err != nil {
		return core.LedgerEntry{}, err
	}
	cents, err := core.ParseDecimalToCents(cols[5])
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e := core.LedgerEntry{
		ID:          cols[0],
		Date:        date,
		Type:        typ,
		Category:    cols[3],
		Description: cols[4],
		Amount:      core.Money{Cents: cents},
	}
	return e, e.Validate()
}
