package core

import "sort"

// CategoryKey identifies a statement line.
type CategoryKey struct {
	Type     EntryType
	Category string
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Statement summarises ledger entries over a closed date range.
type Statement struct {
	Start            Date
	End              Date
	TotalsByCategory map[CategoryKey]Money
	TotalIncome      Money
	TotalExpense     Money
	Net              Money
	// Skipped counts in-range entries whose type is neither income nor expense.
	Skipped int
}

// Aggregate totals entries dated within [start, end] per type and category.
// Entries of an unknown type are not folded into expenses; they are counted
// in Skipped and otherwise ignored.
func Aggregate(entries []LedgerEntry, start, end Date) Statement {
	st := Statement{
		Start:            start,
		End:              end,
		TotalsByCategory: make(map[CategoryKey]Money),
	}
	for _, e := range entries {
		if !e.Date.Within(start, end) {
			continue
		}
		switch e.Type {
		case Income:
			st.TotalIncome = st.TotalIncome.Add(e.Amount)
		case Expense:
			st.TotalExpense = st.TotalExpense.Add(e.Amount)
		default:
			st.Skipped++
			continue
		}
		k := CategoryKey{Type: e.Type, Category: e.Category}
		st.TotalsByCategory[k] = st.TotalsByCategory[k].Add(e.Amount)
	}
	st.Net = st.TotalIncome.Sub(st.TotalExpense)
	return st
}

// IncomeLines returns income totals by category, largest first.
func (s Statement) IncomeLines() []CategoryAmount { return s.lines(Income) }

// ExpenseLines returns expense totals by category, largest first.
func (s Statement) ExpenseLines() []CategoryAmount { return s.lines(Expense) }

func (s Statement) lines(t EntryType) []CategoryAmount {
	out := make([]CategoryAmount, 0)
	for k, v := range s.TotalsByCategory {
		if k.Type == t {
			out = append(out, CategoryAmount{Name: k.Category, Amount: v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
