package core

// PeriodFlow is the cash movement for one calendar month.
type PeriodFlow struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
	Net     Money
	Closing Money
}

// CashFlowStatement tracks the running balance month by month.
type CashFlowStatement struct {
	Start   Date
	End     Date
	Opening Money
	Periods []PeriodFlow
	Closing Money
}

// CashFlow computes monthly flows for [start, end]. The opening balance is
// the net of every entry dated before start. Months without entries are
// included with zero flows. An inverted range yields no periods.
func CashFlow(entries []LedgerEntry, start, end Date) CashFlowStatement {
	cf := CashFlowStatement{Start: start, End: end, Periods: []PeriodFlow{}}
	for _, e := range entries {
		if e.Date.Before(start.Time) {
			cf.Opening = cf.Opening.Add(e.Signed())
		}
	}
	cf.Closing = cf.Opening
	if end.Before(start.Time) {
		return cf
	}

	index := make(map[[2]int]int)
	for y, m := start.Year(), start.Month(); y < end.Year() || (y == end.Year() && m <= end.Month()); {
		index[[2]int{y, m}] = len(cf.Periods)
		cf.Periods = append(cf.Periods, PeriodFlow{Year: y, Month: m})
		m++
		if m > 12 {
			m = 1
			y++
		}
	}

	for _, e := range entries {
		if !e.Date.Within(start, end) {
			continue
		}
		p := &cf.Periods[index[[2]int{e.Date.Year(), e.Date.Month()}]]
		switch e.Type {
		case Income:
			p.Income = p.Income.Add(e.Amount)
		case Expense:
			p.Expense = p.Expense.Add(e.Amount)
		}
	}

	running := cf.Opening
	for i := range cf.Periods {
		p := &cf.Periods[i]
		p.Net = p.Income.Sub(p.Expense)
		running = running.Add(p.Net)
		p.Closing = running
	}
	cf.Closing = running
	return cf
}
