package http

import (
	"farmstead/internal/core"
)

type laneView struct {
	Name  core.Lane   `json:"name"`
	Slug  string      `json:"slug"`
	Cards []core.Card `json:"cards"`
}

type boardView struct {
	Lanes []laneView `json:"lanes"`
	// SaveError is set while the last board write has failed; the lanes
	// then show state the store does not hold.
	SaveError string `json:"saveError,omitempty"`
}

func newBoardView(b core.Board) boardView {
	v := boardView{Lanes: make([]laneView, 0, len(core.Lanes()))}
	for _, l := range core.Lanes() {
		cards := b[l]
		if cards == nil {
			cards = []core.Card{}
		}
		v.Lanes = append(v.Lanes, laneView{Name: l, Slug: l.Slug(), Cards: cards})
	}
	return v
}

// moveResult answers a drop. Saved is false when the write failed (502) or
// was still running when the server stopped waiting.
type moveResult struct {
	Applied bool   `json:"applied"`
	Saved   bool   `json:"saved"`
	Reason  string `json:"reason,omitempty"`
	boardView
}

type entriesView struct {
	From    core.Date          `json:"from"`
	To      core.Date          `json:"to"`
	Entries []core.LedgerEntry `json:"entries"`
}

type lineView struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

func newLines(in []core.CategoryAmount) []lineView {
	out := make([]lineView, 0, len(in))
	for _, l := range in {
		out = append(out, lineView{Category: l.Name, Amount: l.Amount})
	}
	return out
}

// profitLossView is the JSON form of a statement. Amounts are cents.
type profitLossView struct {
	From         core.Date  `json:"from"`
	To           core.Date  `json:"to"`
	Income       []lineView `json:"income"`
	Expense      []lineView `json:"expense"`
	TotalIncome  core.Money `json:"totalIncome"`
	TotalExpense core.Money `json:"totalExpense"`
	Net          core.Money `json:"net"`
	Skipped      int        `json:"skipped,omitempty"`
}

func newProfitLossView(st core.Statement) profitLossView {
	return profitLossView{
		From:         st.Start,
		To:           st.End,
		Income:       newLines(st.IncomeLines()),
		Expense:      newLines(st.ExpenseLines()),
		TotalIncome:  st.TotalIncome,
		TotalExpense: st.TotalExpense,
		Net:          st.Net,
		Skipped:      st.Skipped,
	}
}

type periodView struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Net     core.Money `json:"net"`
	Closing core.Money `json:"closing"`
}

type cashFlowView struct {
	From    core.Date    `json:"from"`
	To      core.Date    `json:"to"`
	Opening core.Money   `json:"opening"`
	Periods []periodView `json:"periods"`
	Closing core.Money   `json:"closing"`
}

func newCashFlowView(cf core.CashFlowStatement) cashFlowView {
	v := cashFlowView{
		From:    cf.Start,
		To:      cf.End,
		Opening: cf.Opening,
		Closing: cf.Closing,
		Periods: make([]periodView, 0, len(cf.Periods)),
	}
	for _, p := range cf.Periods {
		v.Periods = append(v.Periods, periodView(p))
	}
	return v
}

// ledgerPageData feeds ledger.html and statement.html.
type ledgerPageData struct {
	From, To          core.Date
	Today             core.Date
	Entries           []core.LedgerEntry
	IncomeCategories  []string
	ExpenseCategories []string
	Statement         profitLossView
}

// plantingsPageData feeds plantings.html.
type plantingsPageData struct {
	Today     core.Date
	Plantings []core.Planting
	Totals    core.PlantingTotals
	Varieties []string
	Locations []string
}

// plantingsView is the JSON shape of GET /api/plantings.
type plantingsView struct {
	Plantings []core.Planting     `json:"plantings"`
	Totals    core.PlantingTotals `json:"totals"`
}

type boardPageData struct {
	Lanes []laneView
	Today core.Date
}
