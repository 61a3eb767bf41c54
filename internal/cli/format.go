package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"farmstead/internal/core"
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fe8019"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#928374"))
	styleProfit = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8ec07c"))
	styleLoss   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fb4934"))
)

func paint(s lipgloss.Style, text string, color bool) string {
	if !color {
		return text
	}
	return s.Render(text)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func signed(m core.Money, color bool) string {
	if m.Cents < 0 {
		return paint(styleLoss, m.String(), color)
	}
	return paint(styleProfit, m.String(), color)
}

func formatBoard(b core.Board, color bool) string {
	var sb strings.Builder
	for i, l := range core.Lanes() {
		if i > 0 {
			sb.WriteString("\n")
		}
		cards := b[l]
		sb.WriteString(paint(styleHeader, fmt.Sprintf("%s (%d)", l, len(cards)), color) + "\n")
		if len(cards) == 0 {
			sb.WriteString(paint(styleDim, "  (empty)", color) + "\n")
			continue
		}
		for j, c := range cards {
			line := fmt.Sprintf("  %d. %-30s %s", j+1, c.Name, paint(styleDim, shortID(c.ID), color))
			if c.Assignee != "" {
				line += "  @" + c.Assignee
			}
			if !c.DueDate.IsEmpty() {
				line += "  due " + c.DueDate.String()
			}
			sb.WriteString(line + "\n")
		}
	}
	return sb.String()
}

func formatEntries(entries []core.LedgerEntry, color bool) string {
	if len(entries) == 0 {
		return paint(styleDim, "No entries in this period", color) + "\n"
	}
	var sb strings.Builder
	sb.WriteString(paint(styleHeader, fmt.Sprintf("%-10s  %-7s  %-16s  %12s  %s", "DATE", "TYPE", "CATEGORY", "AMOUNT", "ID"), color) + "\n")
	for _, e := range entries {
		amount := e.Signed()
		fmt.Fprintf(&sb, "%-10s  %-7s  %-16s  %12s  %s", e.Date, e.Type, e.Category, amount, shortID(e.ID))
		if e.Description != "" {
			sb.WriteString("  " + paint(styleDim, e.Description, color))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatPlantings(ps []core.Planting, color bool) string {
	if len(ps) == 0 {
		return paint(styleDim, "Nothing planted yet", color) + "\n"
	}
	var sb strings.Builder
	sb.WriteString(paint(styleHeader, fmt.Sprintf("%-10s  %-18s  %-18s  %8s  %s", "DATE", "VARIETY", "LOCATION", "QTY", "ID"), color) + "\n")
	for _, p := range ps {
		fmt.Fprintf(&sb, "%-10s  %-18s  %-18s  %8d  %s\n", p.PlantedOn, p.Variety, p.Location, p.Quantity, paint(styleDim, shortID(p.ID), color))
	}
	sb.WriteString(paint(styleDim, fmt.Sprintf("%d plants in %d plantings", core.TotalPlantings(ps).Total, len(ps)), color) + "\n")
	return sb.String()
}

func formatProfitLoss(st core.Statement, color bool) string {
	var sb strings.Builder
	sb.WriteString(paint(styleHeader, fmt.Sprintf("Profit and loss %s to %s", st.Start, st.End), color) + "\n\n")

	section := func(title string, lines []core.CategoryAmount, total core.Money, totalLabel string) {
		sb.WriteString(title + "\n")
		for _, l := range lines {
			fmt.Fprintf(&sb, "  %-24s %12s\n", l.Name, l.Amount)
		}
		fmt.Fprintf(&sb, "  %-24s %12s\n\n", totalLabel, total)
	}
	section("Income", st.IncomeLines(), st.TotalIncome, "Total income")
	section("Expenses", st.ExpenseLines(), st.TotalExpense, "Total expenses")

	fmt.Fprintf(&sb, "%-26s %12s\n", "Net", signed(st.Net, color))
	if st.Skipped > 0 {
		sb.WriteString(paint(styleDim, fmt.Sprintf("%d entries with an unknown type were left out", st.Skipped), color) + "\n")
	}
	return sb.String()
}

func formatCashFlow(cf core.CashFlowStatement, color bool) string {
	var sb strings.Builder
	sb.WriteString(paint(styleHeader, fmt.Sprintf("Cash flow %s to %s", cf.Start, cf.End), color) + "\n\n")
	fmt.Fprintf(&sb, "%-8s %12s %12s %12s %12s\n", "MONTH", "INCOME", "EXPENSE", "NET", "BALANCE")
	fmt.Fprintf(&sb, "%-8s %12s %12s %12s %12s\n", "opening", "", "", "", cf.Opening)
	for _, p := range cf.Periods {
		fmt.Fprintf(&sb, "%04d-%02d  %12s %12s %12s %12s\n", p.Year, p.Month, p.Income, p.Expense, p.Net, p.Closing)
	}
	fmt.Fprintf(&sb, "%-8s %12s %12s %12s %12s\n", "closing", "", "", "", signed(cf.Closing, color))
	return sb.String()
}

type lineJSON struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

type statementJSON struct {
	From         core.Date  `json:"from"`
	To           core.Date  `json:"to"`
	Income       []lineJSON `json:"income"`
	Expense      []lineJSON `json:"expense"`
	TotalIncome  core.Money `json:"totalIncome"`
	TotalExpense core.Money `json:"totalExpense"`
	Net          core.Money `json:"net"`
	Skipped      int        `json:"skipped,omitempty"`
}

func toLines(in []core.CategoryAmount) []lineJSON {
	out := make([]lineJSON, 0, len(in))
	for _, l := range in {
		out = append(out, lineJSON{Category: l.Name, Amount: l.Amount})
	}
	return out
}

func newStatementJSON(st core.Statement) statementJSON {
	return statementJSON{
		From:         st.Start,
		To:           st.End,
		Income:       toLines(st.IncomeLines()),
		Expense:      toLines(st.ExpenseLines()),
		TotalIncome:  st.TotalIncome,
		TotalExpense: st.TotalExpense,
		Net:          st.Net,
		Skipped:      st.Skipped,
	}
}

type periodJSON struct {
	Month   string     `json:"month"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Net     core.Money `json:"net"`
	Closing core.Money `json:"closing"`
}

type cashFlowJSON struct {
	From    core.Date    `json:"from"`
	To      core.Date    `json:"to"`
	Opening core.Money   `json:"opening"`
	Periods []periodJSON `json:"periods"`
	Closing core.Money   `json:"closing"`
}

func newCashFlowJSON(cf core.CashFlowStatement) cashFlowJSON {
	out := cashFlowJSON{From: cf.Start, To: cf.End, Opening: cf.Opening, Closing: cf.Closing, Periods: []periodJSON{}}
	for _, p := range cf.Periods {
		out.Periods = append(out.Periods, periodJSON{
			Month:   fmt.Sprintf("%04d-%02d", p.Year, p.Month),
			Income:  p.Income,
			Expense: p.Expense,
			Net:     p.Net,
			Closing: p.Closing,
		})
	}
	return out
}
