package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"farmstead/internal/core"
)

// dateRange parses --from and --to. Missing bounds default to the current
// month.
func dateRange(from, to string, now time.Time) (core.Date, core.Date, error) {
	start := core.NewDate(now.Year(), int(now.Month()), 1)
	end := core.Date{Time: start.AddDate(0, 1, -1)}
	if from != "" {
		d, err := core.ParseDate(strings.TrimSpace(from))
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("--from: %w", err)
		}
		start = d
	}
	if to != "" {
		d, err := core.ParseDate(strings.TrimSpace(to))
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("--to: %w", err)
		}
		end = d
	}
	return start, end, nil
}

func newLedgerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Record and list income and expenses",
	}
	cmd.AddCommand(newLedgerAddCmd(app), newLedgerListCmd(app), newLedgerDeleteCmd(app))
	return cmd
}

func newLedgerAddCmd(app *App) *cobra.Command {
	var date, entryType, amount, category, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a ledger entry",
		Example: `  farmctl ledger add --type income --amount 1200 --category Crops
  farmctl ledger add --amount 45,90 --category Fuel --date 2024-03-02`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.now()
			e := core.LedgerEntry{
				Date:        core.NewDate(now.Year(), int(now.Month()), now.Day()),
				Category:    strings.TrimSpace(category),
				Description: strings.TrimSpace(description),
			}
			t, err := core.ParseEntryType(entryType)
			if err != nil {
				return err
			}
			e.Type = t
			if date != "" {
				if e.Date, err = core.ParseDate(strings.TrimSpace(date)); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}
			cents, err := core.ParseDecimalToCents(amount)
			if err != nil {
				return fmt.Errorf("--amount %q: %w", amount, err)
			}
			e.Amount = core.Money{Cents: cents}

			saved, err := app.Ledger.Record(cmd.Context(), e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s %s on %s (%s)\n",
				saved.Type, saved.Category, saved.Amount, saved.Date, shortID(saved.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Entry date (YYYY-MM-DD); defaults to today")
	cmd.Flags().StringVar(&entryType, "type", string(core.Expense), "income or expense")
	cmd.Flags().StringVar(&amount, "amount", "", "Positive amount, dot or comma decimals (required)")
	cmd.Flags().StringVar(&category, "category", "", "Category (required)")
	cmd.Flags().StringVar(&description, "description", "", "Optional note")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newLedgerListCmd(app *App) *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dateRange(from, to, app.now())
			if err != nil {
				return err
			}
			entries, err := app.Ledger.Entries(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatEntries(entries, app.Color))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD); defaults to the start of this month")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD); defaults to the end of this month")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func newLedgerDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Ledger.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
