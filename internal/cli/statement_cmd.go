package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatementCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Financial statements over a date range",
	}
	cmd.AddCommand(newProfitLossCmd(app), newCashFlowCmd(app))
	return cmd
}

func newProfitLossCmd(app *App) *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "profit-loss",
		Aliases: []string{"pl"},
		Short:   "Income and expenses by category with the net result",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dateRange(from, to, app.now())
			if err != nil {
				return err
			}
			st, err := app.Ledger.Statement(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newStatementJSON(st))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatProfitLoss(st, app.Color))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the statement as JSON")
	return cmd
}

func newCashFlowCmd(app *App) *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cash-flow",
		Short: "Monthly income, expenses and running balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dateRange(from, to, app.now())
			if err != nil {
				return err
			}
			cf, err := app.Ledger.CashFlow(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newCashFlowJSON(cf))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatCashFlow(cf, app.Color))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the cash flow as JSON")
	return cmd
}
