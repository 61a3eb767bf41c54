package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"farmstead/internal/core"
)

func newPlantingCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "planting",
		Aliases: []string{"plantings"},
		Short:   "Record and list plantings",
	}
	cmd.AddCommand(newPlantingAddCmd(app), newPlantingListCmd(app))
	return cmd
}

func newPlantingAddCmd(app *App) *cobra.Command {
	var variety, location, date string
	var quantity int

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a planting",
		Example: `  farmctl planting add --variety Moringa --location "North Field" --quantity 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.now()
			p := core.Planting{
				Variety:   variety,
				Location:  location,
				PlantedOn: core.NewDate(now.Year(), int(now.Month()), now.Day()),
				Quantity:  quantity,
			}
			if date != "" {
				d, err := core.ParseDate(strings.TrimSpace(date))
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				p.PlantedOn = d
			}
			saved, err := app.Plantings.Record(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Planted %d %s in %s on %s (%s)\n",
				saved.Quantity, saved.Variety, saved.Location, saved.PlantedOn, shortID(saved.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&variety, "variety", "", "What was planted (required)")
	cmd.Flags().StringVar(&location, "location", "", "Field, bed or greenhouse (required)")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "Number of plants (required)")
	cmd.Flags().StringVar(&date, "date", "", "Planting date (YYYY-MM-DD); defaults to today")
	_ = cmd.MarkFlagRequired("variety")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func newPlantingListCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plantings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := app.Plantings.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ps)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatPlantings(ps, app.Color))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print plantings as JSON")
	return cmd
}
