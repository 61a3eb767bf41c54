package cli

import (
	"time"

	"github.com/spf13/cobra"

	"farmstead/internal/services"
)

// App holds the services farmctl commands operate on.
type App struct {
	Board     *services.BoardService
	Ledger    *services.LedgerService
	Plantings *services.PlantingService
	// Color enables styled output; off when stdout is not a terminal.
	Color bool
	Now   func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// NewRootCmd creates the farmctl command tree bound to app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "farmctl",
		Short:         "Manage the farm project board, plantings and ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newBoardCmd(app),
		newLedgerCmd(app),
		newPlantingCmd(app),
		newStatementCmd(app),
	)
	return root
}
