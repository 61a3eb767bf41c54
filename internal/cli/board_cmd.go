package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"farmstead/internal/core"
)

// resolveCardID accepts a full card id or an unambiguous prefix of one.
func resolveCardID(b core.Board, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("card ID is required")
	}
	if _, _, ok := b.Find(input); ok {
		return input, nil
	}
	var matches []string
	for _, c := range b.Cards() {
		if strings.HasPrefix(c.ID, input) {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("card not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("card ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

type laneJSON struct {
	Lane  core.Lane   `json:"lane"`
	Cards []core.Card `json:"cards"`
}

func boardJSON(b core.Board) []laneJSON {
	out := make([]laneJSON, 0, len(core.Lanes()))
	for _, l := range core.Lanes() {
		cards := b[l]
		if cards == nil {
			cards = []core.Card{}
		}
		out = append(out, laneJSON{Lane: l, Cards: cards})
	}
	return out
}

func newBoardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show and rearrange the project board",
	}
	cmd.AddCommand(newBoardShowCmd(app), newBoardMoveCmd(app), newBoardAddCmd(app))
	return cmd
}

func newBoardShowCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print every lane with its cards in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.Board.Board(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(boardJSON(b))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatBoard(b, app.Color))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the board as JSON")
	return cmd
}

func newBoardMoveCmd(app *App) *cobra.Command {
	var cardID, to string
	var index int

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move a card to a lane and position",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lane, err := core.ParseLane(to)
			if err != nil {
				return err
			}
			b, err := app.Board.Board(ctx)
			if err != nil {
				return err
			}
			id, err := resolveCardID(b, cardID)
			if err != nil {
				return err
			}
			_, from, _ := b.Find(id)
			if index < 0 {
				index = len(b[lane])
			}

			ev := core.DropEvent{
				CardID:      id,
				Source:      from,
				Destination: &core.Position{Lane: lane, Index: index},
			}
			next, pending, err := app.Board.Move(ctx, ev)
			if err != nil {
				return err
			}
			if err := pending.Wait(ctx); err != nil {
				return fmt.Errorf("save board: %w", err)
			}

			card, pos, _ := next.Find(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to %s #%d\n", card.Name, pos.Lane, pos.Index+1)
			return nil
		},
	}

	cmd.Flags().StringVar(&cardID, "card", "", "Card ID or unique prefix (required)")
	cmd.Flags().StringVar(&to, "to", "", "Destination lane: to-do, in-progress or done (required)")
	cmd.Flags().IntVar(&index, "index", -1, "Zero-based position in the destination lane; default appends")
	_ = cmd.MarkFlagRequired("card")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newBoardAddCmd(app *App) *cobra.Command {
	var name, assignee, description, status, start, due string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a project card",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := core.Card{Name: name, Assignee: assignee, Description: description}
			if status != "" {
				lane, err := core.ParseLane(status)
				if err != nil {
					return err
				}
				c.Status = lane
			}
			var err error
			if c.StartDate, err = optionalDate(start); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if c.DueDate, err = optionalDate(due); err != nil {
				return fmt.Errorf("--due: %w", err)
			}

			created, err := app.Board.AddCard(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s) to %s\n", created.Name, shortID(created.ID), created.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Card name (required)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Who is responsible")
	cmd.Flags().StringVar(&description, "description", "", "Free text")
	cmd.Flags().StringVar(&status, "status", "", "Lane; defaults to To Do")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func optionalDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(strings.TrimSpace(s))
}
