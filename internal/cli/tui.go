package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/kanban/internal/tui"
)

func newTUICmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:               "tui [board]",
		Short:             "Open the interactive board",
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID := ""
			if len(args) == 1 {
				ws, err := a.resolveBoard(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				boardID = ws.Board().ID
			}
			run := a.opt.RunTUI
			if run == nil {
				run = runTUI
			}
			return run(cmd.Context(), a, boardID)
		},
	}
}

func runTUI(ctx context.Context, a *App, boardID string) error {
	return tui.Run(ctx, a.Repo, tui.Options{
		BoardID: boardID,
		Log:     a.Log.WithField("component", "tui"),
	})
}
