package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/kanban/internal/ui"
)

func newColumnCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "column",
		Short:             "Add, rename and remove columns",
		PersistentPreRunE: a.requireSession,
	}

	add := &cobra.Command{
		Use:   "add <board> <name>",
		Short: "Append a column to a board",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.resolveBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err := ws.CreateColumn(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("column %q added (%s)", c.Name, c.ID))
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <board> <column> <name>",
		Short: "Rename a column",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.resolveBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err := resolveColumn(ws, args[1])
			if err != nil {
				return err
			}
			if err := ws.RenameColumn(cmd.Context(), c.ID, args[2]); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "renamed")
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <board> <column>",
		Short: "Remove a column and every task in it",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.resolveBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err := resolveColumn(ws, args[1])
			if err != nil {
				return err
			}
			n := len(ws.ColumnTasks(c.ID))
			if err := ws.DeleteColumn(cmd.Context(), c.ID); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("column %q removed with %d task(s)", c.Name, n))
			return nil
		},
	}

	cmd.AddCommand(add, rename, rm)
	return cmd
}
