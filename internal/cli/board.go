package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/kanban/internal/board"
	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/ui"
)

func newBoardCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "board",
		Short:             "List, create and show boards",
		PersistentPreRunE: a.requireSession,
	}

	var search string
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List boards",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			boards, err := a.Repo.SearchBoards(cmd.Context(), search)
			if err != nil {
				return err
			}
			printBoards(cmd.OutOrStdout(), boards, search)
			return nil
		},
	}
	ls.Flags().StringVarP(&search, "search", "s", "", "only boards whose name contains this text")

	var desc string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a board",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.Repo.CreateBoard(cmd.Context(), args[0], desc)
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("board %q created (%s)", b.Name, b.ID))
			return nil
		},
	}
	add.Flags().StringVarP(&desc, "description", "d", "", "board description")

	show := &cobra.Command{
		Use:   "show <board>",
		Short: "Show a board's columns and tasks",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.resolveBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), ws)
			return nil
		},
	}

	cmd.AddCommand(ls, add, show)
	return cmd
}

func printBoards(w io.Writer, boards []model.Board, search string) {
	t := ui.Current()
	lines := []string{fmt.Sprintf("%s  %s %d", ui.C(t.Title, "Boards"), ui.C(t.Accent, "Total"), len(boards)), ""}
	if len(boards) == 0 {
		msg := "no boards"
		if search != "" {
			msg = fmt.Sprintf("no boards match %q", search)
		}
		lines = append(lines, ui.C(t.Muted, msg))
	}
	for _, b := range boards {
		line := fmt.Sprintf("%s %s %s", ui.C(t.Muted, b.ID), t.Bullet, b.Name)
		if b.Description != "" {
			line += ui.C(t.Muted, "  "+ui.Truncate(b.Description, 50))
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", ui.C(t.Muted, "Tip: add with `kanban board add \"Sprint 1\"`"))
	ui.Panel(w, lines)
}

func printBoard(w io.Writer, ws *board.Workspace) {
	t := ui.Current()
	b := ws.Board()
	total := len(ws.Tasks())
	lines := []string{fmt.Sprintf("%s  %s  %s %d", ui.C(t.Title, b.Name), ui.C(t.Muted, b.ID), ui.C(t.Accent, "Tasks"), total)}
	if b.Description != "" {
		lines = append(lines, ui.C(t.Muted, b.Description))
	}
	cols := ws.Columns()
	if len(cols) == 0 {
		lines = append(lines, "", ui.C(t.Muted, "no columns yet: `kanban column add <board> <name>`"))
	}
	for _, c := range cols {
		tasks := ws.ColumnTasks(c.ID)
		lines = append(lines, "",
			fmt.Sprintf("%s %s  %s", ui.C(t.Accent, c.Name), ui.C(t.Muted, "("+c.ID+")"), ui.C(t.Muted, ui.ProgressBar(len(tasks), total, 20))))
		if len(tasks) == 0 {
			lines = append(lines, ui.C(t.Muted, "  (empty)"))
		}
		for _, tk := range tasks {
			lines = append(lines, taskLine(tk))
		}
	}
	ui.Panel(w, lines)
}

func taskLine(tk model.Task) string {
	t := ui.Current()
	line := fmt.Sprintf("  %s %s %s %s",
		ui.C(dim, fmt.Sprintf("%2d.", tk.Order)),
		ui.C(t.PriorityColor(tk.Priority), t.Bullet),
		ui.Truncate(tk.Title, 60),
		ui.C(t.Muted, tk.ID))
	if tk.AssignedTo != "" {
		line += ui.C(t.Muted, " @"+tk.AssignedTo)
	}
	if tk.DueDate != "" {
		line += ui.C(t.Muted, " due "+tk.DueDate)
	}
	return line
}

const dim = "\033[2m"
