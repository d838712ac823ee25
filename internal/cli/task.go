package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idilsaglam/kanban/internal/board"
	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/reorder"
	"github.com/idilsaglam/kanban/internal/ui"
)

// taskFlags binds the task form to command flags.
type taskFlags struct {
	in model.TaskInput
	fs *pflag.FlagSet
}

func bindTaskFlags(cmd *cobra.Command) *taskFlags {
	tf := &taskFlags{fs: cmd.Flags()}
	tf.fs.StringVarP(&tf.in.Title, "title", "t", "", "task title")
	tf.fs.StringVarP(&tf.in.Description, "description", "d", "", "task description")
	tf.fs.StringVar(&tf.in.CreatedBy, "created-by", "", "who created the task")
	tf.fs.StringVarP(&tf.in.AssignedTo, "assigned-to", "a", "", "who the task is assigned to")
	tf.fs.StringVarP((*string)(&tf.in.Priority), "priority", "p", "", "high, medium or low (default medium)")
	tf.fs.StringVar(&tf.in.DueDate, "due", "", "due date, YYYY-MM-DD")
	return tf
}

// apply copies the flags the user set onto in.
func (tf *taskFlags) apply(in model.TaskInput) model.TaskInput {
	set := map[string]*string{
		"title":       &in.Title,
		"description": &in.Description,
		"created-by":  &in.CreatedBy,
		"assigned-to": &in.AssignedTo,
		"priority":    (*string)(&in.Priority),
		"due":         &in.DueDate,
	}
	tf.fs.Visit(func(f *pflag.Flag) {
		if dst, ok := set[f.Name]; ok {
			*dst = f.Value.String()
		}
	})
	return in
}

func newTaskCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "task",
		Short:             "Add, edit, remove and move tasks",
		PersistentPreRunE: a.requireSession,
	}

	add := &cobra.Command{
		Use:   "add <board> <column>",
		Short: "Add a task to the end of a column",
		Args:  exactArgs(2),
	}
	addFlags := bindTaskFlags(add)
	add.RunE = func(cmd *cobra.Command, args []string) error {
		ws, err := a.resolveBoard(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		c, err := resolveColumn(ws, args[1])
		if err != nil {
			return err
		}
		t, err := ws.SaveTask(cmd.Context(), c.ID, addFlags.in, "")
		if err != nil {
			return err
		}
		ui.OK(cmd.OutOrStdout(), fmt.Sprintf("task %q added to %s (%s)", t.Title, c.Name, t.ID))
		return nil
	}

	edit := &cobra.Command{
		Use:   "edit <board> <task>",
		Short: "Change the fields of a task; unset flags keep their value",
		Args:  exactArgs(2),
	}
	editFlags := bindTaskFlags(edit)
	edit.RunE = func(cmd *cobra.Command, args []string) error {
		ws, err := a.resolveBoard(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cur, ok := ws.Task(args[1])
		if !ok {
			return taskNotFound(args[1])
		}
		if _, err := ws.SaveTask(cmd.Context(), "", editFlags.apply(cur.Input()), cur.ID); err != nil {
			return err
		}
		ui.OK(cmd.OutOrStdout(), "updated")
		return nil
	}

	rm := &cobra.Command{
		Use:   "rm <board> <task>",
		Short: "Remove a task",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.resolveBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := ws.DeleteTask(cmd.Context(), args[1]); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "removed")
			return nil
		},
	}

	mv := &cobra.Command{
		Use:   "mv <board> <task> <target>",
		Short: "Drop a task onto another task or a column",
		Long: `Drop a task onto a target, as if dragged there.

Dropping onto a task of the same column takes that task's place; dropping onto
its own column moves it to the end. Dropping into another column, on the column
or on any of its tasks, appends it to that column.`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.resolveBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, ok := ws.Task(args[1]); !ok {
				return taskNotFound(args[1])
			}
			over := args[2]
			if _, ok := ws.Task(over); !ok {
				if c, err := resolveColumn(ws, over); err == nil {
					over = c.ID
				}
			}
			changed, err := ws.DragEnd(cmd.Context(), reorder.DragEnd{Active: args[1], Over: over})
			if err != nil {
				return err
			}
			if !changed {
				ui.OK(cmd.OutOrStdout(), "nothing to move")
				return nil
			}
			ui.OK(cmd.OutOrStdout(), "moved")
			return nil
		},
	}

	cmd.AddCommand(add, edit, rm, mv)
	return cmd
}

func taskNotFound(id string) error {
	return fmt.Errorf("%w: %s", board.ErrTaskNotFound, id)
}
