package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/reorder"
	"github.com/idilsaglam/kanban/internal/store"
)

// Workspace is the working set of one board: its columns and the tasks that
// live in them. It is a filtered view of the global collections and is
// replaced wholesale after every successful write.
//
// A Workspace is not safe for concurrent use; callers drive it from a single
// event loop.
type Workspace struct {
	repo    *Repository
	board   model.Board
	columns []model.Column
	tasks   []model.Task
}

// Board is the board this workspace is scoped to.
func (w *Workspace) Board() model.Board { return w.board }

// Columns in creation order.
func (w *Workspace) Columns() []model.Column {
	return append([]model.Column(nil), w.columns...)
}

// Tasks of every column of the board, in storage order.
func (w *Workspace) Tasks() []model.Task {
	return append([]model.Task(nil), w.tasks...)
}

// ColumnTasks returns the tasks of columnID sorted by order.
func (w *Workspace) ColumnTasks(columnID string) []model.Task {
	return reorder.Sorted(w.tasks, columnID)
}

// Column looks up a column of this board.
func (w *Workspace) Column(id string) (model.Column, bool) {
	for _, c := range w.columns {
		if c.ID == id {
			return c, true
		}
	}
	return model.Column{}, false
}

// Task looks up a task of this board.
func (w *Workspace) Task(id string) (model.Task, bool) {
	for _, t := range w.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Reload re-derives the working set from the store.
func (w *Workspace) Reload(ctx context.Context) error {
	cols, err := w.repo.columns(ctx)
	if err != nil {
		return err
	}
	tasks, err := w.repo.tasks(ctx)
	if err != nil {
		return err
	}
	w.columns = scopeColumns(cols, w.board.ID)
	w.tasks = scopeTasks(tasks, cols, w.board.ID)
	return nil
}

// CreateColumn appends a new column to the board.
func (w *Workspace) CreateColumn(ctx context.Context, name string) (model.Column, error) {
	if err := model.ValidateColumn(name); err != nil {
		return model.Column{}, err
	}
	all, err := w.repo.columns(ctx)
	if err != nil {
		return model.Column{}, err
	}
	id, err := w.repo.newID(ctx)
	if err != nil {
		return model.Column{}, err
	}
	col := model.Column{
		ID:      id,
		Name:    strings.TrimSpace(name),
		BoardID: w.board.ID,
	}
	all = append(all, col)
	if err := w.repo.save(ctx, store.KeyColumns, all); err != nil {
		return model.Column{}, err
	}
	w.columns = scopeColumns(all, w.board.ID)
	w.logger().WithField("column", col.ID).Debug("column created")
	return col, nil
}

// RenameColumn replaces the name of a column in place.
func (w *Workspace) RenameColumn(ctx context.Context, columnID, name string) error {
	if err := model.ValidateColumn(name); err != nil {
		return err
	}
	if _, ok := w.Column(columnID); !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}
	all, err := w.repo.columns(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range all {
		if all[i].ID == columnID {
			all[i].Name = strings.TrimSpace(name)
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}
	if err := w.repo.save(ctx, store.KeyColumns, all); err != nil {
		return err
	}
	w.columns = scopeColumns(all, w.board.ID)
	w.logger().WithField("column", columnID).Debug("column renamed")
	return nil
}

// DeleteColumn removes a column and every task that lives in it. Tasks are
// written first: if the second write fails the board is left with an empty
// column rather than with tasks pointing at a missing one.
func (w *Workspace) DeleteColumn(ctx context.Context, columnID string) error {
	if _, ok := w.Column(columnID); !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}
	tasks, err := w.repo.tasks(ctx)
	if err != nil {
		return err
	}
	keptTasks := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ColumnID != columnID {
			keptTasks = append(keptTasks, t)
		}
	}
	cols, err := w.repo.columns(ctx)
	if err != nil {
		return err
	}
	keptCols := make([]model.Column, 0, len(cols))
	for _, c := range cols {
		if c.ID != columnID {
			keptCols = append(keptCols, c)
		}
	}

	if err := w.repo.save(ctx, store.KeyTasks, keptTasks); err != nil {
		return err
	}
	// The task write already happened; keep the in-memory view honest even
	// if the column write fails.
	w.tasks = scopeTasks(keptTasks, cols, w.board.ID)
	if err := w.repo.save(ctx, store.KeyColumns, keptCols); err != nil {
		return err
	}
	w.columns = scopeColumns(keptCols, w.board.ID)
	w.tasks = scopeTasks(keptTasks, keptCols, w.board.ID)
	w.logger().WithFields(logrus.Fields{
		"column":  columnID,
		"removed": len(tasks) - len(keptTasks),
	}).Debug("column deleted")
	return nil
}

// SaveTask creates a task at the end of columnID, or, when editingTaskID is
// set, replaces the editable fields of that task. An edit keeps the task's
// id, column and order; columnID is ignored.
func (w *Workspace) SaveTask(ctx context.Context, columnID string, in model.TaskInput, editingTaskID string) (model.Task, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	if editingTaskID != "" {
		return w.updateTask(ctx, editingTaskID, in)
	}
	return w.createTask(ctx, columnID, in)
}

func (w *Workspace) createTask(ctx context.Context, columnID string, in model.TaskInput) (model.Task, error) {
	if _, ok := w.Column(columnID); !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}
	all, err := w.repo.tasks(ctx)
	if err != nil {
		return model.Task{}, err
	}
	id, err := w.repo.newID(ctx)
	if err != nil {
		return model.Task{}, err
	}
	t := model.Task{
		ID:       id,
		ColumnID: columnID,
		Order:    reorder.NextOrder(all, columnID),
	}.WithInput(in)

	all = append(all, t)
	if err := w.repo.save(ctx, store.KeyTasks, all); err != nil {
		return model.Task{}, err
	}
	w.tasks = scopeTasks(all, w.columns, w.board.ID)
	w.logger().WithFields(logrus.Fields{"task": t.ID, "column": columnID, "order": t.Order}).Debug("task created")
	return t, nil
}

func (w *Workspace) updateTask(ctx context.Context, id string, in model.TaskInput) (model.Task, error) {
	if _, ok := w.Task(id); !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	all, err := w.repo.tasks(ctx)
	if err != nil {
		return model.Task{}, err
	}
	var updated model.Task
	found := false
	for i := range all {
		if all[i].ID == id {
			all[i] = all[i].WithInput(in)
			updated, found = all[i], true
		}
	}
	if !found {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err := w.repo.save(ctx, store.KeyTasks, all); err != nil {
		return model.Task{}, err
	}
	w.tasks = scopeTasks(all, w.columns, w.board.ID)
	w.logger().WithField("task", id).Debug("task updated")
	return updated, nil
}

// DeleteTask removes a task. Under the gap policy the rest of its column
// keeps its order values.
func (w *Workspace) DeleteTask(ctx context.Context, taskID string) error {
	victim, ok := w.Task(taskID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	all, err := w.repo.tasks(ctx)
	if err != nil {
		return err
	}
	kept := make([]model.Task, 0, len(all))
	for _, t := range all {
		if t.ID != taskID {
			kept = append(kept, t)
		}
	}
	if w.repo.engine.Policy == reorder.Dense {
		kept, _ = reorder.Compact(kept, victim.ColumnID)
	}
	if err := w.repo.save(ctx, store.KeyTasks, kept); err != nil {
		return err
	}
	w.tasks = scopeTasks(kept, w.columns, w.board.ID)
	w.logger().WithFields(logrus.Fields{"task": taskID, "column": victim.ColumnID}).Debug("task deleted")
	return nil
}

// DragEnd resolves a completed drag against the working set and writes the
// result through. It reports false, and writes nothing, for a no-op drop.
func (w *Workspace) DragEnd(ctx context.Context, ev reorder.DragEnd) (bool, error) {
	next, changed := w.repo.engine.Resolve(w.tasks, w.columns, ev)
	if !changed {
		w.logger().WithFields(logrus.Fields{"active": ev.Active, "over": ev.Over}).Debug("drop ignored")
		return false, nil
	}
	all, err := w.repo.tasks(ctx)
	if err != nil {
		return false, err
	}
	byID := make(map[string]model.Task, len(next))
	for _, t := range next {
		byID[t.ID] = t
	}
	merged := make([]model.Task, len(all))
	for i, t := range all {
		if u, ok := byID[t.ID]; ok {
			t = u
		}
		merged[i] = t
	}
	if err := w.repo.save(ctx, store.KeyTasks, merged); err != nil {
		return false, err
	}
	w.tasks = scopeTasks(merged, w.columns, w.board.ID)
	w.logger().WithFields(logrus.Fields{"active": ev.Active, "over": ev.Over}).Debug("drop applied")
	return true, nil
}

func (w *Workspace) logger() logrus.FieldLogger {
	return w.repo.log.WithField("board", w.board.ID)
}

func scopeColumns(all []model.Column, boardID string) []model.Column {
	out := make([]model.Column, 0)
	for _, c := range all {
		if c.BoardID == boardID {
			out = append(out, c)
		}
	}
	return out
}

// scopeTasks keeps the tasks whose column, looked up in columns, belongs to
// boardID.
func scopeTasks(all []model.Task, columns []model.Column, boardID string) []model.Task {
	owner := make(map[string]string, len(columns))
	for _, c := range columns {
		owner[c.ID] = c.BoardID
	}
	out := make([]model.Task, 0)
	for _, t := range all {
		if owner[t.ColumnID] == boardID {
			out = append(out, t)
		}
	}
	return out
}
