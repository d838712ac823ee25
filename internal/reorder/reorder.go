// Package reorder resolves drag-end events into a new task ordering.
//
// The engine never mutates its input. It works on whatever task set the
// caller passes (normally the tasks of one board) and returns a slice of the
// same length with entries in the same positions, so callers can merge the
// result back by id.
package reorder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/idilsaglam/kanban/internal/model"
)

// Policy controls what happens to the column a task leaves.
type Policy int

const (
	// GapTolerant leaves the source column alone after a task departs; its
	// order values may then have a gap.
	GapTolerant Policy = iota
	// Dense renumbers the source column to 0..n-1 after a departure.
	Dense
)

// ParsePolicy accepts "gap" and "compact".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gap", "gap-tolerant":
		return GapTolerant, nil
	case "compact", "dense":
		return Dense, nil
	}
	return GapTolerant, fmt.Errorf("unknown order policy %q (want gap or compact)", s)
}

func (p Policy) String() string {
	if p == Dense {
		return "compact"
	}
	return "gap"
}

// DragEnd is the signal a drag gesture emits when it completes. Over is the
// id of a task or a column, or empty when the card was dropped outside any
// droppable region.
type DragEnd struct {
	Active string
	Over   string
}

// Engine applies drag-end events under a Policy.
type Engine struct {
	Policy Policy
}

// Resolve returns the task set after ev. changed is false for every no-op:
// no target, a drop onto itself, an unknown task or an unknown target.
func (e Engine) Resolve(tasks []model.Task, columns []model.Column, ev DragEnd) (out []model.Task, changed bool) {
	if ev.Over == "" || ev.Active == ev.Over {
		return tasks, false
	}
	active, ok := find(tasks, ev.Active)
	if !ok || active.ColumnID == "" {
		return tasks, false
	}
	over, overIsTask := find(tasks, ev.Over)

	var dest string
	switch {
	case overIsTask:
		dest = over.ColumnID
	case hasColumn(columns, ev.Over):
		dest = ev.Over
	}
	if dest == "" {
		return tasks, false
	}

	if dest == active.ColumnID {
		return e.reorderWithin(tasks, active, ev.Over, overIsTask)
	}
	return e.moveAcross(tasks, active, dest)
}

// reorderWithin relocates the dragged task inside its own column and
// renumbers that column. Dropping onto the column itself moves the task to
// the end.
func (e Engine) reorderWithin(tasks []model.Task, active model.Task, overID string, overIsTask bool) ([]model.Task, bool) {
	col := Sorted(tasks, active.ColumnID)
	from := indexOf(col, active.ID)
	to := len(col) - 1
	if overIsTask {
		to = indexOf(col, overID)
	}
	if from < 0 || to < 0 {
		return tasks, false
	}
	col = Move(col, from, to)

	rank := make(map[string]int, len(col))
	for i, t := range col {
		rank[t.ID] = i
	}
	return renumber(tasks, rank)
}

// moveAcross appends the dragged task to the end of dest. Tasks already in
// dest keep their order values.
func (e Engine) moveAcross(tasks []model.Task, active model.Task, dest string) ([]model.Task, bool) {
	order := NextOrder(tasks, dest)
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].ID == active.ID {
			out[i].ColumnID = dest
			out[i].Order = order
			break
		}
	}
	if e.Policy == Dense {
		out, _ = Compact(out, active.ColumnID)
	}
	return out, true
}

// Move returns a copy of s with the element at from relocated to to. Every
// element between the two positions shifts one slot toward from.
func Move[T any](s []T, from, to int) []T {
	out := make([]T, len(s))
	copy(out, s)
	if from == to || from < 0 || to < 0 || from >= len(s) || to >= len(s) {
		return out
	}
	v := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = v
	return out
}

// NextOrder is the order a task appended to columnID gets: the column's task
// count, or max+1 when an earlier departure left a gap and the count would
// collide with an existing order.
func NextOrder(tasks []model.Task, columnID string) int {
	count, next := 0, 0
	for _, t := range tasks {
		if t.ColumnID != columnID {
			continue
		}
		count++
		if t.Order+1 > next {
			next = t.Order + 1
		}
	}
	if count > next {
		return count
	}
	return next
}

// Sorted returns the tasks of columnID ordered by Order. Ties keep their
// relative position in tasks.
func Sorted(tasks []model.Task, columnID string) []model.Task {
	var col []model.Task
	for _, t := range tasks {
		if t.ColumnID == columnID {
			col = append(col, t)
		}
	}
	sort.SliceStable(col, func(i, j int) bool { return col[i].Order < col[j].Order })
	return col
}

// Compact renumbers columnID to 0..n-1 keeping the current sequence.
// changed reports whether any order value moved.
func Compact(tasks []model.Task, columnID string) ([]model.Task, bool) {
	col := Sorted(tasks, columnID)
	rank := make(map[string]int, len(col))
	for i, t := range col {
		rank[t.ID] = i
	}
	return renumber(tasks, rank)
}

// IsDense reports whether the order values of columnID are exactly 0..n-1.
func IsDense(tasks []model.Task, columnID string) bool {
	for i, t := range Sorted(tasks, columnID) {
		if t.Order != i {
			return false
		}
	}
	return true
}

func renumber(tasks []model.Task, rank map[string]int) ([]model.Task, bool) {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	changed := false
	for i := range out {
		if r, ok := rank[out[i].ID]; ok && out[i].Order != r {
			out[i].Order = r
			changed = true
		}
	}
	return out, changed
}

func find(tasks []model.Task, id string) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func hasColumn(columns []model.Column, id string) bool {
	for _, c := range columns {
		if c.ID == id {
			return true
		}
	}
	return false
}

func indexOf(col []model.Task, id string) int {
	for i, t := range col {
		if t.ID == id {
			return i
		}
	}
	return -1
}
