package model

import (
	"strings"
	"time"
)

// Priority of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// DueDateLayout is the calendar date format used for Task.DueDate.
const DueDateLayout = "2006-01-02"

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is a card owned by exactly one column. Order is its zero-based rank
// inside that column and means nothing across columns.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CreatedBy   string   `json:"createdBy"`
	AssignedTo  string   `json:"assignedTo"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate"`
	ColumnID    string   `json:"columnId"`
	Order       int      `json:"order"`
}

// TaskInput holds the user-editable fields of a task.
type TaskInput struct {
	Title       string
	Description string
	CreatedBy   string
	AssignedTo  string
	Priority    Priority
	DueDate     string
}

// Normalize trims every field and defaults an empty priority to medium.
func (in TaskInput) Normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.Priority = Priority(strings.ToLower(strings.TrimSpace(string(in.Priority))))
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	return in
}

// Validate reports every failing field at once. Call it on a normalized input.
func (in TaskInput) Validate() error {
	errs := FieldErrors{}
	if in.Title == "" {
		errs.Add("title", "Title is required")
	}
	if in.Description == "" {
		errs.Add("description", "Description is required")
	}
	if in.CreatedBy == "" {
		errs.Add("createdBy", "Creator name is required")
	}
	if in.AssignedTo == "" {
		errs.Add("assignedTo", "Assignee is required")
	}
	if !in.Priority.Valid() {
		errs.Add("priority", "Priority must be high, medium or low")
	}
	if in.DueDate == "" {
		errs.Add("dueDate", "Due date is required")
	} else if _, err := time.Parse(DueDateLayout, in.DueDate); err != nil {
		errs.Add("dueDate", "Due date must be YYYY-MM-DD")
	}
	return errs.Err()
}

// Input returns the editable fields of t.
func (t Task) Input() TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
	}
}

// WithInput replaces the editable fields. ID, ColumnID and Order are kept.
func (t Task) WithInput(in TaskInput) Task {
	t.Title = in.Title
	t.Description = in.Description
	t.CreatedBy = in.CreatedBy
	t.AssignedTo = in.AssignedTo
	t.Priority = in.Priority
	t.DueDate = in.DueDate
	return t
}
