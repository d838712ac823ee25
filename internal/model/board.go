package model

import "strings"

// Board is a top-level named workspace. Boards are created once and never edited.
type Board struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Column is a named bucket of tasks. BoardID points at the owning board.
type Column struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BoardID string `json:"boardId"`
}

// ValidateBoard checks the board form fields.
func ValidateBoard(name string) error {
	errs := FieldErrors{}
	if strings.TrimSpace(name) == "" {
		errs.Add("name", "Board name is required")
	}
	return errs.Err()
}

// ValidateColumn checks the column form fields.
func ValidateColumn(name string) error {
	errs := FieldErrors{}
	if strings.TrimSpace(name) == "" {
		errs.Add("name", "Column name is required")
	}
	return errs.Err()
}
