package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/kanban/internal/board"
	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/store"
)

type memStore struct {
	data     map[string][]byte
	failSave bool
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Save(_ context.Context, key string, v any) error {
	if s.failSave {
		return errors.New("disk full")
	}
	b, err := store.Marshal(v)
	if err != nil {
		return err
	}
	s.data[key] = b
	return nil
}

func (s *memStore) Load(_ context.Context, key string, dst any) (bool, error) {
	b, ok := s.data[key]
	if !ok {
		return false, nil
	}
	return true, store.Unmarshal(b, dst)
}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func press(s string) tea.Msg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, presses ...string) Model {
	t.Helper()
	for _, k := range presses {
		next, _ := m.Update(press(k))
		m = next.(Model)
	}
	return m
}

func validInput(title string) model.TaskInput {
	return model.TaskInput{
		Title:       title,
		Description: "desc",
		CreatedBy:   "ada",
		AssignedTo:  "grace",
		Priority:    model.PriorityHigh,
		DueDate:     "2025-06-01",
	}
}

type fixture struct {
	ctx   context.Context
	st    *memStore
	repo  *board.Repository
	board model.Board
	todo  model.Column
	done  model.Column
}

// seed builds a board with a "To Do" column holding titles and an empty
// "Done" column.
func seed(t *testing.T, titles ...string) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), st: newMemStore()}
	f.repo = board.New(f.st, board.WithLogger(quietLog()))
	var err error
	if f.board, err = f.repo.CreateBoard(f.ctx, "Sprint", ""); err != nil {
		t.Fatal(err)
	}
	ws, err := f.repo.Open(f.ctx, f.board.ID)
	if err != nil {
		t.Fatal(err)
	}
	if f.todo, err = ws.CreateColumn(f.ctx, "To Do"); err != nil {
		t.Fatal(err)
	}
	if f.done, err = ws.CreateColumn(f.ctx, "Done"); err != nil {
		t.Fatal(err)
	}
	for _, title := range titles {
		if _, err := ws.SaveTask(f.ctx, f.todo.ID, validInput(title), ""); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *fixture) open() Model {
	return New(f.ctx, f.repo, Options{BoardID: f.board.ID, Log: quietLog()})
}

// titles reads the persisted column order back from the store.
func (f *fixture) titles(t *testing.T, columnID string) []string {
	t.Helper()
	ws, err := f.repo.Open(f.ctx, f.board.ID)
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, tk := range ws.ColumnTasks(columnID) {
		out = append(out, tk.Title)
	}
	return out
}

func TestBoardListAddAndOpen(t *testing.T) {
	ctx := context.Background()
	repo := board.New(newMemStore(), board.WithLogger(quietLog()))
	m := New(ctx, repo, Options{Log: quietLog()})

	m = send(t, m, "a", "Roadmap", "tab", "Q3 plans", "enter")
	boards, err := repo.Boards(ctx)
	if err != nil || len(boards) != 1 {
		t.Fatalf("boards = %+v, %v", boards, err)
	}
	if boards[0].Name != "Roadmap" || boards[0].Description != "Q3 plans" {
		t.Fatalf("unexpected board %+v", boards[0])
	}
	if m.boards.adding || !strings.Contains(m.status, "Roadmap") {
		t.Fatalf("form still open or no status: %q", m.status)
	}

	m = send(t, m, "enter")
	if m.screen != screenBoard || m.board.ws.Board().ID != boards[0].ID {
		t.Fatal("enter did not open the selected board")
	}
	m = send(t, m, "q")
	if m.screen != screenBoards {
		t.Fatal("q did not go back to the board list")
	}
}

func TestBoardFormShowsFieldErrors(t *testing.T) {
	ctx := context.Background()
	repo := board.New(newMemStore(), board.WithLogger(quietLog()))
	m := New(ctx, repo, Options{Log: quietLog()})

	m = send(t, m, "a", "enter")
	if !m.boards.adding {
		t.Fatal("invalid form closed")
	}
	if got := m.boards.form.errs["name"]; got != "Board name is required" {
		t.Fatalf("name error = %q", got)
	}
	if boards, _ := repo.Boards(ctx); len(boards) != 0 {
		t.Fatal("invalid form wrote a board")
	}
	if !strings.Contains(m.View(), "Board name is required") {
		t.Fatal("error not rendered inline")
	}
	m = send(t, m, "esc")
	if m.boards.adding {
		t.Fatal("esc did not cancel the form")
	}
}

func TestColumnAndTaskForms(t *testing.T) {
	f := seed(t)
	m := f.open()

	m = send(t, m, "c", "Review", "enter")
	cols := m.board.ws.Columns()
	if len(cols) != 3 || cols[2].Name != "Review" || m.board.col != 2 {
		t.Fatalf("column not added or not selected: %+v col=%d", cols, m.board.col)
	}

	m = send(t, m, "r")
	if m.board.form.value("name") != "Review" {
		t.Fatal("rename form not prefilled")
	}
	m = send(t, m, "!", "enter")
	if c, _ := m.board.ws.Column(cols[2].ID); c.Name != "Review!" {
		t.Fatalf("rename failed: %+v", c)
	}

	// Priority is prefilled with medium; tab past it.
	m = send(t, m, "n", "Ship it", "tab", "release notes", "tab", "ada", "tab", "grace", "tab", "tab", "2025-07-01", "enter")
	if m.board.mode != modeNormal {
		t.Fatalf("task form still open, errors %v", m.board.form.errs)
	}
	tasks := m.board.ws.ColumnTasks(cols[2].ID)
	if len(tasks) != 1 || tasks[0].Title != "Ship it" || tasks[0].Priority != model.PriorityMedium || tasks[0].Order != 0 {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	m = send(t, m, "e", "tab", "!", "enter")
	if got, _ := m.board.ws.Task(tasks[0].ID); got.Description != "release notes!" || got.Order != 0 {
		t.Fatalf("edit not applied: %+v", got)
	}
}

func TestTaskFormValidationWritesNothing(t *testing.T) {
	f := seed(t)
	m := f.open()
	before := string(f.st.data[store.KeyTasks])

	m = send(t, m, "n", "enter")
	if m.board.mode != modeForm {
		t.Fatal("invalid task form closed")
	}
	errs := m.board.form.errs
	if errs["title"] != "Title is required" || errs["dueDate"] != "Due date is required" {
		t.Fatalf("unexpected errors %v", errs)
	}
	if string(f.st.data[store.KeyTasks]) != before {
		t.Fatal("invalid form wrote tasks")
	}
}

func TestKeyboardDragWithinColumn(t *testing.T) {
	f := seed(t, "T1", "T2", "T3")
	m := f.open()

	m = send(t, m, "down", "down", " ")
	if m.board.drag == "" {
		t.Fatal("space did not pick up the card")
	}
	m = send(t, m, "up", "up", " ")
	if m.board.drag != "" {
		t.Fatal("card still held after drop")
	}
	want := []string{"T3", "T1", "T2"}
	if got := f.titles(t, f.todo.ID); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if tk, _ := m.board.task(); tk.Title != "T3" {
		t.Fatalf("cursor did not follow the moved card, on %q", tk.Title)
	}
}

func TestKeyboardDragOntoColumnHeader(t *testing.T) {
	f := seed(t, "T1", "T2")
	m := f.open()

	// Empty column: the cursor lands on the header.
	m = send(t, m, " ", "right")
	if m.board.row != -1 || m.board.dropTarget() != f.done.ID {
		t.Fatalf("drop target = %q row=%d", m.board.dropTarget(), m.board.row)
	}
	m = send(t, m, "enter")
	if got := f.titles(t, f.done.ID); len(got) != 1 || got[0] != "T1" {
		t.Fatalf("done = %v", got)
	}
	ws, _ := f.repo.Open(f.ctx, f.board.ID)
	if t2 := ws.ColumnTasks(f.todo.ID)[0]; t2.Order != 1 {
		t.Fatalf("source column renumbered under the gap policy: %+v", t2)
	}
	if m.board.col != 1 || m.board.row != 0 {
		t.Fatalf("cursor at %d,%d", m.board.col, m.board.row)
	}
}

func TestDragCancelWritesNothing(t *testing.T) {
	f := seed(t, "T1", "T2")
	m := f.open()
	before := string(f.st.data[store.KeyTasks])

	m = send(t, m, " ", "down", "esc")
	if m.board.drag != "" || m.screen != screenBoard {
		t.Fatal("esc should only cancel the drag")
	}
	if string(f.st.data[store.KeyTasks]) != before {
		t.Fatal("cancelled drag wrote tasks")
	}
}

func TestDeleteTaskNeedsConfirmation(t *testing.T) {
	f := seed(t, "T1", "T2")
	m := f.open()

	m = send(t, m, "d", "n")
	if got := f.titles(t, f.todo.ID); len(got) != 2 {
		t.Fatalf("declined delete removed a task: %v", got)
	}
	m = send(t, m, "d")
	if !strings.Contains(m.View(), `Delete task "T1"?`) {
		t.Fatal("confirmation prompt not shown")
	}
	m = send(t, m, "y")
	if got := f.titles(t, f.todo.ID); len(got) != 1 || got[0] != "T2" {
		t.Fatalf("after delete: %v", got)
	}
	if tk, ok := m.board.task(); !ok || tk.Title != "T2" {
		t.Fatal("cursor not clamped to the remaining task")
	}
}

func TestDeleteColumnCascades(t *testing.T) {
	f := seed(t, "T1", "T2")
	m := f.open()

	m = send(t, m, "X", "y")
	cols := m.board.ws.Columns()
	if len(cols) != 1 || cols[0].ID != f.done.ID {
		t.Fatalf("columns = %+v", cols)
	}
	if len(m.board.ws.Tasks()) != 0 {
		t.Fatal("tasks of the deleted column survived")
	}
}

func TestStorageErrorShownInStatusLine(t *testing.T) {
	f := seed(t, "T1", "T2")
	m := f.open()
	f.st.failSave = true

	m = send(t, m, "down", " ", "up", " ")
	if !m.statusErr || !strings.Contains(m.status, "disk full") {
		t.Fatalf("status = %q", m.status)
	}
	if !strings.Contains(m.View(), "disk full") {
		t.Fatal("status line not rendered")
	}
	if tk, _ := m.board.ws.Task(m.board.ws.ColumnTasks(f.todo.ID)[0].ID); tk.Title != "T1" {
		t.Fatal("working set changed after a failed write")
	}
}

func TestViewAndDetails(t *testing.T) {
	f := seed(t, "Write docs")
	m := f.open()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	v := m.View()
	for _, want := range []string{"Sprint", "To Do (1)", "Done (0)", "Write docs"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q:\n%s", want, v)
		}
	}

	m = send(t, m, "enter")
	if m.board.mode != modeDetail || !strings.Contains(m.View(), "grace") {
		t.Fatal("details not shown")
	}
	m = send(t, m, "esc")
	if m.board.mode != modeNormal || m.screen != screenBoard {
		t.Fatal("esc should close details only")
	}
}

func TestOpenUnknownBoardStaysOnList(t *testing.T) {
	f := seed(t)
	m := New(f.ctx, f.repo, Options{BoardID: "nope", Log: quietLog()})
	if m.screen != screenBoards || !m.statusErr {
		t.Fatalf("screen=%v status=%q", m.screen, m.status)
	}
}
