package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/idilsaglam/kanban/internal/board"
	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/reorder"
)

type mode int

const (
	modeNormal mode = iota
	modeForm
	modeConfirm
	modeDetail
)

type formKind int

const (
	newColumn formKind = iota
	renameColumn
	newTask
	editTask
)

// boardScreen is the column view of one board. row -1 is the column header;
// it can only be selected while a card is held.
type boardScreen struct {
	ws       *board.Workspace
	col, row int
	drag     string // id of the held task

	mode     mode
	form     form
	formKind formKind
	target   string // column or task the open form or confirmation is about

	prompt    string
	onConfirm func() error
}

func (m *Model) openBoard(id string) {
	ws, err := m.repo.Open(m.ctx, id)
	if err != nil {
		m.fail("open board", err)
		return
	}
	m.board = &boardScreen{ws: ws}
	m.screen = screenBoard
	m.status = ""
}

func (s *boardScreen) column() (model.Column, bool) {
	cols := s.ws.Columns()
	if s.col < 0 || s.col >= len(cols) {
		return model.Column{}, false
	}
	return cols[s.col], true
}

func (s *boardScreen) tasks() []model.Task {
	c, ok := s.column()
	if !ok {
		return nil
	}
	return s.ws.ColumnTasks(c.ID)
}

func (s *boardScreen) task() (model.Task, bool) {
	tasks := s.tasks()
	if s.row < 0 || s.row >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[s.row], true
}

// clamp keeps the cursor on an existing column and row.
func (s *boardScreen) clamp() {
	n := len(s.ws.Columns())
	if s.col >= n {
		s.col = n - 1
	}
	if s.col < 0 {
		s.col = 0
	}
	minRow := 0
	if s.drag != "" {
		minRow = -1
	}
	if last := len(s.tasks()) - 1; s.row > last {
		s.row = last
	}
	if s.row < minRow {
		s.row = minRow
	}
}

// selectTask moves the cursor onto id wherever it lives now.
func (s *boardScreen) selectTask(id string) {
	t, ok := s.ws.Task(id)
	if !ok {
		return
	}
	for i, c := range s.ws.Columns() {
		if c.ID != t.ColumnID {
			continue
		}
		s.col = i
		for j, ct := range s.ws.ColumnTasks(c.ID) {
			if ct.ID == id {
				s.row = j
			}
		}
	}
}

// dropTarget is the task under the cursor, or the column when the cursor is
// on the header or in an empty column.
func (s *boardScreen) dropTarget() string {
	if t, ok := s.task(); ok {
		return t.ID
	}
	if c, ok := s.column(); ok {
		return c.ID
	}
	return ""
}

func (m Model) updateBoard(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := m.board
	switch s.mode {
	case modeForm:
		return m.updateBoardForm(msg)
	case modeConfirm:
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "y", "Y":
				s.mode = modeNormal
				if err := s.onConfirm(); err != nil {
					m.fail("delete", err)
				}
				s.clamp()
			case "n", "N", "esc", "q":
				s.mode = modeNormal
			}
		}
		return m, nil
	case modeDetail:
		if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, keys.Back, keys.Details) {
			s.mode = modeNormal
		}
		return m, nil
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if s.drag != "" {
		return m.updateDrag(k)
	}

	switch {
	case key.Matches(k, keys.Left):
		s.col--
		s.clamp()
	case key.Matches(k, keys.Right):
		s.col++
		s.clamp()
	case key.Matches(k, keys.Up):
		s.row--
		s.clamp()
	case key.Matches(k, keys.Down):
		s.row++
		s.clamp()
	case key.Matches(k, keys.Grab):
		if t, ok := s.task(); ok {
			s.drag = t.ID
			m.setStatus("holding %q: move to a target and press space", t.Title)
		}
	case key.Matches(k, keys.Details):
		if _, ok := s.task(); ok {
			s.mode = modeDetail
		}
	case key.Matches(k, keys.NewColumn):
		m.openForm(newColumn, "", columnForm("New column", ""))
	case key.Matches(k, keys.Rename):
		if c, ok := s.column(); ok {
			m.openForm(renameColumn, c.ID, columnForm("Rename column", c.Name))
		}
	case key.Matches(k, keys.DeleteColumn):
		if c, ok := s.column(); ok {
			n := len(s.tasks())
			m.confirm(fmt.Sprintf("Delete column %q and its %d task(s)? (y/n)", c.Name, n), func() error {
				return s.ws.DeleteColumn(m.ctx, c.ID)
			})
		}
	case key.Matches(k, keys.NewTask):
		if c, ok := s.column(); ok {
			m.openForm(newTask, c.ID, taskForm("New task in "+c.Name, model.TaskInput{Priority: model.PriorityMedium}))
		} else {
			m.fail("new task", fmt.Errorf("add a column first"))
		}
	case key.Matches(k, keys.Edit):
		if t, ok := s.task(); ok {
			m.openForm(editTask, t.ID, taskForm("Edit task", t.Input()))
		}
	case key.Matches(k, keys.Delete):
		if t, ok := s.task(); ok {
			m.confirm(fmt.Sprintf("Delete task %q? (y/n)", t.Title), func() error {
				return s.ws.DeleteTask(m.ctx, t.ID)
			})
		}
	case key.Matches(k, keys.Back):
		m.screen = screenBoards
		m.board = nil
		m.reloadBoards()
	}
	return m, nil
}

// updateDrag moves the drop target while a card is held.
func (m Model) updateDrag(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.board
	switch {
	case key.Matches(k, keys.Cancel):
		s.drag = ""
		m.setStatus("move cancelled")
		s.clamp()
	case key.Matches(k, keys.Drop):
		active := s.drag
		s.drag = ""
		changed, err := s.ws.DragEnd(m.ctx, reorder.DragEnd{Active: active, Over: s.dropTarget()})
		if err != nil {
			m.fail("move task", err)
		} else if changed {
			m.setStatus("moved")
		} else {
			m.status = ""
		}
		s.selectTask(active)
		s.clamp()
	case key.Matches(k, keys.Left):
		s.col--
		s.clamp()
	case key.Matches(k, keys.Right):
		s.col++
		s.clamp()
	case key.Matches(k, keys.Up):
		s.row--
		s.clamp()
	case key.Matches(k, keys.Down):
		s.row++
		s.clamp()
	}
	return m, nil
}

func (m *Model) openForm(kind formKind, target string, f form) {
	s := m.board
	s.mode, s.formKind, s.target, s.form = modeForm, kind, target, f
}

func (m *Model) confirm(prompt string, yes func() error) {
	s := m.board
	s.mode, s.prompt, s.onConfirm = modeConfirm, prompt, yes
}

func (m Model) updateBoardForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := m.board
	var cmd tea.Cmd
	var res formResult
	s.form, cmd, res = s.form.Update(msg)
	switch res {
	case formCancelled:
		s.mode = modeNormal
		return m, nil
	case formSubmitted:
		if err := m.submitBoardForm(); err != nil {
			if _, ok := model.AsFieldErrors(err); ok {
				s.form.fail(err)
			} else {
				m.fail("save", err)
			}
			return m, nil
		}
		s.mode = modeNormal
		s.clamp()
		return m, nil
	}
	return m, cmd
}

func (m *Model) submitBoardForm() error {
	s := m.board
	switch s.formKind {
	case newColumn:
		c, err := s.ws.CreateColumn(m.ctx, s.form.value("name"))
		if err != nil {
			return err
		}
		s.col, s.row = len(s.ws.Columns())-1, 0
		m.setStatus("column %q added", c.Name)
	case renameColumn:
		if err := s.ws.RenameColumn(m.ctx, s.target, s.form.value("name")); err != nil {
			return err
		}
		m.setStatus("column renamed")
	case newTask:
		t, err := s.ws.SaveTask(m.ctx, s.target, s.form.taskInput(), "")
		if err != nil {
			return err
		}
		s.selectTask(t.ID)
		m.setStatus("task %q added", t.Title)
	case editTask:
		t, err := s.ws.SaveTask(m.ctx, "", s.form.taskInput(), s.target)
		if err != nil {
			return err
		}
		m.setStatus("task %q saved", t.Title)
	}
	return nil
}

func (m Model) viewBoard() string {
	s := m.board
	switch s.mode {
	case modeForm:
		return s.form.View()
	case modeDetail:
		if t, ok := s.task(); ok {
			return taskDetail(t)
		}
	}

	b := s.ws.Board()
	header := titleStyle.Render(b.Name)
	if b.Description != "" {
		header += "  " + mutedStyle.Render(b.Description)
	}

	cols := s.ws.Columns()
	var body string
	if len(cols) == 0 {
		body = mutedStyle.Render("No columns yet. Press c to add one.")
	} else {
		width := m.width/len(cols) - 4
		if width < 18 {
			width = 18
		}
		rendered := make([]string, 0, len(cols))
		for i, c := range cols {
			rendered = append(rendered, s.renderColumn(i, c, width))
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}

	footer := m.help.View(keys)
	if s.drag != "" {
		footer = m.help.View(dragKeys{})
	}
	if s.mode == modeConfirm {
		footer = errorStyle.Render(s.prompt)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (s *boardScreen) renderColumn(i int, c model.Column, width int) string {
	tasks := s.ws.ColumnTasks(c.ID)
	active := i == s.col

	head := fmt.Sprintf("%s (%d)", runewidth.Truncate(c.Name, width-5, "…"), len(tasks))
	switch {
	case active && s.drag != "" && s.row == -1:
		head = targetStyle.Render(head)
	case active:
		head = accentStyle.Render(head)
	default:
		head = titleStyle.Render(head)
	}

	lines := []string{head}
	if len(tasks) == 0 {
		lines = append(lines, mutedStyle.Render("(empty)"))
	}
	for j, t := range tasks {
		title := runewidth.Truncate(t.Title, width-2, "…")
		line := priorityBadge(t.Priority) + " " + title
		switch {
		case t.ID == s.drag:
			line = draggingStyle.Render("⇅ " + title)
		case active && j == s.row && s.drag != "":
			line = targetStyle.Render("▸ " + title)
		case active && j == s.row:
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	st := columnStyle
	if active {
		st = activeColumnStyle
	}
	return st.Width(width).Render(strings.Join(lines, "\n"))
}

func taskDetail(t model.Task) string {
	row := func(label, v string) string {
		if v == "" {
			v = "-"
		}
		return mutedStyle.Render(fmt.Sprintf("%-12s", label)) + v
	}
	lines := []string{
		titleStyle.Render(t.Title),
		"",
		row("Description", t.Description),
		row("Priority", priorityBadge(t.Priority)+" "+string(t.Priority)),
		row("Created by", t.CreatedBy),
		row("Assigned to", t.AssignedTo),
		row("Due", t.DueDate),
		row("Id", t.ID),
		"",
		helpStyle.Render("q/esc back"),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}
