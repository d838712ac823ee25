// Package tui is the interactive board: a board list and a column view with
// keyboard drag and drop, built on bubbletea.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/kanban/internal/board"
)

type Options struct {
	// BoardID opens that board directly instead of the board list.
	BoardID string
	Log     logrus.FieldLogger
}

type screen int

const (
	screenBoards screen = iota
	screenBoard
)

// Model is the root bubbletea model.
type Model struct {
	ctx  context.Context
	repo *board.Repository
	log  logrus.FieldLogger

	width, height int
	screen        screen
	boards        *boardsScreen
	board         *boardScreen
	help          help.Model

	status    string
	statusErr bool
}

// New builds the model. Loading errors end up in the status line.
func New(ctx context.Context, repo *board.Repository, opts Options) Model {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	m := Model{
		ctx:    ctx,
		repo:   repo,
		log:    opts.Log,
		width:  80,
		height: 24,
		help:   help.New(),
	}
	m.boards = newBoardsScreen()
	m.reloadBoards()
	if opts.BoardID != "" {
		m.openBoard(opts.BoardID)
	}
	return m
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(ctx context.Context, repo *board.Repository, opts Options) error {
	p := tea.NewProgram(New(ctx, repo, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.boards.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	if m.screen == screenBoard && m.board != nil {
		return m.updateBoard(msg)
	}
	return m.updateBoards(msg)
}

func (m Model) View() string {
	var body string
	if m.screen == screenBoard && m.board != nil {
		body = m.viewBoard()
	} else {
		body = m.viewBoards()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

func (m *Model) setStatus(format string, args ...any) {
	m.status, m.statusErr = fmt.Sprintf(format, args...), false
}

// fail reports a storage or lookup error in the status line.
func (m *Model) fail(action string, err error) {
	m.status, m.statusErr = action+": "+err.Error(), true
	m.log.WithError(err).WithField("action", action).Warn("tui action failed")
}

func (m Model) statusLine() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render("✖ " + m.status)
	}
	return successStyle.Render("✔ " + m.status)
}
