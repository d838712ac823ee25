package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/kanban/internal/model"
)

// boardItem adapts model.Board to bubbles/list.Item.
type boardItem struct{ b model.Board }

func (i boardItem) Title() string       { return i.b.Name }
func (i boardItem) Description() string { return i.b.Description }
func (i boardItem) FilterValue() string { return i.b.Name }

type boardsScreen struct {
	list   list.Model
	adding bool
	form   form
}

var (
	addBoardKey  = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add board"))
	openBoardKey = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open"))
)

func newBoardsScreen() *boardsScreen {
	l := list.New(nil, list.NewDefaultDelegate(), 76, 18)
	l.Title = "Boards"
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("board", "boards")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{addBoardKey, openBoardKey} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{addBoardKey, openBoardKey} }
	return &boardsScreen{list: l}
}

func (m *Model) reloadBoards() {
	boards, err := m.repo.Boards(m.ctx)
	if err != nil {
		m.fail("load boards", err)
		return
	}
	items := make([]list.Item, 0, len(boards))
	for _, b := range boards {
		items = append(items, boardItem{b: b})
	}
	m.boards.list.SetItems(items)
}

func (m Model) updateBoards(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := m.boards
	if s.adding {
		var cmd tea.Cmd
		var res formResult
		s.form, cmd, res = s.form.Update(msg)
		switch res {
		case formCancelled:
			s.adding = false
		case formSubmitted:
			b, err := m.repo.CreateBoard(m.ctx, s.form.value("name"), s.form.value("description"))
			if err != nil {
				if _, ok := model.AsFieldErrors(err); ok {
					s.form.fail(err)
				} else {
					m.fail("create board", err)
				}
				return m, nil
			}
			s.adding = false
			m.reloadBoards()
			s.list.Select(len(s.list.Items()) - 1)
			m.setStatus("board %q created", b.Name)
		}
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok && s.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(k, addBoardKey):
			s.adding = true
			s.form = boardForm()
			return m, nil
		case key.Matches(k, openBoardKey):
			if it, ok := s.list.SelectedItem().(boardItem); ok {
				m.openBoard(it.b.ID)
			}
			return m, nil
		case k.String() == "q", k.String() == "esc" && s.list.FilterState() == list.Unfiltered:
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return m, cmd
}

func (m Model) viewBoards() string {
	s := m.boards
	if s.adding {
		return s.form.View()
	}
	return panelStyle.Render(s.list.View())
}
