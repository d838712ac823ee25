package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/kanban/internal/model"
)

type formResult int

const (
	formEditing formResult = iota
	formSubmitted
	formCancelled
)

type field struct {
	key   string // key in model.FieldErrors
	label string
	input textinput.Model
}

// form is a stack of text inputs with inline field errors. It never touches
// the repository; the owner reads values() on submit.
type form struct {
	title  string
	fields []field
	focus  int
	errs   model.FieldErrors
}

type fieldSpec struct {
	key, label, value, placeholder string
}

func newForm(title string, specs ...fieldSpec) form {
	f := form{title: title}
	for _, s := range specs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = 500
		ti.Placeholder = s.placeholder
		ti.SetValue(s.value)
		ti.CursorEnd()
		f.fields = append(f.fields, field{key: s.key, label: s.label, input: ti})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

func (f form) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			return fl.input.Value()
		}
	}
	return ""
}

// fail shows err under the fields it names. Other errors land on the first
// field.
func (f *form) fail(err error) {
	if fe, ok := model.AsFieldErrors(err); ok {
		f.errs = fe
		return
	}
	f.errs = model.FieldErrors{}
	if len(f.fields) > 0 {
		f.errs.Add(f.fields[0].key, err.Error())
	}
}

func (f form) Update(msg tea.Msg) (form, tea.Cmd, formResult) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			return f, nil, formCancelled
		case "enter":
			return f, nil, formSubmitted
		case "tab", "down":
			return f, f.move(1), formEditing
		case "shift+tab", "up":
			return f, f.move(-1), formEditing
		}
	}
	if len(f.fields) == 0 {
		return f, nil, formEditing
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd, formEditing
}

func (f *form) move(delta int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.fields[f.focus].input.Focus()
}

func (f form) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n")
	for i, fl := range f.fields {
		label := fl.label
		if i == f.focus {
			label = accentStyle.Render(label)
		}
		b.WriteString("\n" + label + "\n" + fl.input.View() + "\n")
		if msg := f.errs[fl.key]; msg != "" {
			b.WriteString(errorStyle.Render(msg) + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("tab next field • enter save • esc cancel"))
	return panelStyle.Render(b.String())
}

func boardForm() form {
	return newForm("New board",
		fieldSpec{key: "name", label: "Name", placeholder: "Sprint 1"},
		fieldSpec{key: "description", label: "Description"},
	)
}

func columnForm(title, value string) form {
	return newForm(title, fieldSpec{key: "name", label: "Name", value: value, placeholder: "To Do"})
}

func taskForm(title string, in model.TaskInput) form {
	return newForm(title,
		fieldSpec{key: "title", label: "Title", value: in.Title},
		fieldSpec{key: "description", label: "Description", value: in.Description},
		fieldSpec{key: "createdBy", label: "Created by", value: in.CreatedBy},
		fieldSpec{key: "assignedTo", label: "Assigned to", value: in.AssignedTo},
		fieldSpec{key: "priority", label: "Priority", value: string(in.Priority), placeholder: "high | medium | low"},
		fieldSpec{key: "dueDate", label: "Due date", value: in.DueDate, placeholder: model.DueDateLayout},
	)
}

func (f form) taskInput() model.TaskInput {
	return model.TaskInput{
		Title:       f.value("title"),
		Description: f.value("description"),
		CreatedBy:   f.value("createdBy"),
		AssignedTo:  f.value("assignedTo"),
		Priority:    model.Priority(f.value("priority")),
		DueDate:     f.value("dueDate"),
	}
}
