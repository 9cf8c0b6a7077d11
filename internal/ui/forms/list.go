package forms

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/todosync/internal/model"
)

// ListSubmittedMsg carries the values of a completed list form. ListID is
// empty when creating.
type ListSubmittedMsg struct {
	ListID string
	Input  model.ListInput
}

type listBindings struct {
	name        string
	description string
}

// ListForm creates or renames a list.
type ListForm struct {
	form   *huh.Form
	fb     *listBindings
	listID string
	frame
}

// NewListForm creates a list form model.
func NewListForm(width, height int) ListForm {
	return ListForm{fb: &listBindings{}, frame: frame{width, height}}
}

// StartCreate prepares the form for a new list.
func (m *ListForm) StartCreate() tea.Cmd {
	m.listID = ""
	*m.fb = listBindings{}
	m.form = m.build()
	return m.form.Init()
}

// StartEdit prepares the form for editing l.
func (m *ListForm) StartEdit(l model.TodoList) tea.Cmd {
	m.listID = l.ID
	m.fb.name = l.Name
	m.fb.description = l.DescriptionText()
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the list form.
func (m ListForm) Update(msg tea.Msg) (ListForm, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		msg := ListSubmittedMsg{
			ListID: m.listID,
			Input: model.ListInput{
				Name:        strings.TrimSpace(m.fb.name),
				Description: optional(m.fb.description),
			},
		}
		return m, func() tea.Msg { return msg }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the list form.
func (m ListForm) View() string {
	if m.form == nil {
		return ""
	}
	title := "New List"
	if m.listID != "" {
		title = "Edit List"
	}
	return render(title, m.form.View(), "")
}

// SetSize updates the form dimensions.
func (m *ListForm) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *ListForm) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Groceries").
				Value(&m.fb.name).
				Validate(validateRequired("Name", model.MaxNameLength)),
			huh.NewText().
				Title("Description").
				Placeholder("Optional").
				Value(&m.fb.description).
				Validate(validateMaxLength("Description", model.MaxDescriptionLength)),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}
