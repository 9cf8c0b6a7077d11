package forms

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// ConfirmedMsg is dispatched when the user accepts a confirmation. Payload
// is whatever the caller passed to Start.
type ConfirmedMsg struct {
	Payload any
}

// Confirm asks a yes/no question before a destructive action.
type Confirm struct {
	form    *huh.Form
	answer  *bool
	title   string
	payload any
	frame
}

// NewConfirm creates a confirmation model.
func NewConfirm(width, height int) Confirm {
	return Confirm{answer: new(bool), frame: frame{width, height}}
}

// Start asks question; payload is returned in ConfirmedMsg.
func (m *Confirm) Start(title, question string, payload any) tea.Cmd {
	*m.answer = false
	m.title = title
	m.payload = payload
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Delete").
				Negative("Cancel").
				Value(m.answer),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m.form.Init()
}

// Update handles messages for the confirmation.
func (m Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
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
		if *m.answer {
			payload := m.payload
			return m, func() tea.Msg { return ConfirmedMsg{Payload: payload} }
		}
		return m, func() tea.Msg { return CancelMsg{} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the confirmation.
func (m Confirm) View() string {
	if m.form == nil {
		return ""
	}
	return render(m.title, m.form.View(), "")
}

// SetSize updates the dimensions.
func (m *Confirm) SetSize(width, height int) {
	m.width = width
	m.height = height
}
