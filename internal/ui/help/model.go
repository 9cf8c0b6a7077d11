package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/theme"
)

// CloseMsg asks the root model to leave the help overlay.
type CloseMsg struct{}

// Screen selects which bindings the overlay lists first.
type Screen int

const (
	ScreenLists Screen = iota
	ScreenItems
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	screen Screen
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetScreen picks the screen whose bindings are shown.
func (m *Model) SetScreen(s Screen) {
	m.screen = s
}

// Update handles messages for the help view. Any key except the help
// toggle, which the root model owns, closes the overlay.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return m, func() tea.Msg { return CloseMsg{} }
	}
	return m, nil
}

// groups returns the binding columns for the current screen.
func (m Model) groups() (string, [][]key.Binding) {
	k := m.keys
	general := []key.Binding{k.Refresh, k.Command, k.Dismiss, k.Logout, k.Quit}

	if m.screen == ScreenItems {
		return "Items", [][]key.Binding{
			{k.Up, k.Down, k.Select, k.Back},
			{k.New, k.Edit, k.Delete, k.Toggle},
			{k.MoveUp, k.MoveDown, k.MoveMode},
			general,
		}
	}
	return "Lists", [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.New, k.Edit, k.Delete},
		general,
	}
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	name, groups := m.groups()
	title := titleStyle.Render("Keyboard Shortcuts · " + name)

	m.help.Width = m.width - 4
	sections := []string{title, m.help.FullHelpView(groups)}
	if m.screen == ScreenItems {
		sections = append(sections, "",
			theme.HelpStyle.Render("In move mode j/k carry the item, enter drops it, esc cancels."),
			theme.HelpStyle.Render("Type :move 3, :top or :bottom to place the selected item."))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
