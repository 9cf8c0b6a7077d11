package listview

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/theme"
)

// OpenListMsg is sent when the user opens a list.
type OpenListMsg struct {
	List model.TodoList
}

// NewListMsg asks for the create-list form.
type NewListMsg struct{}

// EditListMsg asks for the rename form of a list.
type EditListMsg struct {
	List model.TodoList
}

// DeleteListMsg asks to confirm deletion of a list.
type DeleteListMsg struct {
	List model.TodoList
}

// Model is the view of the user's lists.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	loaded  bool
	loadErr string
	width   int
	height  int
}

// New creates a new lists view model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height)
	l.Title = "Lists"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("list", "lists")
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetLists replaces the displayed lists, keeping the selection on the same
// list id when it still exists.
func (m *Model) SetLists(lists []model.TodoList) tea.Cmd {
	selected, hadSelection := m.Selected()

	items := make([]list.Item, len(lists))
	idx := 0
	for i, l := range lists {
		items[i] = Row{List: l}
		if hadSelection && l.ID == selected.ID {
			idx = i
		}
	}
	m.loaded = true
	m.loadErr = ""
	cmd := m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(idx)
	}
	return cmd
}

// SetLoadError shows message in place of the lists when nothing is loaded.
func (m *Model) SetLoadError(message string) {
	m.loadErr = message
}

// Reset forgets the loaded lists, e.g. after logout.
func (m *Model) Reset() {
	m.loaded = false
	m.loadErr = ""
	m.list.SetItems(nil)
}

// Selected returns the focused list.
func (m Model) Selected() (model.TodoList, bool) {
	row, ok := m.list.SelectedItem().(Row)
	if !ok {
		return model.TodoList{}, false
	}
	return row.List, true
}

// Update handles messages for the lists view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select):
			if l, ok := m.Selected(); ok {
				return m, func() tea.Msg { return OpenListMsg{List: l} }
			}
			return m, nil

		case key.Matches(msg, m.keys.New):
			return m, func() tea.Msg { return NewListMsg{} }

		case key.Matches(msg, m.keys.Edit):
			if l, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditListMsg{List: l} }
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if l, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteListMsg{List: l} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the lists view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loadErr != "":
		return style.Render(m.loadErr + "\n\nPress r to retry.")
	case !m.loaded:
		return style.Render("Loading lists...")
	default:
		return style.Render("No lists yet.\n\nPress n to create one.")
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
