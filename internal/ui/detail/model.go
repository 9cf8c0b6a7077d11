package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/theme"
	"github.com/nhle/todosync/internal/ui/timefmt"
)

// BackMsg signals the parent to close the detail view.
type BackMsg struct{}

// EditMsg asks for the edit form of the shown item.
type EditMsg struct{ Item model.TodoItem }

// ToggleMsg flips the completion of the shown item.
type ToggleMsg struct{ Item model.TodoItem }

// DeleteMsg asks to confirm deletion of the shown item.
type DeleteMsg struct{ Item model.TodoItem }

// Model is the item detail view component.
type Model struct {
	item     *model.TodoItem
	position int
	total    int
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// ItemID returns the id of the shown item, or "".
func (m Model) ItemID() string {
	if m.item == nil {
		return ""
	}
	return m.item.ID
}

// Show displays item, which sits at position (zero-based) of a list of
// total items.
func (m *Model) Show(item model.TodoItem, position, total int) {
	m.item = &item
	m.position = position
	m.total = total
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Sync re-renders the shown item from a fresh sequence in display order,
// keeping the scroll offset. It reports false when the item is gone.
func (m *Model) Sync(items []model.TodoItem) bool {
	if m.item == nil {
		return false
	}
	for i, it := range items {
		if it.ID == m.item.ID {
			m.item = &it
			m.position = i
			m.total = len(items)
			m.viewport.SetContent(m.renderContent())
			return true
		}
	}
	m.item = nil
	return false
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.item != nil {
		item := *m.item
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Edit):
			return m, func() tea.Msg { return EditMsg{Item: item} }

		case key.Matches(msg, m.keys.Toggle):
			return m, func() tea.Msg { return ToggleMsg{Item: item} }

		case key.Matches(msg, m.keys.Delete):
			return m, func() tea.Msg { return DeleteMsg{Item: item} }
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.item == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No item selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.item == nil {
		return ""
	}

	item := m.item
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(item.Title))

	status := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render("OPEN")
	if item.IsCompleted {
		status = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("DONE")
	} else if item.IsOverdue() {
		status = theme.OverdueStyle.Render("OVERDUE")
	}
	position := lipgloss.NewStyle().Foreground(theme.ColorGray).
		Render(fmt.Sprintf("#%d of %d", m.position+1, m.total))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, status, "  ", position))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	meta := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-9s", label+":")), valStyle.Render(value))
	}

	if item.DueDate != nil {
		sections = append(sections, meta("Due", item.DueDate.Local().Format("2006-01-02")))
	}
	if !item.CreatedAt.IsZero() {
		sections = append(sections, meta("Created", item.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if !item.UpdatedAt.IsZero() {
		sections = append(sections, meta("Updated", timefmt.Relative(item.UpdatedAt)))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	descHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sections = append(sections, descHeaderStyle.Render("Description"))

	body := item.DescriptionText()
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	} else if m.width > 4 {
		body = lipgloss.NewStyle().Width(min(m.width-4, 80)).Render(body)
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.item != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
