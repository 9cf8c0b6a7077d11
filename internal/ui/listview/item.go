package listview

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/theme"
	"github.com/nhle/todosync/internal/ui/timefmt"
)

// Row wraps a model.TodoList so it can be used in a bubbles/list.
type Row struct {
	List model.TodoList
}

// FilterValue returns the string used for fuzzy filtering.
func (r Row) FilterValue() string { return r.List.Name }

// Title returns the list name.
func (r Row) Title() string { return r.List.Name }

// Description returns the list description.
func (r Row) Description() string { return r.List.DescriptionText() }

// Delegate implements list.ItemDelegate for list rows.
type Delegate struct{}

// Height returns the number of lines each row takes.
func (d Delegate) Height() int { return 1 }

// Spacing returns the number of blank lines between rows.
func (d Delegate) Spacing() int { return 0 }

// Update handles per-row messages (unused).
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single list row.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(Row)
	if !ok {
		return
	}
	l := row.List

	progress := theme.ProgressStyle(l.CompletedCount, l.ItemCount).
		Render(fmt.Sprintf("%d/%d", l.CompletedCount, l.ItemCount))

	desc := ""
	if text := l.DescriptionText(); text != "" {
		desc = theme.HelpStyle.Render("  " + truncate(text, 40))
	}

	updated := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + timefmt.Relative(l.UpdatedAt))

	line := fmt.Sprintf("%s %s%s%s", progress, l.Name, desc, updated)
	if l.IsCompleted {
		line = fmt.Sprintf("%s %s%s%s", progress, theme.DimmedStyle.Render(l.Name), desc, updated)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
