package itemlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/theme"
	"github.com/nhle/todosync/internal/ui/timefmt"
)

// Row wraps a model.TodoItem so it can be used in a bubbles/list.
type Row struct {
	Item model.TodoItem
}

// FilterValue returns the string used for fuzzy filtering.
func (r Row) FilterValue() string { return r.Item.Title }

// Title returns the item title.
func (r Row) Title() string { return r.Item.Title }

// Description returns the item description.
func (r Row) Description() string { return r.Item.DescriptionText() }

// delegateState is shared by reference between the Model and its Delegate
// so move mode is visible while rendering.
type delegateState struct {
	moving bool
	now    func() time.Time
}

// Delegate implements list.ItemDelegate for item rows.
type Delegate struct {
	state *delegateState
}

// Height returns the number of lines each row takes.
func (d Delegate) Height() int { return 1 }

// Spacing returns the number of blank lines between rows.
func (d Delegate) Spacing() int { return 0 }

// Update handles per-row messages (unused).
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single item row.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(Row)
	if !ok {
		return
	}
	selected := index == m.Index()
	fmt.Fprint(w, d.renderRow(row.Item, selected, rowArrows(selected, index, len(m.Items()))))
}

// rowArrows returns the move hints shown on the focused row: no up arrow on
// the first row and no down arrow on the last.
func rowArrows(selected bool, index, total int) string {
	if !selected || total < 2 {
		return ""
	}
	var arrows string
	if index > 0 {
		arrows += "↑"
	}
	if index < total-1 {
		arrows += "↓"
	}
	return arrows
}

func (d Delegate) renderRow(it model.TodoItem, selected bool, arrows string) string {
	check := "[ ]"
	title := it.Title
	if it.IsCompleted {
		check = "[x]"
		title = theme.DimmedStyle.Render(title)
	}

	var extras []string
	if it.DueDate != nil {
		label := "due " + timefmt.DueLabel(*it.DueDate, d.state.now())
		if it.IsOverdue() {
			extras = append(extras, theme.OverdueStyle.Render(label))
		} else {
			extras = append(extras, theme.DueDateStyle.Render(label))
		}
	}
	if it.Description != nil && *it.Description != "" {
		extras = append(extras, theme.HelpStyle.Render("≡"))
	}

	line := check + " " + title
	if len(extras) > 0 {
		line += "  " + strings.Join(extras, " ")
	}

	switch {
	case selected && d.state.moving:
		return theme.MovingItemStyle.Render("↕ " + line)
	case selected:
		if arrows != "" {
			line += "  " + theme.HelpStyle.Render(arrows)
		}
		return theme.SelectedItemStyle.Render(line)
	default:
		return theme.ListItemStyle.Render(line)
	}
}
