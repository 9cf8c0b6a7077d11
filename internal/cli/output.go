package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/theme"
)

// printer writes command results as text tables or JSON.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(cmd *cobra.Command, opts *RootOptions) *printer {
	return &printer{format: opts.Format, w: cmd.OutOrStdout()}
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// message prints a one-line confirmation, or data as JSON.
func (p *printer) message(text string, data any) error {
	if p.format == "json" {
		return p.json(data)
	}
	_, err := fmt.Fprintln(p.w, text)
	return err
}

func (p *printer) lists(lists []model.TodoList) error {
	if p.format == "json" {
		return p.json(lists)
	}
	if len(lists) == 0 {
		_, err := fmt.Fprintln(p.w, "No lists yet.")
		return err
	}
	t := newTable("ID", "NAME", "DONE", "UPDATED")
	for _, l := range lists {
		t.Row(l.ID, l.Name, fmt.Sprintf("%d/%d", l.CompletedCount, l.ItemCount), l.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_, err := fmt.Fprintln(p.w, t.Render())
	return err
}

func (p *printer) items(items []model.TodoItem) error {
	if p.format == "json" {
		return p.json(items)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(p.w, "No items.")
		return err
	}
	t := newTable("#", "ID", "DONE", "TITLE", "DUE")
	for i, it := range items {
		done := "[ ]"
		if it.IsCompleted {
			done = "[x]"
		}
		due := ""
		if it.DueDate != nil {
			due = it.DueDate.Format("2006-01-02")
		}
		t.Row(strconv.Itoa(i), it.ID, done, it.Title, due)
	}
	_, err := fmt.Fprintln(p.w, t.Render())
	return err
}

func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.Accent).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
