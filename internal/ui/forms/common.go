// Package forms holds the huh-based input forms of the TUI.
package forms

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/theme"
)

// CancelMsg is dispatched when the user aborts any form.
type CancelMsg struct{}

const dateLayout = "2006-01-02"

type frame struct {
	width  int
	height int
}

func (f frame) formWidth() int {
	w := f.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (f frame) formHeight() int {
	h := f.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func render(title, body, errText string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(title) + "\n"
	if errText != "" {
		content += lipgloss.NewStyle().Foreground(theme.ColorRed).Render(errText) + "\n\n"
	}
	content += body

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

func validateRequired(fieldName string, max int) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		if utf8.RuneCountInString(s) > max {
			return fmt.Errorf("%s must be at most %d characters", fieldName, max)
		}
		return nil
	}
}

func validateMaxLength(fieldName string, max int) func(string) error {
	return func(s string) error {
		if utf8.RuneCountInString(strings.TrimSpace(s)) > max {
			return fmt.Errorf("%s must be at most %d characters", fieldName, max)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

// optional returns nil for blank input.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
