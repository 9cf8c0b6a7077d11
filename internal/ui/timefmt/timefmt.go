// Package timefmt formats timestamps for list rows.
package timefmt

import (
	"fmt"
	"time"
)

// Relative returns a human-friendly relative time string.
func Relative(t time.Time) string {
	return RelativeTo(t, time.Now())
}

// RelativeTo is Relative with an explicit reference time.
func RelativeTo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// DueLabel formats a due date relative to now: "today", "tomorrow",
// "Jan 02" and so on.
func DueLabel(due, now time.Time) string {
	y1, m1, d1 := due.Local().Date()
	y2, m2, d2 := now.Local().Date()
	dueDay := time.Date(y1, m1, d1, 0, 0, 0, 0, time.Local)
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.Local)

	switch days := int(dueDay.Sub(today).Hours() / 24); {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case y1 == y2:
		return due.Local().Format("Jan 02")
	default:
		return due.Local().Format("Jan 02 2006")
	}
}
