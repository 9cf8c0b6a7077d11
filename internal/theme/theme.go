package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Accent is the highlight color of the active theme.
var Accent = ColorBlue

var (
	// HeaderStyle is used for the application title bar.
	HeaderStyle lipgloss.Style

	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style

	// PanelStyle wraps overlays such as help and confirmation.
	PanelStyle lipgloss.Style

	ListItemStyle     lipgloss.Style
	SelectedItemStyle lipgloss.Style

	// MovingItemStyle marks the item carried in move mode.
	MovingItemStyle lipgloss.Style

	HelpStyle    lipgloss.Style
	DimmedStyle  lipgloss.Style
	DueDateStyle lipgloss.Style
	OverdueStyle lipgloss.Style

	// ErrorBannerStyle renders the dismissible failure banner.
	ErrorBannerStyle lipgloss.Style
)

func init() {
	Apply("default")
}

// Apply selects a named theme. Unknown names fall back to "default".
func Apply(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "green":
		Accent = ColorGreen
	case "magenta":
		Accent = ColorMagenta
	default:
		Accent = ColorBlue
	}
	build()
}

func build() {
	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(Accent).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(ColorSubtle).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(Accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(Accent)

	MovingItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(ColorYellow).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(ColorYellow)

	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	DimmedStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Strikethrough(true)

	DueDateStyle = lipgloss.NewStyle().
		Foreground(ColorGray)

	OverdueStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorRed)

	ErrorBannerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(ColorRed).
		Padding(0, 1)
}

// ProgressStyle returns a color-coded style for a done/total count.
func ProgressStyle(done, total int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch {
	case total == 0:
		return base.Foreground(ColorGray)
	case done == total:
		return base.Foreground(ColorGreen)
	case done == 0:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorYellow)
	}
}
