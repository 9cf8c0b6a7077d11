package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	Move    Name = "move"
	Top     Name = "top"
	Bottom  Name = "bottom"
	Refresh Name = "refresh"
	Logout  Name = "logout"
	Help    Name = "help"
	Quit    Name = "quit"
)

var aliases = map[string]Name{
	"move":    Move,
	"mv":      Move,
	"top":     Top,
	"bottom":  Bottom,
	"bot":     Bottom,
	"refresh": Refresh,
	"r":       Refresh,
	"logout":  Logout,
	"help":    Help,
	"quit":    Quit,
	"q":       Quit,
}

// Command is a parsed palette line. Position is 1-based and only set for
// Move.
type Command struct {
	Name     Name
	Position int
}

// Parse reads a palette line such as "move 3" or "top".
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	name, ok := aliases[fields[0]]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
	args := fields[1:]

	if name == Move {
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: move <position>")
		}
		pos, err := strconv.Atoi(args[0])
		if err != nil || pos < 1 {
			return Command{}, fmt.Errorf("position must be a number from 1")
		}
		return Command{Name: Move, Position: pos}, nil
	}
	if len(args) > 0 {
		return Command{}, fmt.Errorf("%s takes no arguments", name)
	}
	return Command{Name: name}, nil
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
}

// ErrorMsg is emitted when the entered line does not parse.
type ErrorMsg struct {
	Err error
}

// CancelMsg closes the palette without running anything.
type CancelMsg struct{}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "move 3, top, bottom, refresh, logout, quit"
	ti.Prompt = ": "
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.input.Reset()
			return m, func() tea.Msg { return CancelMsg{} }

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, func() tea.Msg { return CancelMsg{} }
			}
			c, err := Parse(line)
			if err != nil {
				return m, func() tea.Msg { return ErrorMsg{Err: err} }
			}
			return m, func() tea.Msg { return CommandMsg{Command: c} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.input.View())

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
