package itemlist

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/ordering"
	"github.com/nhle/todosync/internal/theme"
)

// BackMsg returns to the lists view.
type BackMsg struct{}

// NewItemMsg asks for the create-item form.
type NewItemMsg struct{ ListID string }

// OpenItemMsg asks for the detail view of an item.
type OpenItemMsg struct{ Item model.TodoItem }

// EditItemMsg asks for the edit form of an item.
type EditItemMsg struct{ Item model.TodoItem }

// DeleteItemMsg asks to confirm deletion of an item.
type DeleteItemMsg struct{ Item model.TodoItem }

// ToggleItemMsg flips the completion of an item.
type ToggleItemMsg struct{ Item model.TodoItem }

// MoveItemMsg moves an item to an absolute index of the list.
type MoveItemMsg struct {
	ListID  string
	ItemID  string
	ToIndex int
}

// StepItemMsg moves an item one position up or down.
type StepItemMsg struct {
	ListID string
	ItemID string
	Up     bool
}

// Model is the view of one list's items.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	state  *delegateState
	listID string
	name   string

	items   []model.TodoItem
	loaded  bool
	loadErr string

	// Move mode: the item being carried, the order before the move began,
	// and the carried item's current preview index.
	movingID  string
	original  []model.TodoItem
	moveIndex int
	pending   []model.TodoItem
	hasPend   bool

	width  int
	height int
}

// New creates a new items view model.
func New(k *keys.KeyMap, width, height int) Model {
	state := &delegateState{now: time.Now}
	l := list.New([]list.Item{}, Delegate{state: state}, width, height)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("item", "items")
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		state:  state,
		width:  width,
		height: height,
	}
}

// Open switches the view to another list and clears what was shown.
func (m *Model) Open(l model.TodoList) {
	m.listID = l.ID
	m.name = l.Name
	m.items = nil
	m.loaded = false
	m.loadErr = ""
	m.cancelMove()
	m.list.Title = l.Name
	m.list.SetItems(nil)
}

// ListID returns the id of the open list.
func (m Model) ListID() string { return m.listID }

// SetName updates the title, e.g. after a rename.
func (m *Model) SetName(name string) {
	m.name = name
	m.list.Title = name
}

// Moving reports whether move mode is active.
func (m Model) Moving() bool { return m.movingID != "" }

// SetItems replaces the displayed items. While an item is being carried the
// update is held back and applied when move mode ends.
func (m *Model) SetItems(items []model.TodoItem) tea.Cmd {
	items = ordering.Sorted(items)
	m.loaded = true
	m.loadErr = ""
	if m.Moving() {
		m.pending = items
		m.hasPend = true
		return nil
	}
	return m.show(items, m.selectedID())
}

// SetLoadError shows message in place of the items when nothing is loaded.
func (m *Model) SetLoadError(message string) {
	m.loadErr = message
}

// Items returns the displayed items in display order.
func (m Model) Items() []model.TodoItem {
	return m.items
}

// Selected returns the focused item.
func (m Model) Selected() (model.TodoItem, bool) {
	row, ok := m.list.SelectedItem().(Row)
	if !ok {
		return model.TodoItem{}, false
	}
	return row.Item, true
}

func (m Model) selectedID() string {
	if it, ok := m.Selected(); ok {
		return it.ID
	}
	return ""
}

func (m *Model) show(items []model.TodoItem, focusID string) tea.Cmd {
	m.items = items
	rows := make([]list.Item, len(items))
	idx := -1
	for i, it := range items {
		rows[i] = Row{Item: it}
		if it.ID == focusID {
			idx = i
		}
	}
	cmd := m.list.SetItems(rows)
	if idx >= 0 {
		m.list.Select(idx)
	} else if m.list.Index() >= len(rows) && len(rows) > 0 {
		m.list.Select(len(rows) - 1)
	}
	return cmd
}

// Update handles messages for the items view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.Moving() {
			return m.handleMoveKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	listID := m.listID
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewItemMsg{ListID: listID} }

	case key.Matches(msg, m.keys.Select):
		if it, ok := m.Selected(); ok {
			return m, func() tea.Msg { return OpenItemMsg{Item: it} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if it, ok := m.Selected(); ok {
			return m, func() tea.Msg { return EditItemMsg{Item: it} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.Selected(); ok {
			return m, func() tea.Msg { return DeleteItemMsg{Item: it} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.Selected(); ok {
			return m, func() tea.Msg { return ToggleItemMsg{Item: it} }
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveUp):
		it, ok := m.Selected()
		if !ok || !ordering.CanMoveUp(m.items, it.ID) {
			return m, nil
		}
		return m, func() tea.Msg { return StepItemMsg{ListID: listID, ItemID: it.ID, Up: true} }

	case key.Matches(msg, m.keys.MoveDown):
		it, ok := m.Selected()
		if !ok || !ordering.CanMoveDown(m.items, it.ID) {
			return m, nil
		}
		return m, func() tea.Msg { return StepItemMsg{ListID: listID, ItemID: it.ID, Up: false} }

	case key.Matches(msg, m.keys.MoveMode):
		m.beginMove()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleMoveKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.MoveUp):
		m.preview(m.moveIndex - 1)
		return m, nil

	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.MoveDown):
		m.preview(m.moveIndex + 1)
		return m, nil

	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.MoveMode):
		return m, m.drop()

	case key.Matches(msg, m.keys.Back):
		m.cancelMove()
		return m, nil
	}
	return m, nil
}

// beginMove picks up the focused item.
func (m *Model) beginMove() {
	it, ok := m.Selected()
	if !ok || len(m.items) < 2 {
		return
	}
	m.movingID = it.ID
	m.original = model.CloneItems(m.items)
	m.moveIndex = ordering.IndexOf(m.items, it.ID)
	m.state.moving = true
}

// preview shows the list as it would look with the carried item at index.
func (m *Model) preview(index int) {
	if index < 0 || index >= len(m.original) {
		return
	}
	plan, err := ordering.ComputeReorder(m.original, ordering.Move{ItemID: m.movingID, ToIndex: index})
	if err != nil {
		m.cancelMove()
		return
	}
	m.moveIndex = index
	m.show(plan.Items, m.movingID)
}

// drop ends move mode and emits the move when the position changed.
func (m *Model) drop() tea.Cmd {
	itemID, listID := m.movingID, m.listID
	from := ordering.IndexOf(m.original, itemID)
	to := m.moveIndex

	m.endMove()
	if from == to || from < 0 {
		return m.show(m.items, itemID)
	}
	return func() tea.Msg { return MoveItemMsg{ListID: listID, ItemID: itemID, ToIndex: to} }
}

// cancelMove restores the order from before move mode.
func (m *Model) cancelMove() {
	if !m.Moving() {
		return
	}
	itemID := m.movingID
	original := m.original
	deferred := m.hasPend
	m.endMove()
	if !deferred {
		m.show(original, itemID)
	}
}

func (m *Model) endMove() {
	m.movingID = ""
	m.original = nil
	m.state.moving = false
	if m.hasPend {
		items := m.pending
		m.pending = nil
		m.hasPend = false
		m.show(items, m.selectedID())
	}
}

// View renders the items view.
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
		return style.Render("Loading items...")
	default:
		return style.Render(m.name + " is empty.\n\nPress n to add an item.")
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
