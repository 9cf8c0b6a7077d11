package itemlist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
)

func newTestModel(t *testing.T, ids ...string) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.Open(model.TodoList{ID: "l1", Name: "Chores"})
	items := make([]model.TodoItem, len(ids))
	for i, id := range ids {
		// Reverse the slice order; display order must follow Order.
		items[len(ids)-1-i] = model.TodoItem{ID: id, ListID: "l1", Title: id, Order: i}
	}
	m.SetItems(items)
	return m
}

func displayed(m Model) []string {
	out := make([]string, len(m.Items()))
	for i, it := range m.Items() {
		out[i] = it.ID
	}
	return out
}

func press(m Model, msgs ...tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

func TestModel_SortsByOrder(t *testing.T) {
	m := newTestModel(t, "a", "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, displayed(m))

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", sel.ID)
}

func TestModel_MoveModePreviewAndDrop(t *testing.T) {
	m := newTestModel(t, "a", "b", "c")

	m, _ = press(m, runeKey("m"))
	require.True(t, m.Moving())

	m, _ = press(m, runeKey("j"))
	assert.Equal(t, []string{"b", "a", "c"}, displayed(m))
	m, _ = press(m, runeKey("j"))
	assert.Equal(t, []string{"b", "c", "a"}, displayed(m))

	// Past the end stays put.
	m, _ = press(m, runeKey("j"))
	assert.Equal(t, []string{"b", "c", "a"}, displayed(m))

	m, cmd := press(m, enterKey)
	assert.False(t, m.Moving())
	require.NotNil(t, cmd)
	assert.Equal(t, MoveItemMsg{ListID: "l1", ItemID: "a", ToIndex: 2}, cmd())
}

func TestModel_MoveModeCancelRestoresOrder(t *testing.T) {
	m := newTestModel(t, "a", "b", "c")

	m, _ = press(m, runeKey("m"), runeKey("j"), runeKey("j"))
	assert.Equal(t, []string{"b", "c", "a"}, displayed(m))

	m, cmd := press(m, escKey)
	assert.False(t, m.Moving())
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"a", "b", "c"}, displayed(m))
}

func TestModel_DropInPlaceEmitsNothing(t *testing.T) {
	m := newTestModel(t, "a", "b", "c")

	m, cmd := press(m, runeKey("m"), runeKey("j"), runeKey("k"), enterKey)
	assert.False(t, m.Moving())
	if cmd != nil {
		_, isMove := cmd().(MoveItemMsg)
		assert.False(t, isMove)
	}
	assert.Equal(t, []string{"a", "b", "c"}, displayed(m))
}

func TestModel_UpdatesWhileMovingAreDeferred(t *testing.T) {
	m := newTestModel(t, "a", "b", "c")
	m, _ = press(m, runeKey("m"), runeKey("j"))

	m.SetItems([]model.TodoItem{
		{ID: "a", Order: 0}, {ID: "b", Order: 1}, {ID: "c", Order: 2}, {ID: "d", Order: 3},
	})
	assert.Equal(t, []string{"b", "a", "c"}, displayed(m))

	m, _ = press(m, escKey)
	assert.Equal(t, []string{"a", "b", "c", "d"}, displayed(m))
}

func TestModel_StepKeys(t *testing.T) {
	m := newTestModel(t, "a", "b", "c")

	_, cmd := press(m, runeKey("K"))
	assert.Nil(t, cmd, "top item cannot move up")

	_, cmd = press(m, runeKey("J"))
	require.NotNil(t, cmd)
	assert.Equal(t, StepItemMsg{ListID: "l1", ItemID: "a", Up: false}, cmd())
}

func TestModel_SingleItemCannotEnterMoveMode(t *testing.T) {
	m := newTestModel(t, "a")
	m, _ = press(m, runeKey("m"))
	assert.False(t, m.Moving())
}

func TestModel_ActionMessages(t *testing.T) {
	m := newTestModel(t, "a", "b")

	_, cmd := press(m, runeKey("x"))
	require.NotNil(t, cmd)
	toggle, ok := cmd().(ToggleItemMsg)
	require.True(t, ok)
	assert.Equal(t, "a", toggle.Item.ID)

	_, cmd = press(m, runeKey("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, NewItemMsg{ListID: "l1"}, cmd())

	_, cmd = press(m, escKey)
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestModel_EmptyStates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 10)
	m.Open(model.TodoList{ID: "l1", Name: "Chores"})
	assert.Contains(t, m.View(), "Loading items...")

	m.SetLoadError("Could not reach the server.")
	assert.Contains(t, m.View(), "Could not reach the server.")

	m.SetItems(nil)
	assert.Contains(t, m.View(), "Chores is empty.")
}

func TestModel_EnterOpensDetail(t *testing.T) {
	m := newTestModel(t, "a", "b")

	_, cmd := press(m, enterKey)
	require.NotNil(t, cmd)
	open, ok := cmd().(OpenItemMsg)
	require.True(t, ok)
	assert.Equal(t, "a", open.Item.ID)

	_, cmd = press(m, runeKey("e"))
	require.NotNil(t, cmd)
	edit, ok := cmd().(EditItemMsg)
	require.True(t, ok)
	assert.Equal(t, "a", edit.Item.ID)
}

func TestRowArrows(t *testing.T) {
	tests := []struct {
		name     string
		selected bool
		index    int
		total    int
		want     string
	}{
		{name: "first row", selected: true, index: 0, total: 3, want: "↓"},
		{name: "middle row", selected: true, index: 1, total: 3, want: "↑↓"},
		{name: "last row", selected: true, index: 2, total: 3, want: "↑"},
		{name: "single row", selected: true, index: 0, total: 1, want: ""},
		{name: "unselected", selected: false, index: 1, total: 3, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rowArrows(tt.selected, tt.index, tt.total))
		})
	}
}
