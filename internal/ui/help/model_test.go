package help

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/keys"
)

func TestModel_ScreenSections(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 30)
	view := m.View()
	assert.Contains(t, view, "Lists")
	assert.NotContains(t, view, "move mode")

	m.SetScreen(ScreenItems)
	view = m.View()
	assert.Contains(t, view, "Items")
	assert.Contains(t, view, "move mode")
}

func TestModel_AnyKeyCloses(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 30)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("z")})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}
