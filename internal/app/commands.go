package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/session"
)

// sessionLoadedMsg ends the initial credential check.
type sessionLoadedMsg struct{ err error }

// loginRequiredMsg is sent when an auth failure ended the session.
type loginRequiredMsg struct{}

// authResultMsg carries the outcome of a login or registration.
type authResultMsg struct {
	user session.User
	err  error
}

// listsLoadedMsg carries the list collection read through the cache.
type listsLoadedMsg struct {
	lists []model.TodoList
	err   error
}

// itemsLoadedMsg carries the items of one list read through the cache.
type itemsLoadedMsg struct {
	listID string
	items  []model.TodoItem
	err    error
}

// mutationDoneMsg reports a finished write. The cache has already been
// patched or invalidated; only failures need handling.
type mutationDoneMsg struct {
	op     string
	listID string
	err    error
}

// defaultOpTimeout bounds a whole mutation including its retry.
const defaultOpTimeout = 30 * time.Second

func (m Model) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.opTimeout)
}

func (m Model) loadSession() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return sessionLoadedMsg{err: s.Load()}
	}
}

// waitForLoginRequired blocks until the session reports an auth failure.
func (m Model) waitForLoginRequired() tea.Cmd {
	ch := m.session.LoginRequired()
	return func() tea.Msg {
		<-ch
		return loginRequiredMsg{}
	}
}

func (m Model) login(emailOrUsername, password string) tea.Cmd {
	s := m.session
	ctx, cancel := m.opContext()
	return func() tea.Msg {
		defer cancel()
		user, err := s.Login(ctx, emailOrUsername, password)
		return authResultMsg{user: user, err: err}
	}
}

func (m Model) register(email, username, password string) tea.Cmd {
	s := m.session
	ctx, cancel := m.opContext()
	return func() tea.Msg {
		defer cancel()
		user, err := s.Register(ctx, email, username, password)
		return authResultMsg{user: user, err: err}
	}
}

func (m Model) loadLists() tea.Cmd {
	c := m.cache
	ctx, cancel := m.opContext()
	return func() tea.Msg {
		defer cancel()
		lists, err := c.ReadLists(ctx)
		return listsLoadedMsg{lists: lists, err: err}
	}
}

func (m Model) loadItems(listID string) tea.Cmd {
	c := m.cache
	ctx, cancel := m.opContext()
	return func() tea.Msg {
		defer cancel()
		items, err := c.ReadItems(ctx, listID)
		return itemsLoadedMsg{listID: listID, items: items, err: err}
	}
}

// mutate runs fn in a command and reports the result as mutationDoneMsg.
func (m Model) mutate(op, listID string, fn func(ctx context.Context) error) tea.Cmd {
	ctx, cancel := m.opContext()
	return func() tea.Msg {
		defer cancel()
		return mutationDoneMsg{op: op, listID: listID, err: fn(ctx)}
	}
}

func (m Model) createList(in model.ListInput) tea.Cmd {
	mu := m.mutations
	return m.mutate("create list", "", func(ctx context.Context) error {
		_, err := mu.CreateList(ctx, in)
		return err
	})
}

func (m Model) updateList(id string, in model.ListInput) tea.Cmd {
	mu := m.mutations
	return m.mutate("update list", id, func(ctx context.Context) error {
		return mu.UpdateList(ctx, id, in)
	})
}

func (m Model) deleteList(id string) tea.Cmd {
	mu := m.mutations
	return m.mutate("delete list", id, func(ctx context.Context) error {
		return mu.DeleteList(ctx, id)
	})
}

func (m Model) createItem(listID string, in model.ItemInput) tea.Cmd {
	mu := m.mutations
	return m.mutate("create item", listID, func(ctx context.Context) error {
		_, err := mu.CreateItem(ctx, listID, in)
		return err
	})
}

func (m Model) updateItem(listID, itemID string, in model.ItemInput) tea.Cmd {
	mu := m.mutations
	return m.mutate("update item", listID, func(ctx context.Context) error {
		_, err := mu.UpdateItem(ctx, listID, itemID, in)
		return err
	})
}

func (m Model) deleteItem(listID, itemID string) tea.Cmd {
	mu := m.mutations
	return m.mutate("delete item", listID, func(ctx context.Context) error {
		return mu.DeleteItem(ctx, listID, itemID)
	})
}

func (m Model) toggleItem(listID, itemID string) tea.Cmd {
	mu := m.mutations
	return m.mutate("toggle item", listID, func(ctx context.Context) error {
		_, err := mu.ToggleComplete(ctx, listID, itemID)
		return err
	})
}

func (m Model) moveItem(listID, itemID string, toIndex int) tea.Cmd {
	mu := m.mutations
	return m.mutate("move item", listID, func(ctx context.Context) error {
		_, err := mu.MoveItem(ctx, listID, itemID, toIndex)
		return err
	})
}

func (m Model) stepItem(listID, itemID string, up bool) tea.Cmd {
	mu := m.mutations
	return m.mutate("move item", listID, func(ctx context.Context) error {
		var err error
		if up {
			_, err = mu.MoveItemUp(ctx, listID, itemID)
		} else {
			_, err = mu.MoveItemDown(ctx, listID, itemID)
		}
		return err
	})
}
