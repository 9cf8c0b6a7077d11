package app

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/cache"
	"github.com/nhle/todosync/internal/credential"
	"github.com/nhle/todosync/internal/gateway"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/mutation"
	"github.com/nhle/todosync/internal/ordering"
	"github.com/nhle/todosync/internal/session"
	appsync "github.com/nhle/todosync/internal/sync"
	"github.com/nhle/todosync/internal/ui/itemlist"
	"github.com/nhle/todosync/internal/ui/listview"
)

// remote serves one list from memory. Reorders block on gate when it is
// set and fail with reorderErr when that is set.
type remote struct {
	mu         sync.Mutex
	items      []model.TodoItem
	gate       chan struct{}
	entered    chan struct{}
	reorderErr error
}

func newRemote() *remote {
	return &remote{items: []model.TodoItem{
		{ID: "a", ListID: "l1", Title: "Milk", Order: 0},
		{ID: "b", ListID: "l1", Title: "Eggs", Order: 1},
		{ID: "c", ListID: "l1", Title: "Bread", Order: 2},
	}}
}

func (r *remote) GetLists(context.Context) ([]model.TodoList, error) {
	return []model.TodoList{{ID: "l1", Name: "Groceries"}}, nil
}

func (r *remote) GetList(context.Context, string) (*model.TodoList, error) {
	return &model.TodoList{ID: "l1", Name: "Groceries"}, nil
}

func (r *remote) GetItems(context.Context, string) ([]model.TodoItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.CloneItems(r.items), nil
}

func (r *remote) CreateList(context.Context, model.ListInput) (*model.TodoList, error) {
	return &model.TodoList{}, nil
}

func (r *remote) UpdateList(context.Context, string, model.ListInput) error { return nil }

func (r *remote) DeleteList(context.Context, string) error { return nil }

func (r *remote) CreateItem(context.Context, string, model.ItemInput) (*model.TodoItem, error) {
	return &model.TodoItem{}, nil
}

func (r *remote) UpdateItem(context.Context, string, string, model.ItemInput) (*model.TodoItem, error) {
	return &model.TodoItem{}, nil
}

func (r *remote) DeleteItem(context.Context, string, string) error { return nil }

func (r *remote) SetItemCompleted(context.Context, string, string, bool) (*model.TodoItem, error) {
	return &model.TodoItem{}, nil
}

func (r *remote) ReorderItems(ctx context.Context, _ string, _ map[string]int) error {
	if r.gate != nil {
		close(r.entered)
		<-r.gate
	}
	return r.reorderErr
}

type harness struct {
	model Model
	coord *mutation.Coordinator
	cache *cache.Store
}

func newHarness(t *testing.T, r *remote) *harness {
	t.Helper()
	logger := logging.Discard()

	creds := credential.NewMemoryStore()
	require.NoError(t, creds.Set(credential.TokenKey, "opaque-token"))
	sess := session.New(creds, nil, session.Options{
		Logger: logger,
		Getenv: func(string) string { return "" },
	})
	require.NoError(t, sess.Load())
	require.Equal(t, session.StateAuthenticated, sess.State())

	c := cache.New(cache.Options{Logger: logger})
	c.RegisterSource(r)
	coord := mutation.New(r, c, mutation.Options{Logger: logger})
	watcher := appsync.New(c, appsync.Options{Interval: -1, Logger: logger})

	_, err := c.ReadItems(context.Background(), "l1")
	require.NoError(t, err)

	h := &harness{
		model: New(Deps{Session: sess, Mutations: coord, Watcher: watcher, Logger: logger}),
		coord: coord,
		cache: c,
	}
	h.update(tea.WindowSizeMsg{Width: 80, Height: 24})
	h.update(listview.OpenListMsg{List: model.TodoList{ID: "l1", Name: "Groceries"}})
	require.Equal(t, []string{"a", "b", "c"}, h.screen())
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) keys(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		if k == "enter" {
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		}
		cmd = h.update(msg)
	}
	return cmd
}

// drag carries the first item to the bottom in move mode and runs the
// resulting move to completion.
func (h *harness) drag(t *testing.T) {
	t.Helper()
	cmd := h.keys("m", "j", "j", "enter")
	require.NotNil(t, cmd)
	move := cmd()
	require.IsType(t, itemlist.MoveItemMsg{}, move)

	cmd = h.update(move)
	require.NotNil(t, cmd)
	done, ok := cmd().(mutationDoneMsg)
	require.True(t, ok)
	require.Error(t, done.err)
	h.update(done)
}

func (h *harness) screen() []string {
	items := h.model.items.Items()
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func (h *harness) cached(t *testing.T) []string {
	t.Helper()
	items, ok := h.cache.PeekItems("l1")
	require.True(t, ok)
	items = ordering.Sorted(items)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func TestRejectedDrop_RestoresCachedOrder(t *testing.T) {
	r := newRemote()
	r.gate = make(chan struct{})
	r.entered = make(chan struct{})
	h := newHarness(t, r)

	inFlight := make(chan error, 1)
	go func() {
		_, err := h.coord.MoveItemDown(context.Background(), "l1", "b")
		inFlight <- err
	}()
	<-r.entered

	h.drag(t)

	assert.Equal(t, h.cached(t), h.screen(), "the screen must follow the cache after a rejected drop")
	assert.NotEqual(t, []string{"b", "c", "a"}, h.screen())
	assert.Equal(t, gateway.UserMessage(mutation.ErrReorderInProgress), h.model.banner)

	close(r.gate)
	require.NoError(t, <-inFlight)
}

func TestFailedDrop_RestoresOriginalOrder(t *testing.T) {
	r := newRemote()
	r.reorderErr = &gateway.Error{Kind: gateway.KindValidation, Message: "Invalid order."}
	h := newHarness(t, r)

	h.drag(t)

	assert.Equal(t, []string{"a", "b", "c"}, h.screen())
	assert.Equal(t, []string{"a", "b", "c"}, h.cached(t))
	assert.Equal(t, "Invalid order.", h.model.banner)
}
