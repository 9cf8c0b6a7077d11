package mutation

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/cache"
	"github.com/nhle/todosync/internal/gateway"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/ordering"
	"github.com/nhle/todosync/tests/testserver"
)

// fakeRemote serves reads from memory and fails writes on demand.
type fakeRemote struct {
	mu    sync.Mutex
	lists []model.TodoList
	items map[string][]model.TodoItem

	calls   map[string]int
	errs    []error
	reorder chan struct{}
	orders  map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		lists: []model.TodoList{{ID: "l1", Name: "Groceries"}},
		items: map[string][]model.TodoItem{
			"l1": {
				{ID: "a", ListID: "l1", Title: "Milk", Order: 0},
				{ID: "b", ListID: "l1", Title: "Eggs", Order: 1},
				{ID: "c", ListID: "l1", Title: "Bread", Order: 2},
			},
		},
		calls: make(map[string]int),
	}
}

// failWith queues errors returned by the next write calls, in order.
func (f *fakeRemote) failWith(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, errs...)
}

func (f *fakeRemote) write(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeRemote) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) GetLists(context.Context) ([]model.TodoList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetLists"]++
	return append([]model.TodoList(nil), f.lists...), nil
}

func (f *fakeRemote) GetList(_ context.Context, id string) (*model.TodoList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lists {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, &gateway.Error{Kind: gateway.KindNotFound, HTTPStatus: http.StatusNotFound}
}

func (f *fakeRemote) GetItems(_ context.Context, listID string) ([]model.TodoItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetItems"]++
	return model.CloneItems(f.items[listID]), nil
}

func (f *fakeRemote) CreateList(_ context.Context, in model.ListInput) (*model.TodoList, error) {
	if err := f.write("CreateList"); err != nil {
		return nil, err
	}
	return &model.TodoList{ID: "new", Name: in.Name, Description: in.Description}, nil
}

func (f *fakeRemote) UpdateList(context.Context, string, model.ListInput) error {
	return f.write("UpdateList")
}

func (f *fakeRemote) DeleteList(context.Context, string) error {
	return f.write("DeleteList")
}

func (f *fakeRemote) CreateItem(_ context.Context, listID string, in model.ItemInput) (*model.TodoItem, error) {
	if err := f.write("CreateItem"); err != nil {
		return nil, err
	}
	return &model.TodoItem{ID: "n", ListID: listID, Title: in.Title}, nil
}

func (f *fakeRemote) UpdateItem(_ context.Context, listID, itemID string, in model.ItemInput) (*model.TodoItem, error) {
	if err := f.write("UpdateItem"); err != nil {
		return nil, err
	}
	return &model.TodoItem{ID: itemID, ListID: listID, Title: in.Title}, nil
}

func (f *fakeRemote) DeleteItem(context.Context, string, string) error {
	return f.write("DeleteItem")
}

func (f *fakeRemote) SetItemCompleted(_ context.Context, listID, itemID string, completed bool) (*model.TodoItem, error) {
	if err := f.write("SetItemCompleted"); err != nil {
		return nil, err
	}
	return &model.TodoItem{ID: itemID, ListID: listID, IsCompleted: completed}, nil
}

func (f *fakeRemote) ReorderItems(_ context.Context, _ string, orders map[string]int) error {
	if f.reorder != nil {
		<-f.reorder
	}
	f.mu.Lock()
	f.orders = orders
	f.mu.Unlock()
	return f.write("ReorderItems")
}

func newTestCoordinator(t *testing.T, remote *fakeRemote) *Coordinator {
	t.Helper()
	c := cache.New(cache.Options{Logger: logging.Discard()})
	c.RegisterSource(remote)
	return New(remote, c, Options{Logger: logging.Discard()})
}

func loadItems(t *testing.T, c *Coordinator, listID string) []model.TodoItem {
	t.Helper()
	items, err := c.Cache().ReadItems(context.Background(), listID)
	require.NoError(t, err)
	return items
}

func serverErr() error {
	return &gateway.Error{Kind: gateway.KindServer, HTTPStatus: http.StatusInternalServerError, Message: "boom"}
}

func networkErr() error {
	return &gateway.Error{Kind: gateway.KindNetwork, Message: "offline"}
}

func TestReorderItems_SendsFullOrderMapAndInvalidates(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	loadItems(t, c, "l1")

	plan, err := c.MoveItem(context.Background(), "l1", "a", 2)
	require.NoError(t, err)
	assert.True(t, plan.Changed)
	assert.Equal(t, map[string]int{"b": 0, "c": 1, "a": 2}, remote.orders)
	assert.Equal(t, 1, remote.count("ReorderItems"))

	assert.True(t, c.Cache().IsStale(cache.Items("l1")))
	items, ok := c.Cache().PeekItems("l1")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c", "a"}, itemIDs(ordering.Sorted(items)))
}

func TestReorderItems_NoOpSendsNothing(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	loadItems(t, c, "l1")

	plan, err := c.MoveItem(context.Background(), "l1", "b", 1)
	require.NoError(t, err)
	assert.False(t, plan.Changed)

	_, err = c.MoveItemUp(context.Background(), "l1", "a")
	require.NoError(t, err)
	_, err = c.MoveItemDown(context.Background(), "l1", "c")
	require.NoError(t, err)

	assert.Zero(t, remote.count("ReorderItems"))
	assert.False(t, c.Cache().IsStale(cache.Items("l1")))
}

func TestReorderItems_UnknownItem(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	loadItems(t, c, "l1")

	_, err := c.MoveItem(context.Background(), "l1", "zzz", 0)
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
	assert.Zero(t, remote.count("ReorderItems"))
}

func TestReorderItems_RollsBackExactly(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	loadItems(t, c, "l1")
	before, _ := c.Cache().Peek(cache.Items("l1"))

	remote.failWith(&gateway.Error{Kind: gateway.KindConflict, HTTPStatus: http.StatusConflict})
	_, err := c.MoveItemDown(context.Background(), "l1", "a")
	require.Error(t, err)
	assert.Equal(t, gateway.KindConflict, gateway.KindOf(err))

	after, ok := c.Cache().Peek(cache.Items("l1"))
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, remote.count("ReorderItems"))
}

func TestReorderItems_RejectsConcurrentReorderOfSameList(t *testing.T) {
	remote := newFakeRemote()
	remote.reorder = make(chan struct{})
	c := newTestCoordinator(t, remote)
	loadItems(t, c, "l1")

	done := make(chan error, 1)
	go func() {
		_, err := c.MoveItem(context.Background(), "l1", "a", 2)
		done <- err
	}()

	require.Eventually(t, func() bool { return c.ReorderInProgress("l1") }, time.Second, 5*time.Millisecond)

	_, err := c.MoveItem(context.Background(), "l1", "c", 0)
	assert.ErrorIs(t, err, ErrReorderInProgress)

	close(remote.reorder)
	require.NoError(t, <-done)
	assert.False(t, c.ReorderInProgress("l1"))
	assert.Equal(t, 1, remote.count("ReorderItems"))
}

func TestRun_RetriesOnceForRetryableKinds(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantErr   bool
		wantCalls int
	}{
		{"network then success", []error{networkErr()}, false, 2},
		{"server then success", []error{serverErr()}, false, 2},
		{"server twice", []error{serverErr(), serverErr()}, true, 2},
		{"validation", []error{&gateway.Error{Kind: gateway.KindValidation}}, true, 1},
		{"auth", []error{&gateway.Error{Kind: gateway.KindAuth}}, true, 1},
		{"not found", []error{&gateway.Error{Kind: gateway.KindNotFound}}, true, 1},
		{"conflict", []error{&gateway.Error{Kind: gateway.KindConflict}}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote()
			c := newTestCoordinator(t, remote)
			remote.failWith(tt.errs...)

			err := c.DeleteItem(context.Background(), "l1", "a")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, remote.count("DeleteItem"))
		})
	}
}

func TestDeleteItem_OptimisticThenRollback(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	loadItems(t, c, "l1")
	before, _ := c.Cache().Peek(cache.Items("l1"))

	var seen [][]string
	unsubscribe := c.Cache().Subscribe(cache.Items("l1"), func(_ cache.Key, e cache.Entry, present bool) {
		items, _ := e.Data.([]model.TodoItem)
		seen = append(seen, itemIDs(items))
	})
	defer unsubscribe()

	remote.failWith(&gateway.Error{Kind: gateway.KindNotFound})
	err := c.DeleteItem(context.Background(), "l1", "b")
	require.Error(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, []string{"a", "c"}, seen[0])
	assert.Equal(t, []string{"a", "b", "c"}, seen[1])

	after, _ := c.Cache().Peek(cache.Items("l1"))
	assert.Equal(t, before, after)
}

func TestSetCompleted_PatchesAndInvalidatesAggregates(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	loadItems(t, c, "l1")
	_, err := c.Cache().ReadLists(context.Background())
	require.NoError(t, err)

	item, err := c.ToggleComplete(context.Background(), "l1", "b")
	require.NoError(t, err)
	assert.True(t, item.IsCompleted)

	items, _ := c.Cache().PeekItems("l1")
	for _, it := range items {
		assert.Equal(t, it.ID == "b", it.IsCompleted, it.ID)
	}
	assert.True(t, c.Cache().IsStale(cache.Items("l1")))
	assert.True(t, c.Cache().IsStale(cache.Lists()))
}

func TestUpdateList_PatchesCollectionAndRollsBack(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	_, err := c.Cache().ReadLists(context.Background())
	require.NoError(t, err)
	before, _ := c.Cache().Peek(cache.Lists())

	require.NoError(t, c.UpdateList(context.Background(), "l1", model.ListInput{Name: "  Shopping "}))
	lists, _ := c.Cache().PeekLists()
	assert.Equal(t, "Shopping", lists[0].Name)
	assert.True(t, c.Cache().IsStale(cache.Lists()))

	// Refetch so the rollback target is a fresh entry.
	_, err = c.Cache().ReadLists(context.Background())
	require.NoError(t, err)
	before, _ = c.Cache().Peek(cache.Lists())

	remote.failWith(&gateway.Error{Kind: gateway.KindAuth})
	err = c.UpdateList(context.Background(), "l1", model.ListInput{Name: "Other"})
	require.Error(t, err)
	after, _ := c.Cache().Peek(cache.Lists())
	assert.Equal(t, before, after)
}

func TestDeleteList_DropsDetailAndItems(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	_, err := c.Cache().ReadLists(context.Background())
	require.NoError(t, err)
	_, err = c.Cache().ReadList(context.Background(), "l1")
	require.NoError(t, err)
	loadItems(t, c, "l1")

	require.NoError(t, c.DeleteList(context.Background(), "l1"))

	_, ok := c.Cache().Peek(cache.List("l1"))
	assert.False(t, ok)
	_, ok = c.Cache().Peek(cache.Items("l1"))
	assert.False(t, ok)
	lists, _ := c.Cache().PeekLists()
	assert.Empty(t, lists)
	assert.True(t, c.Cache().IsStale(cache.Lists()))
}

func TestValidation_FailsWithoutNetworkCall(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	long := make([]byte, model.MaxDescriptionLength+1)
	for i := range long {
		long[i] = 'x'
	}
	desc := string(long)

	_, err := c.CreateList(context.Background(), model.ListInput{Name: "   "})
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
	assert.Equal(t, "Name is required.", gateway.UserMessage(err))

	_, err = c.CreateItem(context.Background(), "l1", model.ItemInput{Title: "ok", Description: &desc})
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))

	_, err = c.UpdateItem(context.Background(), "", "a", model.ItemInput{Title: "ok"})
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))

	err = c.UpdateList(context.Background(), "  ", model.ListInput{Name: "Chores"})
	assert.Equal(t, gateway.KindValidation, gateway.KindOf(err))
	assert.Equal(t, "List id is required.", gateway.UserMessage(err))

	assert.Zero(t, remote.count("CreateList"))
	assert.Zero(t, remote.count("CreateItem"))
	assert.Zero(t, remote.count("UpdateItem"))
	assert.Zero(t, remote.count("UpdateList"))
}

func TestCreateItem_InvalidatesAggregates(t *testing.T) {
	remote := newFakeRemote()
	c := newTestCoordinator(t, remote)
	loadItems(t, c, "l1")
	_, err := c.Cache().ReadList(context.Background(), "l1")
	require.NoError(t, err)
	_, err = c.Cache().ReadLists(context.Background())
	require.NoError(t, err)

	_, err = c.CreateItem(context.Background(), "l1", model.ItemInput{Title: "Butter"})
	require.NoError(t, err)

	for _, key := range []cache.Key{cache.Items("l1"), cache.List("l1"), cache.Lists()} {
		assert.True(t, c.Cache().IsStale(key), key.String())
	}
}

func TestCoordinator_AgainstDevServer(t *testing.T) {
	srv := testserver.New(t)
	client := srv.Client(t, "ana")
	c := cache.New(cache.Options{Logger: logging.Discard()})
	c.RegisterSource(client)
	coord := New(client, c, Options{Logger: logging.Discard()})
	ctx := context.Background()

	list, err := coord.CreateList(ctx, model.ListInput{Name: "Chores"})
	require.NoError(t, err)

	first, err := coord.CreateItem(ctx, list.ID, model.ItemInput{Title: "Sweep"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Order)

	for _, title := range []string{"Mop", "Dust"} {
		_, err := coord.CreateItem(ctx, list.ID, model.ItemInput{Title: title})
		require.NoError(t, err)
	}

	items, err := c.ReadItems(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 2, items[2].Order)

	_, err = coord.MoveItem(ctx, list.ID, items[2].ID, 0)
	require.NoError(t, err)

	reloaded, err := c.ReadItems(ctx, list.ID)
	require.NoError(t, err)
	titles := make([]string, len(reloaded))
	for i, it := range reloaded {
		titles[i] = it.Title
	}
	assert.Equal(t, []string{"Dust", "Sweep", "Mop"}, titles)
	assert.True(t, ordering.IsDense(reloaded))
}

func itemIDs(items []model.TodoItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
