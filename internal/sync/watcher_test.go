package sync

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/cache"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
)

func newTestWatcher(t *testing.T) (*Watcher, *cache.Store) {
	t.Helper()
	c := cache.New(cache.Options{Logger: logging.Discard()})
	c.RegisterFetcher(cache.KindLists, func(context.Context, cache.Key) (any, error) {
		return []model.TodoList{{ID: "l1"}}, nil
	})
	w := New(c, Options{Interval: -1, Logger: logging.Discard()})
	t.Cleanup(w.Stop)
	return w, c
}

func next(t *testing.T, w *Watcher) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- w.WaitForChange()() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for watcher message")
		return nil
	}
}

func TestWatcher_ForwardsWatchedChanges(t *testing.T) {
	w, c := newTestWatcher(t)
	w.Watch(cache.Lists())

	_, err := c.ReadLists(context.Background())
	require.NoError(t, err)

	msg := next(t, w)
	assert.Equal(t, CacheChangedMsg{Key: cache.Lists(), Present: true, Stale: false}, msg)

	c.Invalidate(cache.Lists())
	assert.Equal(t, CacheChangedMsg{Key: cache.Lists(), Present: true, Stale: true}, next(t, w))
}

func TestWatcher_IgnoresUnwatchedKeys(t *testing.T) {
	w, c := newTestWatcher(t)
	w.Watch(cache.Items("l1"))
	w.Focus(cache.Lists())

	assert.Equal(t, []cache.Key{cache.Lists()}, w.Watched())

	c.Patch(cache.Items("l1"), func(any) any { return []model.TodoItem{} })
	c.Patch(cache.Lists(), func(any) any { return []model.TodoList{} })

	msg := next(t, w)
	assert.Equal(t, cache.Lists(), msg.(CacheChangedMsg).Key)
}

func TestWatcher_RefreshNowInvalidatesWatched(t *testing.T) {
	w, c := newTestWatcher(t)
	_, err := c.ReadLists(context.Background())
	require.NoError(t, err)
	w.Watch(cache.Lists())

	cmd := w.Start()
	require.NotNil(t, cmd)
	assert.Nil(t, w.Start())

	w.RefreshNow()

	assert.Equal(t, CacheChangedMsg{Key: cache.Lists(), Present: true, Stale: true}, next(t, w))
	refreshed, ok := next(t, w).(RefreshedMsg)
	require.True(t, ok)
	assert.Equal(t, 1, refreshed.Keys)
	assert.True(t, c.IsStale(cache.Lists()))
}

func TestWatcher_StopReleasesWaiters(t *testing.T) {
	c := cache.New(cache.Options{Logger: logging.Discard()})
	w := New(c, Options{Interval: time.Hour, Logger: logging.Discard()})
	w.Watch(cache.Lists())
	w.Start()

	w.Stop()
	assert.Nil(t, w.WaitForChange()())
	assert.Empty(t, w.Watched())
}
