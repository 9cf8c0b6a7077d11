// Package sync bridges cache changes and periodic refresh into Bubble Tea
// messages.
package sync

import (
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/cache"
)

// CacheChangedMsg is a tea.Msg sent when a watched cache key changes value
// or staleness. A stale key should be re-read by whoever displays it.
type CacheChangedMsg struct {
	Key     cache.Key
	Present bool
	Stale   bool
}

// RefreshedMsg is a tea.Msg sent after a periodic refresh marked the
// watched keys stale.
type RefreshedMsg struct {
	At   time.Time
	Keys int
}

// defaultInterval applies when Options.Interval is unset.
const defaultInterval = 60 * time.Second

// Options configures a Watcher.
type Options struct {
	// Interval between periodic refreshes. Negative disables them.
	Interval time.Duration

	Logger *log.Logger
}

// Watcher forwards changes of a set of cache keys to the TUI and
// periodically invalidates them so visible data does not go stale.
type Watcher struct {
	cache    *cache.Store
	interval time.Duration
	log      *log.Logger

	changeCh  chan tea.Msg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	watched map[cache.Key]func()
}

// New creates a Watcher over c.
func New(c *cache.Store, opts Options) *Watcher {
	if opts.Interval == 0 {
		opts.Interval = defaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Watcher{
		cache:     c,
		interval:  opts.Interval,
		log:       opts.Logger,
		changeCh:  make(chan tea.Msg, 64),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		watched:   make(map[cache.Key]func()),
	}
}

// Watch adds keys to the watched set.
func (w *Watcher) Watch(keys ...cache.Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, key := range keys {
		if _, ok := w.watched[key]; ok {
			continue
		}
		w.watched[key] = w.cache.Subscribe(key, w.forward)
	}
}

// Unwatch removes keys from the watched set.
func (w *Watcher) Unwatch(keys ...cache.Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, key := range keys {
		if unsub, ok := w.watched[key]; ok {
			unsub()
			delete(w.watched, key)
		}
	}
}

// Focus replaces the watched set with keys. Views call it on navigation.
func (w *Watcher) Focus(keys ...cache.Key) {
	want := make(map[cache.Key]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	w.mu.Lock()
	var drop []cache.Key
	for k := range w.watched {
		if !want[k] {
			drop = append(drop, k)
		}
	}
	w.mu.Unlock()

	w.Unwatch(drop...)
	w.Watch(keys...)
}

// Watched returns the watched keys.
func (w *Watcher) Watched() []cache.Key {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := make([]cache.Key, 0, len(w.watched))
	for k := range w.watched {
		keys = append(keys, k)
	}
	return keys
}

// Start launches the refresh loop and returns the command that delivers
// the first message.
func (w *Watcher) Start() tea.Cmd {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	go w.loop()
	return w.WaitForChange()
}

// Stop ends the refresh loop and drops every subscription.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for k, unsub := range w.watched {
		unsub()
		delete(w.watched, k)
	}
	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
}

// RefreshNow triggers an immediate refresh of the watched keys.
func (w *Watcher) RefreshNow() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// WaitForChange returns a tea.Cmd that waits for the next message. Call it
// again after handling each CacheChangedMsg or RefreshedMsg.
func (w *Watcher) WaitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-w.changeCh:
			return msg
		case <-w.stopCh:
			return nil
		}
	}
}

func (w *Watcher) loop() {
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-w.stopCh:
			return
		case <-tick:
			w.refresh()
		case <-w.triggerCh:
			w.refresh()
		}
	}
}

func (w *Watcher) refresh() {
	keys := w.Watched()
	if len(keys) == 0 {
		return
	}
	w.log.Debug("refreshing watched keys", "count", len(keys))
	w.cache.Invalidate(keys...)
	w.send(RefreshedMsg{At: time.Now(), Keys: len(keys)})
}

func (w *Watcher) forward(key cache.Key, entry cache.Entry, present bool) {
	w.send(CacheChangedMsg{Key: key, Present: present, Stale: entry.Stale})
}

// send delivers msg without blocking the cache; the message is dropped
// when the TUI is far behind.
func (w *Watcher) send(msg tea.Msg) {
	select {
	case w.changeCh <- msg:
	default:
		w.log.Debug("dropping watcher message", "msg", msg)
	}
}
