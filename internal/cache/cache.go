// Package cache holds a read-through, write-invalidated mirror of server
// entities keyed by entity kind and id.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/todosync/internal/gateway"
)

// Key kinds.
const (
	KindLists = "lists"
	KindList  = "list"
	KindItems = "items"
)

// Key addresses one cached snapshot.
type Key struct {
	Kind string
	ID   string
}

// Lists is the key of the caller's list collection.
func Lists() Key { return Key{Kind: KindLists} }

// List is the key of a single list.
func List(id string) Key { return Key{Kind: KindList, ID: id} }

// Items is the key of the item collection of a list.
func Items(listID string) Key { return Key{Kind: KindItems, ID: listID} }

func (k Key) String() string {
	if k.ID == "" {
		return k.Kind
	}
	return k.Kind + "/" + k.ID
}

// Entry is the cached state for one key.
type Entry struct {
	Data          any
	LastFetchedAt time.Time
	Stale         bool
}

// Snapshot captures an entry for later restoration. Present is false when
// the key had no entry.
type Snapshot struct {
	Key     Key
	Entry   Entry
	Present bool

	// generation of the key when the snapshot was taken.
	generation uint64
}

// Fetcher loads the value for a key from the backend.
type Fetcher func(ctx context.Context, key Key) (any, error)

// Listener is called after the value or staleness of a key changes.
type Listener func(key Key, entry Entry, present bool)

// Options configures a Store.
type Options struct {
	// MaxAge makes entries older than this read as stale. Zero disables it.
	MaxAge time.Duration

	// ReadRetries is the number of extra fetch attempts after a network
	// or server failure.
	ReadRetries int

	// RetryDelay separates read attempts.
	RetryDelay time.Duration

	Logger *log.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

type subscription struct {
	id int
	fn Listener
}

// Store is the shared cache. Construct it once and inject it.
type Store struct {
	mu          sync.Mutex
	entries     map[Key]*Entry
	generations map[Key]uint64
	removedAt   map[Key]uint64
	fetchers    map[string]Fetcher
	subs        map[Key][]subscription
	nextSubID   int

	group singleflight.Group
	opts  Options
}

// New creates an empty Store.
func New(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Store{
		entries:     make(map[Key]*Entry),
		generations: make(map[Key]uint64),
		removedAt:   make(map[Key]uint64),
		fetchers:    make(map[string]Fetcher),
		subs:        make(map[Key][]subscription),
		opts:        opts,
	}
}

// RegisterFetcher sets the fetcher used for keys of the given kind.
func (s *Store) RegisterFetcher(kind string, f Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchers[kind] = f
}

// Peek returns the current entry without fetching.
func (s *Store) Peek(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	out := *e
	if s.expired(e) {
		out.Stale = true
	}
	return out, true
}

// IsStale reports whether the next Read of key will hit the backend.
func (s *Store) IsStale(key Key) bool {
	e, ok := s.Peek(key)
	return !ok || e.Stale
}

// Read returns the cached value for key, fetching it when the entry is
// stale or absent. Concurrent reads of the same key share one fetch.
func (s *Store) Read(ctx context.Context, key Key) (any, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && !e.Stale && !s.expired(e) {
		data := e.Data
		s.mu.Unlock()
		return data, nil
	}
	fetch, ok := s.fetchers[key.Kind]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for %s", key.Kind)
	}

	// The shared fetch must not die with whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key.String(), func() (any, error) {
		return s.fetch(fetchCtx, key, fetch)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, &gateway.Error{
			Kind:    gateway.KindNetwork,
			Op:      "read " + key.String(),
			Message: "The request was cancelled.",
			Err:     ctx.Err(),
		}
	}
}

// fetch runs the fetcher with the read retry policy and stores the result.
func (s *Store) fetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	s.mu.Lock()
	gen := s.generations[key]
	s.mu.Unlock()

	var (
		data any
		err  error
	)
	for attempt := 0; attempt <= s.opts.ReadRetries; attempt++ {
		if attempt > 0 {
			s.opts.Logger.Debug("retrying read", "key", key.String(), "attempt", attempt, "err", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.opts.RetryDelay):
			}
		}
		data, err = fetch(ctx, key)
		if err == nil || !gateway.KindOf(err).Retryable() {
			break
		}
	}
	if err != nil {
		s.opts.Logger.Warn("cache read failed", "key", key.String(), "kind", gateway.KindOf(err), "err", err)
		return nil, err
	}

	s.mu.Lock()
	if s.removedAt[key] > gen {
		// Removed while in flight; the caller still gets the data.
		s.mu.Unlock()
		return data, nil
	}
	entry := &Entry{
		Data:          data,
		LastFetchedAt: s.opts.Now(),
		// An invalidation that raced this fetch wins: keep the entry stale.
		Stale: s.generations[key] != gen,
	}
	s.entries[key] = entry
	snap := *entry
	s.mu.Unlock()

	s.notify(key, snap, true)
	return data, nil
}

// Invalidate marks keys stale so their next Read refetches.
func (s *Store) Invalidate(keys ...Key) {
	for _, key := range keys {
		s.mu.Lock()
		s.generations[key]++
		e, ok := s.entries[key]
		var snap Entry
		if ok {
			e.Stale = true
			snap = *e
		}
		s.mu.Unlock()

		if ok {
			s.notify(key, snap, true)
		}
	}
}

// InvalidateKind marks every cached key of a kind stale.
func (s *Store) InvalidateKind(kind string) {
	s.Invalidate(s.keysOfKind(kind)...)
}

// Patch synchronously replaces the value of key with updater's result,
// leaving its staleness untouched. The returned snapshot restores the
// previous state. updater receives nil when the key is absent.
func (s *Store) Patch(key Key, updater func(current any) any) Snapshot {
	s.mu.Lock()
	prev := Snapshot{Key: key, generation: s.generations[key]}
	var current any
	e, ok := s.entries[key]
	if ok {
		prev.Entry = *e
		prev.Present = true
		current = e.Data
	}

	next := &Entry{Data: updater(current)}
	if ok {
		next.LastFetchedAt = e.LastFetchedAt
		next.Stale = e.Stale
	}
	s.entries[key] = next
	snap := *next
	s.mu.Unlock()

	s.notify(key, snap, true)
	return prev
}

// Restore puts back an entry captured by Patch or Take. The entry comes
// back exactly as it was unless the key was invalidated after the snapshot,
// in which case it is restored stale. Fetches in flight during the restore
// land stale.
func (s *Store) Restore(snaps ...Snapshot) {
	s.mu.Lock()
	moved := make([]bool, len(snaps))
	for i, snap := range snaps {
		moved[i] = s.generations[snap.Key] != snap.generation
	}
	s.mu.Unlock()

	for i := len(snaps) - 1; i >= 0; i-- {
		snap := snaps[i]
		s.mu.Lock()
		s.generations[snap.Key]++
		e := snap.Entry
		if snap.Present {
			if moved[i] {
				e.Stale = true
			}
			s.entries[snap.Key] = &e
		} else {
			delete(s.entries, snap.Key)
		}
		s.mu.Unlock()
		s.notify(snap.Key, e, snap.Present)
	}
}

// Take captures the current state of key without changing it.
func (s *Store) Take(key Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Key: key, generation: s.generations[key]}
	if e, ok := s.entries[key]; ok {
		snap.Entry = *e
		snap.Present = true
	}
	return snap
}

// Remove drops keys from the cache entirely.
func (s *Store) Remove(keys ...Key) {
	for _, key := range keys {
		s.mu.Lock()
		s.generations[key]++
		s.removedAt[key] = s.generations[key]
		_, ok := s.entries[key]
		delete(s.entries, key)
		s.mu.Unlock()

		if ok {
			s.notify(key, Entry{}, false)
		}
	}
}

// Clear empties the cache, e.g. after logout.
func (s *Store) Clear() {
	s.mu.Lock()
	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	s.Remove(keys...)
}

// Subscribe registers fn for changes to key. The returned function
// removes the subscription.
func (s *Store) Subscribe(key Key, fn Listener) func() {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[key] = append(s.subs[key], subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			list := s.subs[key]
			for i, sub := range list {
				if sub.id == id {
					s.subs[key] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(s.subs[key]) == 0 {
				delete(s.subs, key)
			}
		})
	}
}

// notify calls the listeners of key outside the lock.
func (s *Store) notify(key Key, entry Entry, present bool) {
	s.mu.Lock()
	subs := make([]subscription, len(s.subs[key]))
	copy(subs, s.subs[key])
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(key, entry, present)
	}
}

func (s *Store) keysOfKind(kind string) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []Key
	for k := range s.entries {
		if k.Kind == kind {
			keys = append(keys, k)
		}
	}
	return keys
}

// expired must be called with s.mu held.
func (s *Store) expired(e *Entry) bool {
	return s.opts.MaxAge > 0 && s.opts.Now().Sub(e.LastFetchedAt) > s.opts.MaxAge
}
