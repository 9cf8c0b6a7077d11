// Package mutation wraps every write against the backend with local
// validation, optimistic cache patches, retry, rollback and cache
// invalidation.
package mutation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/cache"
	"github.com/nhle/todosync/internal/gateway"
	"github.com/nhle/todosync/internal/model"
)

// ErrReorderInProgress rejects a reorder while another reorder of the
// same list is still in flight.
var ErrReorderInProgress = &gateway.Error{
	Kind:    gateway.KindConflict,
	Op:      "reorder",
	Message: "A reorder of this list is already in progress.",
}

// Remote is the write side of the backend.
type Remote interface {
	CreateList(ctx context.Context, in model.ListInput) (*model.TodoList, error)
	UpdateList(ctx context.Context, id string, in model.ListInput) error
	DeleteList(ctx context.Context, id string) error
	CreateItem(ctx context.Context, listID string, in model.ItemInput) (*model.TodoItem, error)
	UpdateItem(ctx context.Context, listID, itemID string, in model.ItemInput) (*model.TodoItem, error)
	DeleteItem(ctx context.Context, listID, itemID string) error
	SetItemCompleted(ctx context.Context, listID, itemID string, completed bool) (*model.TodoItem, error)
	ReorderItems(ctx context.Context, listID string, orders map[string]int) error
}

// Options configures a Coordinator.
type Options struct {
	// RetryDelay separates the first attempt from the single retry.
	RetryDelay time.Duration

	Logger *log.Logger
}

// Coordinator is the only writer of the cache for mutation paths.
type Coordinator struct {
	remote Remote
	cache  *cache.Store
	log    *log.Logger
	delay  time.Duration

	mu         sync.Mutex
	reordering map[string]bool
}

// New creates a Coordinator over remote and c.
func New(remote Remote, c *cache.Store, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		remote:     remote,
		cache:      c,
		log:        logger,
		delay:      opts.RetryDelay,
		reordering: make(map[string]bool),
	}
}

// Cache returns the store the coordinator writes to.
func (c *Coordinator) Cache() *cache.Store {
	return c.cache
}

// ReorderInProgress reports whether a reorder of listID is in flight.
func (c *Coordinator) ReorderInProgress(listID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reordering[listID]
}

// run executes call with the mutation retry policy: one retry, and only
// for network and server failures. On failure every snapshot is restored.
func (c *Coordinator) run(
	ctx context.Context,
	op string,
	snaps []cache.Snapshot,
	call func(ctx context.Context) error,
) error {
	err := call(ctx)
	if err != nil && gateway.KindOf(err).Retryable() && ctx.Err() == nil {
		c.log.Debug("retrying mutation", "op", op, "kind", gateway.KindOf(err), "err", err)
		if waitErr := sleep(ctx, c.delay); waitErr == nil {
			err = call(ctx)
		}
	}
	if err != nil {
		if len(snaps) > 0 {
			c.cache.Restore(snaps...)
		}
		err = normalize(op, err)
		c.logFailure(op, err, len(snaps) > 0)
		return err
	}
	return nil
}

func (c *Coordinator) logFailure(op string, err error, rolledBack bool) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		c.log.Error("mutation failed",
			"op", op,
			"kind", gwErr.Kind,
			"status", gwErr.HTTPStatus,
			"rolled_back", rolledBack,
			"err", gwErr.Message,
		)
		return
	}
	c.log.Error("mutation failed", "op", op, "rolled_back", rolledBack, "err", err)
}

// normalize turns cancellation and stray errors into gateway errors so
// callers only ever inspect one shape.
func normalize(op string, err error) error {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &gateway.Error{Kind: gateway.KindNetwork, Op: op, Message: "The request was cancelled.", Err: err}
	}
	return &gateway.Error{Kind: gateway.KindUnknown, Op: op, Message: "Something went wrong.", Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// patchIfPresent applies updater only when key is cached, so optimistic
// state never invents an entry the UI has not loaded.
func (c *Coordinator) patchIfPresent(key cache.Key, updater func(any) any) (cache.Snapshot, bool) {
	if _, ok := c.cache.Peek(key); !ok {
		return cache.Snapshot{}, false
	}
	return c.cache.Patch(key, updater), true
}

func validateText(op, field, value string, required bool, max int) error {
	trimmed := strings.TrimSpace(value)
	if required && trimmed == "" {
		return gateway.NewValidationError(op, field+" is required.")
	}
	if utf8.RuneCountInString(trimmed) > max {
		return gateway.NewValidationError(op, field+" is too long.")
	}
	return nil
}

func validateOptional(op, field string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return validateText(op, field, *value, false, max)
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validationError(op, message string) error {
	return gateway.NewValidationError(op, message)
}
