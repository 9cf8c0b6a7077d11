package mutation

import (
	"context"
	"strings"

	"github.com/nhle/todosync/internal/cache"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/ordering"
)

func validateItemInput(op string, in model.ItemInput) error {
	if err := validateText(op, "Title", in.Title, true, model.MaxNameLength); err != nil {
		return err
	}
	return validateOptional(op, "Description", in.Description, model.MaxDescriptionLength)
}

func cleanItemInput(in model.ItemInput) model.ItemInput {
	return model.ItemInput{
		Title:       strings.TrimSpace(in.Title),
		Description: normalizeOptional(in.Description),
		DueDate:     in.DueDate,
	}
}

func requireIDs(op string, ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return validationError(op, "A list and item must be selected.")
		}
	}
	return nil
}

// itemsAggregateKeys are the keys whose data shows item counts or
// completion for a list.
func itemsAggregateKeys(listID string) []cache.Key {
	return []cache.Key{cache.Items(listID), cache.List(listID), cache.Lists()}
}

// patchItems optimistically rewrites the cached items of a list.
func (c *Coordinator) patchItems(listID string, fn func([]model.TodoItem) []model.TodoItem) []cache.Snapshot {
	snap, ok := c.patchIfPresent(cache.Items(listID), func(cur any) any {
		items, _ := cur.([]model.TodoItem)
		return fn(model.CloneItems(items))
	})
	if !ok {
		return nil
	}
	return []cache.Snapshot{snap}
}

// CreateItem appends an item to a list. Invalidates: items(listID),
// list(listID), lists.
func (c *Coordinator) CreateItem(ctx context.Context, listID string, in model.ItemInput) (*model.TodoItem, error) {
	const op = "createItem"
	if err := requireIDs(op, listID); err != nil {
		return nil, err
	}
	if err := validateItemInput(op, in); err != nil {
		return nil, err
	}
	in = cleanItemInput(in)

	var created *model.TodoItem
	err := c.run(ctx, op, nil, func(ctx context.Context) error {
		item, err := c.remote.CreateItem(ctx, listID, in)
		created = item
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.Invalidate(itemsAggregateKeys(listID)...)
	return created, nil
}

// UpdateItem edits an item's title, description and due date.
// Invalidates: items(listID), list(listID).
func (c *Coordinator) UpdateItem(ctx context.Context, listID, itemID string, in model.ItemInput) (*model.TodoItem, error) {
	const op = "updateItem"
	if err := requireIDs(op, listID, itemID); err != nil {
		return nil, err
	}
	if err := validateItemInput(op, in); err != nil {
		return nil, err
	}
	in = cleanItemInput(in)

	snaps := c.patchItems(listID, func(items []model.TodoItem) []model.TodoItem {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Title = in.Title
				items[i].Description = in.Description
				items[i].DueDate = in.DueDate
			}
		}
		return items
	})

	var updated *model.TodoItem
	err := c.run(ctx, op, snaps, func(ctx context.Context) error {
		item, err := c.remote.UpdateItem(ctx, listID, itemID, in)
		updated = item
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.Invalidate(cache.Items(listID), cache.List(listID))
	return updated, nil
}

// DeleteItem removes an item. It disappears from the cached list at once.
// Invalidates: items(listID), list(listID), lists.
func (c *Coordinator) DeleteItem(ctx context.Context, listID, itemID string) error {
	const op = "deleteItem"
	if err := requireIDs(op, listID, itemID); err != nil {
		return err
	}

	snaps := c.patchItems(listID, func(items []model.TodoItem) []model.TodoItem {
		out := items[:0]
		for _, it := range items {
			if it.ID != itemID {
				out = append(out, it)
			}
		}
		return out
	})

	err := c.run(ctx, op, snaps, func(ctx context.Context) error {
		return c.remote.DeleteItem(ctx, listID, itemID)
	})
	if err != nil {
		return err
	}

	c.cache.Invalidate(itemsAggregateKeys(listID)...)
	return nil
}

// SetCompleted sets the completion flag of an item. Invalidates:
// items(listID), list(listID), lists.
func (c *Coordinator) SetCompleted(ctx context.Context, listID, itemID string, completed bool) (*model.TodoItem, error) {
	const op = "toggleComplete"
	if err := requireIDs(op, listID, itemID); err != nil {
		return nil, err
	}

	snaps := c.patchItems(listID, func(items []model.TodoItem) []model.TodoItem {
		for i := range items {
			if items[i].ID == itemID {
				items[i].IsCompleted = completed
			}
		}
		return items
	})

	var updated *model.TodoItem
	err := c.run(ctx, op, snaps, func(ctx context.Context) error {
		item, err := c.remote.SetItemCompleted(ctx, listID, itemID, completed)
		updated = item
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.Invalidate(itemsAggregateKeys(listID)...)
	return updated, nil
}

// ToggleComplete flips the completion flag of an item as currently cached.
func (c *Coordinator) ToggleComplete(ctx context.Context, listID, itemID string) (*model.TodoItem, error) {
	items, err := c.currentItems(ctx, listID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == itemID {
			return c.SetCompleted(ctx, listID, itemID, !it.IsCompleted)
		}
	}
	return nil, validationError("toggleComplete", "That item is no longer in the list.")
}

// ReorderItems moves one item to a new index and sends the full relabeled
// order map in a single request. No request is sent for no-op moves. A
// second reorder of the same list while one is in flight is rejected with
// ErrReorderInProgress. Invalidates: items(listID).
func (c *Coordinator) ReorderItems(ctx context.Context, listID string, mv ordering.Move) (ordering.Plan, error) {
	return c.reorder(ctx, listID, func(items []model.TodoItem) (ordering.Plan, error) {
		return ordering.ComputeReorder(items, mv)
	})
}

// MoveItem is an alias of ReorderItems for drag-style moves.
func (c *Coordinator) MoveItem(ctx context.Context, listID, itemID string, toIndex int) (ordering.Plan, error) {
	return c.ReorderItems(ctx, listID, ordering.Move{ItemID: itemID, ToIndex: toIndex})
}

// MoveItemUp moves an item one step toward the top.
func (c *Coordinator) MoveItemUp(ctx context.Context, listID, itemID string) (ordering.Plan, error) {
	return c.reorder(ctx, listID, func(items []model.TodoItem) (ordering.Plan, error) {
		return ordering.MoveUp(items, itemID)
	})
}

// MoveItemDown moves an item one step toward the bottom.
func (c *Coordinator) MoveItemDown(ctx context.Context, listID, itemID string) (ordering.Plan, error) {
	return c.reorder(ctx, listID, func(items []model.TodoItem) (ordering.Plan, error) {
		return ordering.MoveDown(items, itemID)
	})
}

func (c *Coordinator) reorder(
	ctx context.Context,
	listID string,
	compute func([]model.TodoItem) (ordering.Plan, error),
) (ordering.Plan, error) {
	const op = "reorderItems"
	if err := requireIDs(op, listID); err != nil {
		return ordering.Plan{}, err
	}

	if !c.beginReorder(listID) {
		c.log.Warn("reorder rejected", "list", listID, "reason", "in progress")
		return ordering.Plan{}, ErrReorderInProgress
	}
	defer c.endReorder(listID)

	items, err := c.currentItems(ctx, listID)
	if err != nil {
		return ordering.Plan{}, err
	}
	if len(items) < 2 {
		return ordering.Plan{Items: items, Orders: map[string]int{}}, nil
	}

	plan, err := compute(items)
	if err != nil {
		return ordering.Plan{}, validationError(op, "That item is no longer in the list.")
	}
	if !plan.Changed {
		return plan, nil
	}

	snaps := c.patchItems(listID, func([]model.TodoItem) []model.TodoItem {
		return model.CloneItems(plan.Items)
	})

	err = c.run(ctx, op, snaps, func(ctx context.Context) error {
		return c.remote.ReorderItems(ctx, listID, plan.Orders)
	})
	if err != nil {
		return ordering.Plan{}, err
	}

	c.cache.Invalidate(cache.Items(listID))
	return plan, nil
}

func (c *Coordinator) beginReorder(listID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reordering[listID] {
		return false
	}
	c.reordering[listID] = true
	return true
}

func (c *Coordinator) endReorder(listID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reordering, listID)
}

// currentItems prefers the cached snapshot, which may hold optimistic
// state, and only reads through when nothing is cached.
func (c *Coordinator) currentItems(ctx context.Context, listID string) ([]model.TodoItem, error) {
	if items, ok := c.cache.PeekItems(listID); ok {
		return ordering.Sorted(items), nil
	}
	items, err := c.cache.ReadItems(ctx, listID)
	if err != nil {
		return nil, normalize("readItems", err)
	}
	return ordering.Sorted(items), nil
}
