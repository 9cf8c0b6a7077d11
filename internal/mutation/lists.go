package mutation

import (
	"context"
	"strings"

	"github.com/nhle/todosync/internal/cache"
	"github.com/nhle/todosync/internal/model"
)

func validateListInput(op string, in model.ListInput) error {
	if err := validateText(op, "Name", in.Name, true, model.MaxNameLength); err != nil {
		return err
	}
	return validateOptional(op, "Description", in.Description, model.MaxDescriptionLength)
}

func cleanListInput(in model.ListInput) model.ListInput {
	return model.ListInput{
		Name:        strings.TrimSpace(in.Name),
		Description: normalizeOptional(in.Description),
	}
}

// CreateList creates a list. Invalidates: lists.
func (c *Coordinator) CreateList(ctx context.Context, in model.ListInput) (*model.TodoList, error) {
	const op = "createList"
	if err := validateListInput(op, in); err != nil {
		return nil, err
	}
	in = cleanListInput(in)

	var created *model.TodoList
	err := c.run(ctx, op, nil, func(ctx context.Context) error {
		list, err := c.remote.CreateList(ctx, in)
		created = list
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.Invalidate(cache.Lists())
	return created, nil
}

// UpdateList renames a list. The new name shows immediately in the list
// collection and the list detail. Invalidates: lists, list(id).
func (c *Coordinator) UpdateList(ctx context.Context, id string, in model.ListInput) error {
	const op = "updateList"
	if strings.TrimSpace(id) == "" {
		return validationError(op, "List id is required.")
	}
	if err := validateListInput(op, in); err != nil {
		return err
	}
	in = cleanListInput(in)

	apply := func(l model.TodoList) model.TodoList {
		l.Name = in.Name
		l.Description = in.Description
		return l
	}

	var snaps []cache.Snapshot
	if snap, ok := c.patchIfPresent(cache.Lists(), func(cur any) any {
		lists, _ := cur.([]model.TodoList)
		out := make([]model.TodoList, len(lists))
		for i, l := range lists {
			if l.ID == id {
				l = apply(l)
			}
			out[i] = l
		}
		return out
	}); ok {
		snaps = append(snaps, snap)
	}
	if snap, ok := c.patchIfPresent(cache.List(id), func(cur any) any {
		l, _ := cur.(model.TodoList)
		return apply(l)
	}); ok {
		snaps = append(snaps, snap)
	}

	err := c.run(ctx, op, snaps, func(ctx context.Context) error {
		return c.remote.UpdateList(ctx, id, in)
	})
	if err != nil {
		return err
	}

	c.cache.Invalidate(cache.Lists(), cache.List(id))
	return nil
}

// DeleteList deletes a list and, server-side, its items. The list leaves
// the collection immediately. Invalidates lists and drops list(id) and
// items(id) from the cache.
func (c *Coordinator) DeleteList(ctx context.Context, id string) error {
	const op = "deleteList"
	if strings.TrimSpace(id) == "" {
		return validationError(op, "List id is required.")
	}

	var snaps []cache.Snapshot
	if snap, ok := c.patchIfPresent(cache.Lists(), func(cur any) any {
		lists, _ := cur.([]model.TodoList)
		out := make([]model.TodoList, 0, len(lists))
		for _, l := range lists {
			if l.ID != id {
				out = append(out, l)
			}
		}
		return out
	}); ok {
		snaps = append(snaps, snap)
	}

	err := c.run(ctx, op, snaps, func(ctx context.Context) error {
		return c.remote.DeleteList(ctx, id)
	})
	if err != nil {
		return err
	}

	c.cache.Remove(cache.List(id), cache.Items(id))
	c.cache.Invalidate(cache.Lists())
	return nil
}
