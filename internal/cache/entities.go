package cache

import (
	"context"
	"fmt"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/ordering"
)

// Source is the read side of the backend the cache mirrors.
type Source interface {
	GetLists(ctx context.Context) ([]model.TodoList, error)
	GetList(ctx context.Context, id string) (*model.TodoList, error)
	GetItems(ctx context.Context, listID string) ([]model.TodoItem, error)
}

// RegisterSource wires fetchers for every key kind to src.
func (s *Store) RegisterSource(src Source) {
	s.RegisterFetcher(KindLists, func(ctx context.Context, _ Key) (any, error) {
		lists, err := src.GetLists(ctx)
		if err != nil {
			return nil, err
		}
		return lists, nil
	})
	s.RegisterFetcher(KindList, func(ctx context.Context, key Key) (any, error) {
		list, err := src.GetList(ctx, key.ID)
		if err != nil {
			return nil, err
		}
		return *list, nil
	})
	s.RegisterFetcher(KindItems, func(ctx context.Context, key Key) (any, error) {
		items, err := src.GetItems(ctx, key.ID)
		if err != nil {
			return nil, err
		}
		return ordering.Sorted(items), nil
	})
}

// ReadLists returns the cached list collection.
func (s *Store) ReadLists(ctx context.Context) ([]model.TodoList, error) {
	v, err := s.Read(ctx, Lists())
	if err != nil {
		return nil, err
	}
	lists, ok := v.([]model.TodoList)
	if !ok && v != nil {
		return nil, fmt.Errorf("cache entry %s holds %T", Lists(), v)
	}
	return cloneLists(lists), nil
}

// ReadList returns a single cached list.
func (s *Store) ReadList(ctx context.Context, id string) (model.TodoList, error) {
	v, err := s.Read(ctx, List(id))
	if err != nil {
		return model.TodoList{}, err
	}
	list, ok := v.(model.TodoList)
	if !ok {
		return model.TodoList{}, fmt.Errorf("cache entry %s holds %T", List(id), v)
	}
	return list, nil
}

// ReadItems returns the cached items of a list sorted by order.
func (s *Store) ReadItems(ctx context.Context, listID string) ([]model.TodoItem, error) {
	v, err := s.Read(ctx, Items(listID))
	if err != nil {
		return nil, err
	}
	items, ok := v.([]model.TodoItem)
	if !ok && v != nil {
		return nil, fmt.Errorf("cache entry %s holds %T", Items(listID), v)
	}
	return model.CloneItems(items), nil
}

// PeekItems returns the cached items of a list without fetching.
func (s *Store) PeekItems(listID string) ([]model.TodoItem, bool) {
	e, ok := s.Peek(Items(listID))
	if !ok {
		return nil, false
	}
	items, ok := e.Data.([]model.TodoItem)
	if !ok {
		return nil, false
	}
	return model.CloneItems(items), true
}

// PeekLists returns the cached list collection without fetching.
func (s *Store) PeekLists() ([]model.TodoList, bool) {
	e, ok := s.Peek(Lists())
	if !ok {
		return nil, false
	}
	lists, ok := e.Data.([]model.TodoList)
	if !ok {
		return nil, false
	}
	return cloneLists(lists), true
}

func cloneLists(lists []model.TodoList) []model.TodoList {
	if lists == nil {
		return nil
	}
	out := make([]model.TodoList, len(lists))
	copy(out, lists)
	return out
}
