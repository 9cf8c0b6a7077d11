package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/todosync/internal/model"
)

// listSelect joins the item aggregates onto each list row.
const listSelect = `
	SELECT
		l.id, l.owner_id, l.name, l.description, l.created_at, l.updated_at,
		(SELECT COUNT(*) FROM items i WHERE i.list_id = l.id) AS item_count,
		(SELECT COUNT(*) FROM items i WHERE i.list_id = l.id AND i.is_completed = 1) AS completed_count
	FROM lists l`

// CreateList inserts a new list owned by ownerID.
func (s *SQLiteStore) CreateList(ctx context.Context, ownerID string, in model.ListInput) (*model.TodoList, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("list name must not be empty: %w", ErrInvalid)
	}

	now := time.Now().UTC()
	list := model.TodoList{
		ID:          uuid.New().String(),
		Name:        name,
		Description: nullableText(in.Description),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (id, owner_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		list.ID, list.OwnerID, list.Name, list.Description, list.CreatedAt, list.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}
	return &list, nil
}

// GetLists returns every list of ownerID, oldest first.
func (s *SQLiteStore) GetLists(ctx context.Context, ownerID string) ([]model.TodoList, error) {
	lists := []model.TodoList{}
	err := s.db.SelectContext(ctx, &lists,
		listSelect+" WHERE l.owner_id = ? ORDER BY l.created_at, l.id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}
	for i := range lists {
		fillCompletion(&lists[i])
	}
	return lists, nil
}

// GetList retrieves a single list by ID.
func (s *SQLiteStore) GetList(ctx context.Context, ownerID, id string) (*model.TodoList, error) {
	var list model.TodoList
	err := s.db.GetContext(ctx, &list,
		listSelect+" WHERE l.id = ? AND l.owner_id = ?", id, ownerID)
	if err != nil {
		return nil, notFound(fmt.Sprintf("getting list %s", id), err)
	}
	fillCompletion(&list)
	return &list, nil
}

// UpdateList replaces the name and description of a list.
func (s *SQLiteStore) UpdateList(ctx context.Context, ownerID, id string, in model.ListInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("list name must not be empty: %w", ErrInvalid)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE lists SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		name, nullableText(in.Description), time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("updating list %s: %w", id, err)
	}
	return requireRow(result, "list "+id)
}

// DeleteList removes a list. Cascades to its items.
func (s *SQLiteStore) DeleteList(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM lists WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting list %s: %w", id, err)
	}
	return requireRow(result, "list "+id)
}

// ownsList reports ErrNotFound unless listID exists and belongs to ownerID.
func ownsList(ctx context.Context, q sqlx.QueryerContext, ownerID, listID string) error {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		"SELECT COUNT(*) FROM lists WHERE id = ? AND owner_id = ?", listID, ownerID)
	if err != nil {
		return fmt.Errorf("checking list %s: %w", listID, err)
	}
	if count == 0 {
		return fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	return nil
}

// fillCompletion marks a list completed when it has items and all are done.
func fillCompletion(l *model.TodoList) {
	l.IsCompleted = l.ItemCount > 0 && l.CompletedCount == l.ItemCount
}
