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

const itemSelect = `
	SELECT id, list_id, title, description, is_completed, due_date, sort_order, created_at, updated_at
	FROM items`

// CreateItem appends an item to a list. Its sort_order is max+1 within the
// list, or 0 for the first item.
func (s *SQLiteStore) CreateItem(ctx context.Context, ownerID, listID string, in model.ItemInput) (*model.TodoItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("item title must not be empty: %w", ErrInvalid)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownsList(ctx, tx, ownerID, listID); err != nil {
		return nil, err
	}

	var maxOrder int
	err = tx.GetContext(ctx, &maxOrder,
		"SELECT COALESCE(MAX(sort_order), -1) FROM items WHERE list_id = ?", listID)
	if err != nil {
		return nil, fmt.Errorf("getting max sort_order: %w", err)
	}

	now := time.Now().UTC()
	item := model.TodoItem{
		ID:          uuid.New().String(),
		ListID:      listID,
		Title:       title,
		Description: nullableText(in.Description),
		DueDate:     utcPtr(in.DueDate),
		Order:       maxOrder + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items (
			id, list_id, title, description, is_completed,
			due_date, sort_order, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ListID, item.Title, item.Description, boolToInt(item.IsCompleted),
		item.DueDate, item.Order, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	if err := s.touchList(ctx, tx, listID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}
	return &item, nil
}

// GetItems returns the items of a list ordered by sort_order.
func (s *SQLiteStore) GetItems(ctx context.Context, ownerID, listID string) ([]model.TodoItem, error) {
	if err := ownsList(ctx, s.db, ownerID, listID); err != nil {
		return nil, err
	}
	items := []model.TodoItem{}
	err := s.db.SelectContext(ctx, &items,
		itemSelect+" WHERE list_id = ? ORDER BY sort_order, id", listID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	return items, nil
}

// GetItem retrieves a single item of a list.
func (s *SQLiteStore) GetItem(ctx context.Context, ownerID, listID, id string) (*model.TodoItem, error) {
	if err := ownsList(ctx, s.db, ownerID, listID); err != nil {
		return nil, err
	}
	var item model.TodoItem
	err := s.db.GetContext(ctx, &item,
		itemSelect+" WHERE id = ? AND list_id = ?", id, listID)
	if err != nil {
		return nil, notFound(fmt.Sprintf("getting item %s", id), err)
	}
	return &item, nil
}

// UpdateItem replaces title, description and due date of an item.
func (s *SQLiteStore) UpdateItem(ctx context.Context, ownerID, listID, id string, in model.ItemInput) (*model.TodoItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("item title must not be empty: %w", ErrInvalid)
	}
	if err := ownsList(ctx, s.db, ownerID, listID); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET title = ?, description = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND list_id = ?`,
		title, nullableText(in.Description), utcPtr(in.DueDate), time.Now().UTC(),
		id, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item %s: %w", id, err)
	}
	if err := requireRow(result, "item "+id); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, ownerID, listID, id)
}

// DeleteItem removes an item. The remaining items keep their sort_order;
// gaps are closed by the next reorder.
func (s *SQLiteStore) DeleteItem(ctx context.Context, ownerID, listID, id string) error {
	if err := ownsList(ctx, s.db, ownerID, listID); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE id = ? AND list_id = ?", id, listID)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	return requireRow(result, "item "+id)
}

// SetItemCompleted sets the completion flag of an item.
func (s *SQLiteStore) SetItemCompleted(ctx context.Context, ownerID, listID, id string, completed bool) (*model.TodoItem, error) {
	if err := ownsList(ctx, s.db, ownerID, listID); err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE items SET is_completed = ?, updated_at = ? WHERE id = ? AND list_id = ?",
		boolToInt(completed), time.Now().UTC(), id, listID)
	if err != nil {
		return nil, fmt.Errorf("completing item %s: %w", id, err)
	}
	if err := requireRow(result, "item "+id); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, ownerID, listID, id)
}

// ReorderItems writes every order in one transaction. An id that is not
// an item of the list fails the whole batch.
func (s *SQLiteStore) ReorderItems(ctx context.Context, ownerID, listID string, orders map[string]int) error {
	if len(orders) == 0 {
		return fmt.Errorf("reorder needs at least one item: %w", ErrInvalid)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ownsList(ctx, tx, ownerID, listID); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx,
		"UPDATE items SET sort_order = ?, updated_at = ? WHERE id = ? AND list_id = ?")
	if err != nil {
		return fmt.Errorf("preparing reorder statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for id, order := range orders {
		if order < 0 {
			return fmt.Errorf("negative order for item %s: %w", id, ErrInvalid)
		}
		result, err := stmt.ExecContext(ctx, order, now, id, listID)
		if err != nil {
			return fmt.Errorf("reordering item %s: %w", id, err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("item %s is not in list %s: %w", id, listID, ErrInvalid)
		}
	}

	if err := s.touchList(ctx, tx, listID, now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) touchList(ctx context.Context, tx sqlx.ExecerContext, listID string, now time.Time) error {
	if _, err := tx.ExecContext(ctx, "UPDATE lists SET updated_at = ? WHERE id = ?", now, listID); err != nil {
		return fmt.Errorf("touching list %s: %w", listID, err)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
