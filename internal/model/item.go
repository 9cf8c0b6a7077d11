package model

import "time"

// TodoItem is a single entry within a list. Ascending Order gives the
// display sequence of the owning list.
type TodoItem struct {
	ID          string     `json:"id" db:"id"`
	ListID      string     `json:"listId" db:"list_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	IsCompleted bool       `json:"isCompleted" db:"is_completed"`
	DueDate     *time.Time `json:"dueDate" db:"due_date"`
	Order       int        `json:"order" db:"sort_order"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// DescriptionText returns the description or "" when unset.
func (i TodoItem) DescriptionText() string {
	if i.Description == nil {
		return ""
	}
	return *i.Description
}

// IsOverdue reports whether an open item is past its due date.
func (i TodoItem) IsOverdue() bool {
	return i.DueDate != nil && i.DueDate.Before(time.Now()) && !i.IsCompleted
}

// ItemInput is the request body for creating or updating an item.
type ItemInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

// ReorderRequest maps every item id of a list to its new order value.
type ReorderRequest struct {
	ItemOrders map[string]int `json:"itemOrders"`
}

// CloneItems returns a copy of items that shares no pointers with the
// original, so cached snapshots cannot be mutated through it.
func CloneItems(items []TodoItem) []TodoItem {
	if items == nil {
		return nil
	}
	out := make([]TodoItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.Description != nil {
			d := *it.Description
			out[i].Description = &d
		}
		if it.DueDate != nil {
			t := *it.DueDate
			out[i].DueDate = &t
		}
	}
	return out
}
