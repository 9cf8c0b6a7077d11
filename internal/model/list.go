package model

import "time"

// Field limits enforced by both the client and the development backend.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 1000
)

// TodoList is a named, user-owned container of ordered items.
type TodoList struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	IsCompleted bool      `json:"isCompleted" db:"is_completed"`
	OwnerID     string    `json:"ownerId" db:"owner_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// ItemCount and CompletedCount are aggregates computed by the backend.
	ItemCount      int `json:"itemCount" db:"item_count"`
	CompletedCount int `json:"completedCount" db:"completed_count"`

	// Items is only present when the backend embeds them. Treat it as a
	// snapshot; the items cache entry for the list is authoritative.
	Items []TodoItem `json:"items,omitempty" db:"-"`
}

// DescriptionText returns the description or "" when unset.
func (l TodoList) DescriptionText() string {
	if l.Description == nil {
		return ""
	}
	return *l.Description
}

// ListInput is the request body for creating or updating a list.
type ListInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}
