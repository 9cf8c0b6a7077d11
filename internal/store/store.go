package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/todosync/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist or is owned by
	// another user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique email or username is taken.
	ErrDuplicate = errors.New("already exists")

	// ErrInvalid is returned for input the schema cannot accept.
	ErrInvalid = errors.New("invalid input")
)

// User is an account of the development backend.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Store defines the persistence interface for users, lists and items.
// Every list and item operation is scoped to an owner; rows owned by
// someone else behave as if they did not exist.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, user User) (*User, error)
	GetUserByLogin(ctx context.Context, emailOrUsername string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	// === Lists ===

	CreateList(ctx context.Context, ownerID string, in model.ListInput) (*model.TodoList, error)
	GetLists(ctx context.Context, ownerID string) ([]model.TodoList, error)
	GetList(ctx context.Context, ownerID, id string) (*model.TodoList, error)
	UpdateList(ctx context.Context, ownerID, id string, in model.ListInput) error
	DeleteList(ctx context.Context, ownerID, id string) error

	// === Items ===

	CreateItem(ctx context.Context, ownerID, listID string, in model.ItemInput) (*model.TodoItem, error)
	GetItems(ctx context.Context, ownerID, listID string) ([]model.TodoItem, error)
	GetItem(ctx context.Context, ownerID, listID, id string) (*model.TodoItem, error)
	UpdateItem(ctx context.Context, ownerID, listID, id string, in model.ItemInput) (*model.TodoItem, error)
	DeleteItem(ctx context.Context, ownerID, listID, id string) error
	SetItemCompleted(ctx context.Context, ownerID, listID, id string, completed bool) (*model.TodoItem, error)
	ReorderItems(ctx context.Context, ownerID, listID string, orders map[string]int) error
}
