package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "creating test store")

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateTestUser inserts a user with a placeholder hash and returns its ID.
func CreateTestUser(t *testing.T, s store.Store, username string) string {
	t.Helper()

	u, err := s.CreateUser(context.Background(), store.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
	})
	require.NoError(t, err, "creating test user")
	return u.ID
}
