// Package testserver starts the development backend on an httptest
// listener for client-side integration tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/devserver"
	"github.com/nhle/todosync/internal/gateway"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/tests/testutil"
)

// Secret signs every token the test server issues.
const Secret = "test-secret"

// Server is a running development backend.
type Server struct {
	URL string
	srv *httptest.Server
}

// New starts a backend over a fresh in-memory store. It is shut down
// when the test completes.
func New(t *testing.T) *Server {
	t.Helper()

	st := testutil.NewTestStore(t)
	dev, err := devserver.New(st, devserver.Config{
		JWTSecret: Secret,
		Logger:    logging.Discard(),
	})
	require.NoError(t, err, "creating dev server")

	srv := httptest.NewServer(dev.Handler())
	t.Cleanup(srv.Close)
	return &Server{URL: srv.URL, srv: srv}
}

// Close stops the listener early, e.g. to simulate the backend going away.
func (s *Server) Close() {
	s.srv.Close()
}

// Register creates an account and returns its token.
func (s *Server) Register(t *testing.T, username string) string {
	t.Helper()

	c := gateway.NewClient(s.URL, nil)
	resp, err := c.Register(context.Background(), model.RegisterRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "password1",
	})
	require.NoError(t, err, "registering %s", username)
	return resp.Token
}

// Token is a fixed bearer token source.
type Token string

// Token implements gateway.TokenSource.
func (t Token) Token() string { return string(t) }

// Client returns a gateway client for a freshly registered user.
func (s *Server) Client(t *testing.T, username string) *gateway.Client {
	t.Helper()
	return gateway.NewClient(s.URL, Token(s.Register(t, username)))
}
