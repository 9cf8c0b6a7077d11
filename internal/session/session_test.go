package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todosync/internal/credential"
	"github.com/nhle/todosync/internal/gateway"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/tests/testserver"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeAuth struct {
	resp  *model.AuthResponse
	err   error
	calls int
}

func (f *fakeAuth) Login(context.Context, model.LoginRequest) (*model.AuthResponse, error) {
	f.calls++
	return f.resp, f.err
}

func (f *fakeAuth) Register(context.Context, model.RegisterRequest) (*model.AuthResponse, error) {
	f.calls++
	return f.resp, f.err
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "u1",
		"email":    "ana@example.com",
		"username": "ana",
		"exp":      exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func newTestSession(store credential.Store, api AuthAPI, env map[string]string) *Session {
	return New(store, api, Options{
		Logger: logging.Discard(),
		Now:    func() time.Time { return testNow },
		Getenv: func(k string) string { return env[k] },
	})
}

func TestLoad_NoToken(t *testing.T) {
	s := newTestSession(credential.NewMemoryStore(), nil, nil)
	assert.Equal(t, StateUnknown, s.State())

	require.NoError(t, s.Load())
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token())
}

func TestLoad_ValidStoredToken(t *testing.T) {
	store := credential.NewMemoryStore()
	tok := signed(t, testNow.Add(time.Hour))
	require.NoError(t, store.Set(credential.TokenKey, tok))

	s := newTestSession(store, nil, nil)
	require.NoError(t, s.Load())

	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, tok, s.Token())
	assert.Equal(t, User{ID: "u1", Email: "ana@example.com", Username: "ana"}, s.User())
}

func TestLoad_ExpiredTokenIsCleared(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set(credential.TokenKey, signed(t, testNow.Add(-time.Minute))))

	s := newTestSession(store, nil, nil)
	require.NoError(t, s.Load())

	assert.Equal(t, StateAnonymous, s.State())
	_, err := store.Get(credential.TokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestLoad_OpaqueTokenNeverExpires(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set(credential.TokenKey, "Bearer opaque-token"))

	s := newTestSession(store, nil, nil)
	require.NoError(t, s.Load())

	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "opaque-token", s.Token())
}

func TestLoad_EnvironmentOverridesStore(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set(credential.TokenKey, "stored"))

	s := newTestSession(store, nil, map[string]string{TokenEnv: "from-env"})
	require.NoError(t, s.Load())

	assert.Equal(t, "from-env", s.Token())
	stored, err := store.Get(credential.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "stored", stored)
}

func TestLogin_PersistsToken(t *testing.T) {
	store := credential.NewMemoryStore()
	api := &fakeAuth{resp: &model.AuthResponse{Token: "t1", UserID: "u1", Username: "ana"}}
	s := newTestSession(store, api, nil)
	require.NoError(t, s.Load())

	changes := 0
	s.OnChange(func() { changes++ })

	user, err := s.Login(context.Background(), " ana ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, 1, changes)

	stored, err := store.Get(credential.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "t1", stored)
}

func TestLogin_ValidatesBeforeCalling(t *testing.T) {
	api := &fakeAuth{}
	s := newTestSession(credential.NewMemoryStore(), api, nil)

	_, err := s.Login(context.Background(), "  ", "secret")
	assert.True(t, gateway.IsKind(err, gateway.KindValidation))

	_, err = s.Register(context.Background(), "not-an-email", "ana", "secret")
	assert.True(t, gateway.IsKind(err, gateway.KindValidation))

	assert.Zero(t, api.calls)
}

func TestLogin_EmptyTokenIsServerError(t *testing.T) {
	s := newTestSession(credential.NewMemoryStore(), &fakeAuth{resp: &model.AuthResponse{}}, nil)

	_, err := s.Login(context.Background(), "ana", "secret")
	assert.True(t, gateway.IsKind(err, gateway.KindServer))
	assert.NotEqual(t, StateAuthenticated, s.State())
}

func TestObserve_AuthErrorEndsSession(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set(credential.TokenKey, "tok"))
	s := newTestSession(store, nil, nil)
	require.NoError(t, s.Load())

	s.Observe(&gateway.Error{Kind: gateway.KindServer})
	assert.Equal(t, StateAuthenticated, s.State())

	s.Observe(&gateway.Error{Kind: gateway.KindAuth, HTTPStatus: 401})
	assert.Equal(t, StateAnonymous, s.State())
	assert.Empty(t, s.Token())

	select {
	case <-s.LoginRequired():
	default:
		t.Fatal("expected a login-required signal")
	}

	// A second failure after logout signals nothing.
	s.Observe(&gateway.Error{Kind: gateway.KindAuth, HTTPStatus: 401})
	select {
	case <-s.LoginRequired():
		t.Fatal("unexpected second signal")
	default:
	}
}

func TestSession_AgainstDevServer(t *testing.T) {
	srv := testserver.New(t)
	s := newTestSession(credential.NewMemoryStore(), nil, nil)
	client := gateway.NewClient(srv.URL, s, gateway.WithErrorObserver(s.Observe))
	s.SetAPI(client)
	require.NoError(t, s.Load())

	user, err := s.Register(context.Background(), "ana@example.com", "ana", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	_, err = client.GetLists(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Logout())
	_, err = s.Login(context.Background(), "ana@example.com", "wrong-password")
	assert.True(t, gateway.IsAuthError(err))

	user, err = s.Login(context.Background(), "ana", "password1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
}
