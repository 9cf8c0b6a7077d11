// Package session owns the bearer token lifecycle and the route-access
// decisions made by the UI shell.
package session

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/todosync/internal/credential"
	"github.com/nhle/todosync/internal/gateway"
	"github.com/nhle/todosync/internal/model"
)

// TokenEnv overrides the stored token for the lifetime of the process.
const TokenEnv = "TODOSYNC_TOKEN"

// State is the authentication state of the process.
type State int

const (
	// StateUnknown holds between process start and the first credential
	// check. No routing decision is made while in it.
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthAPI is the part of the gateway the session calls.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
}

// User describes the logged-in account.
type User struct {
	ID       string
	Email    string
	Username string
}

// Options configures a Session.
type Options struct {
	Logger *log.Logger

	// Now is the clock used for token expiry; tests replace it.
	Now func() time.Time

	// Getenv reads the environment; tests replace it.
	Getenv func(string) string
}

// Session holds the bearer token in a credential.Store and reacts to
// authentication failures reported by the gateway.
type Session struct {
	store credential.Store
	api   AuthAPI
	log   *log.Logger
	now   func() time.Time
	env   func(string) string

	mu          sync.Mutex
	state       State
	token       string
	fromEnv     bool
	user        User
	loginNeeded chan struct{}
	listeners   []func()
}

// New creates a Session in StateUnknown. Call Load before routing.
func New(store credential.Store, api AuthAPI, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	return &Session{
		store:       store,
		api:         api,
		log:         opts.Logger,
		now:         opts.Now,
		env:         opts.Getenv,
		loginNeeded: make(chan struct{}, 1),
	}
}

// SetAPI supplies the auth API after construction. The gateway needs the
// session as its token source, so one of the two is wired late.
func (s *Session) SetAPI(api AuthAPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = api
}

// Load performs the first credential check and leaves StateUnknown.
func (s *Session) Load() error {
	token, fromEnv, err := s.readToken()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateAnonymous
		return err
	}
	if token == "" || s.expired(token) {
		if token != "" && !fromEnv {
			s.log.Info("stored token expired; clearing")
			if delErr := s.store.Delete(credential.TokenKey); delErr != nil {
				s.log.Warn("clearing expired token", "err", delErr)
			}
		}
		s.token = ""
		s.state = StateAnonymous
		return nil
	}

	s.token = token
	s.fromEnv = fromEnv
	s.user = userFromToken(token)
	s.state = StateAuthenticated
	return nil
}

func (s *Session) readToken() (string, bool, error) {
	if env := strings.TrimSpace(s.env(TokenEnv)); env != "" {
		return stripBearer(env), true, nil
	}
	token, err := s.store.Get(credential.TokenKey)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return stripBearer(strings.TrimSpace(token)), false, nil
}

// State returns the current authentication state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the logged-in account, if any.
func (s *Session) User() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Token implements gateway.TokenSource.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Login authenticates and persists the returned token.
func (s *Session) Login(ctx context.Context, emailOrUsername, password string) (User, error) {
	emailOrUsername = strings.TrimSpace(emailOrUsername)
	if emailOrUsername == "" || password == "" {
		return User{}, gateway.NewValidationError("login", "Email or username and password are required.")
	}
	resp, err := s.authAPI().Login(ctx, model.LoginRequest{
		EmailOrUsername: emailOrUsername,
		Password:        password,
	})
	if err != nil {
		return User{}, err
	}
	return s.establish(resp)
}

// Register creates an account and logs in with it.
func (s *Session) Register(ctx context.Context, email, username, password string) (User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return User{}, gateway.NewValidationError("register", "Email, username and password are required.")
	}
	if !strings.Contains(email, "@") {
		return User{}, gateway.NewValidationError("register", "Enter a valid email address.")
	}
	resp, err := s.authAPI().Register(ctx, model.RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
	})
	if err != nil {
		return User{}, err
	}
	return s.establish(resp)
}

func (s *Session) authAPI() AuthAPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.api
}

func (s *Session) establish(resp *model.AuthResponse) (User, error) {
	token := stripBearer(strings.TrimSpace(resp.Token))
	if token == "" {
		return User{}, &gateway.Error{Kind: gateway.KindServer, Op: "login", Message: "The server did not return a session token."}
	}
	if err := s.store.Set(credential.TokenKey, token); err != nil {
		return User{}, err
	}

	user := User{ID: resp.UserID, Email: resp.Email, Username: resp.Username}

	s.mu.Lock()
	s.token = token
	s.fromEnv = false
	s.user = user
	s.state = StateAuthenticated
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	s.log.Info("logged in", "user", user.Username)
	for _, fn := range listeners {
		fn()
	}
	return user, nil
}

// Logout clears the token from memory and storage.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.user = User{}
	s.state = StateAnonymous
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	err := s.store.Delete(credential.TokenKey)
	for _, fn := range listeners {
		fn()
	}
	return err
}

// Observe implements the gateway error hook. An auth failure from any
// call clears the session and signals that login is required.
func (s *Session) Observe(err *gateway.Error) {
	if err == nil || err.Kind != gateway.KindAuth {
		return
	}
	if s.State() != StateAuthenticated {
		return
	}
	s.log.Warn("authentication rejected; clearing session", "op", err.Op, "status", err.HTTPStatus)
	if logoutErr := s.Logout(); logoutErr != nil {
		s.log.Warn("clearing token", "err", logoutErr)
	}
	select {
	case s.loginNeeded <- struct{}{}:
	default:
	}
}

// LoginRequired delivers a value whenever an auth failure ended the session.
func (s *Session) LoginRequired() <-chan struct{} {
	return s.loginNeeded
}

// OnChange registers fn to run after every login or logout.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// expired must be called with s.mu held. Tokens that are not JWTs, or
// carry no exp claim, never expire client-side.
func (s *Session) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

func userFromToken(token string) User {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return User{}
	}
	var u User
	u.ID, _ = claims.GetSubject()
	if v, ok := claims["email"].(string); ok {
		u.Email = v
	}
	if v, ok := claims["username"].(string); ok {
		u.Username = v
	}
	return u
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
