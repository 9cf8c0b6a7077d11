package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/store"
)

const (
	minPasswordLength = 6
	maxUsernameLength = 50
)

type ctxKey struct{}

// claims are the fields carried by issued tokens.
type claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) issueToken(u *store.User) (string, error) {
	now := s.cfg.Now()
	c := claims{
		Email:    u.Email,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) verifyToken(raw string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.cfg.Now),
	)
	if err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return c.Subject, nil
}

// authed rejects requests without a valid bearer token and puts the user
// id on the request context.
func (s *Server) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		userID, err := s.verifyToken(strings.TrimSpace(raw))
		if err != nil {
			s.log.Debug("rejected token", "err", err)
			writeError(w, http.StatusUnauthorized, "Your session is invalid or has expired.")
			return
		}
		if _, err := s.store.GetUserByID(r.Context(), userID); err != nil {
			writeError(w, http.StatusUnauthorized, "Your session is invalid or has expired.")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if msg := validateRegistration(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("hashing password", "err", err)
		writeError(w, http.StatusInternalServerError, "Could not create the account.")
		return
	}

	u, err := s.store.CreateUser(r.Context(), store.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	})
	if err != nil {
		s.writeStoreError(w, err, "Could not create the account.")
		return
	}
	s.respondAuth(w, http.StatusOK, u)
}

func validateRegistration(req model.RegisterRequest) string {
	switch {
	case req.Email == "" || req.Username == "" || req.Password == "":
		return "Email, username and password are required."
	case utf8.RuneCountInString(req.Username) > maxUsernameLength:
		return "Username is too long."
	case utf8.RuneCountInString(req.Password) < minPasswordLength:
		return "Password must be at least 6 characters."
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "Enter a valid email address."
	}
	return ""
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.EmailOrUsername) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email or username and password are required.")
		return
	}

	u, err := s.store.GetUserByLogin(r.Context(), req.EmailOrUsername)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		s.writeStoreError(w, err, "Could not log in.")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	s.respondAuth(w, http.StatusOK, u)
}

func (s *Server) respondAuth(w http.ResponseWriter, status int, u *store.User) {
	token, err := s.issueToken(u)
	if err != nil {
		s.log.Error("signing token", "err", err)
		writeError(w, http.StatusInternalServerError, "Could not issue a session token.")
		return
	}
	writeJSON(w, status, model.AuthResponse{
		Token:    token,
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
	})
}
