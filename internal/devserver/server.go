// Package devserver is a local REST backend for the todo API. It backs
// `todosync serve` and the integration tests of the client packages.
package devserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/store"
)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Config configures a Server.
type Config struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
	Logger    *log.Logger

	// Now is the clock used for token issue and expiry; tests replace it.
	Now func() time.Time
}

// Server serves the todo API over a store.Store.
type Server struct {
	cfg    Config
	store  store.Store
	secret []byte
	log    *log.Logger
}

// New creates a Server. An empty JWT secret is replaced by a random one,
// which invalidates tokens on every restart.
func New(st store.Store, cfg Config) (*Server, error) {
	if st == nil {
		return nil, errors.New("devserver: store is nil")
	}
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("devserver: generating secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		cfg.Logger.Warn("no jwt secret configured; tokens will not survive a restart")
	}

	return &Server{
		cfg:    cfg,
		store:  st,
		secret: secret,
		log:    cfg.Logger,
	}, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("GET /api/lists", s.authed(s.handleLists))
	mux.Handle("POST /api/lists", s.authed(s.handleListCreate))
	mux.Handle("GET /api/lists/{id}", s.authed(s.handleList))
	mux.Handle("PUT /api/lists/{id}", s.authed(s.handleListUpdate))
	mux.Handle("DELETE /api/lists/{id}", s.authed(s.handleListDelete))
	mux.Handle("GET /api/lists/{id}/items", s.authed(s.handleItems))
	mux.Handle("POST /api/lists/{id}/items", s.authed(s.handleItemCreate))
	mux.Handle("PATCH /api/lists/{id}/items/reorder", s.authed(s.handleItemsReorder))
	mux.Handle("GET /api/lists/{id}/items/{itemId}", s.authed(s.handleItem))
	mux.Handle("PUT /api/lists/{id}/items/{itemId}", s.authed(s.handleItemUpdate))
	mux.Handle("DELETE /api/lists/{id}/items/{itemId}", s.authed(s.handleItemDelete))
	mux.Handle("PATCH /api/lists/{id}/items/{itemId}/complete", s.authed(s.handleItemComplete))
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.cfg.Addr == "" {
		return errors.New("devserver: addr is empty")
	}
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"dur", time.Since(start).Round(time.Microsecond),
		)
	})
}
