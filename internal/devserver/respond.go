package devserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nhle/todosync/internal/store"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "The request body is not valid JSON.")
		return false
	}
	return true
}

// writeStoreError maps store sentinels to status codes. Anything else is
// logged and reported as a 500 with fallback as the message.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "That email or username is already registered.")
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, "The request is invalid.")
	default:
		s.log.Error("store failure", "err", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
