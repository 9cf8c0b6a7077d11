package devserver

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nhle/todosync/internal/model"
)

func validateText(field, value string, max int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return field + " is required."
	}
	if utf8.RuneCountInString(trimmed) > max {
		return field + " is too long."
	}
	return ""
}

func validateDescription(d *string) string {
	if d != nil && utf8.RuneCountInString(strings.TrimSpace(*d)) > model.MaxDescriptionLength {
		return "Description is too long."
	}
	return ""
}

func validateList(in model.ListInput) string {
	if msg := validateText("Name", in.Name, model.MaxNameLength); msg != "" {
		return msg
	}
	return validateDescription(in.Description)
}

func validateItem(in model.ItemInput) string {
	if msg := validateText("Title", in.Title, model.MaxNameLength); msg != "" {
		return msg
	}
	return validateDescription(in.Description)
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.store.GetLists(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, err, "Could not load lists.")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.GetList(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "Could not load the list.")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListCreate(w http.ResponseWriter, r *http.Request) {
	var in model.ListInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := validateList(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	list, err := s.store.CreateList(r.Context(), userIDFrom(r.Context()), in)
	if err != nil {
		s.writeStoreError(w, err, "Could not create the list.")
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleListUpdate(w http.ResponseWriter, r *http.Request) {
	var in model.ListInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := validateList(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.store.UpdateList(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), in); err != nil {
		s.writeStoreError(w, err, "Could not update the list.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteList(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err, "Could not delete the list.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.GetItems(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "Could not load items.")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetItem(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), r.PathValue("itemId"))
	if err != nil {
		s.writeStoreError(w, err, "Could not load the item.")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleItemCreate(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := validateItem(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	item, err := s.store.CreateItem(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		s.writeStoreError(w, err, "Could not create the item.")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleItemUpdate(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := validateItem(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	item, err := s.store.UpdateItem(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), r.PathValue("itemId"), in)
	if err != nil {
		s.writeStoreError(w, err, "Could not update the item.")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteItem(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), r.PathValue("itemId"))
	if err != nil {
		s.writeStoreError(w, err, "Could not delete the item.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleItemComplete(w http.ResponseWriter, r *http.Request) {
	completed, err := strconv.ParseBool(r.URL.Query().Get("isCompleted"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "isCompleted must be true or false.")
		return
	}
	item, err := s.store.SetItemCompleted(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), r.PathValue("itemId"), completed)
	if err != nil {
		s.writeStoreError(w, err, "Could not update the item.")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleItemsReorder(w http.ResponseWriter, r *http.Request) {
	var req model.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.ItemOrders) == 0 {
		writeError(w, http.StatusBadRequest, "itemOrders must not be empty.")
		return
	}
	if err := s.store.ReorderItems(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), req.ItemOrders); err != nil {
		s.writeStoreError(w, err, "Could not reorder the items.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
