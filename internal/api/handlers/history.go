package handlers

import (
	"net/http"
	"strconv"

	"github.com/narravox/narravox/internal/auth"
	"github.com/narravox/narravox/internal/store"
)

type HistoryHandler struct {
	store *store.Service
}

func NewHistoryHandler(st *store.Service) *HistoryHandler {
	return &HistoryHandler{store: st}
}

// List returns the caller's recent audio generations, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.store.History(r.Context(), ident.UserID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}
