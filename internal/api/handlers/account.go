package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/narravox/narravox/internal/auth"
	"github.com/narravox/narravox/internal/cache"
	"github.com/narravox/narravox/internal/store"
)

type AccountHandler struct {
	store *store.Service
	usage *cache.UsageTracker
}

func NewAccountHandler(st *store.Service, usage *cache.UsageTracker) *AccountHandler {
	return &AccountHandler{store: st, usage: usage}
}

// Me returns the caller's account, tier, and remaining daily allowance. Tier
// comes from the subscriptions table when a row exists; otherwise the token
// claim stands.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	pro := ident.Pro
	resp := map[string]interface{}{
		"user_id": ident.UserID,
		"email":   ident.Email,
	}

	if uid, err := uuid.Parse(ident.UserID); err == nil {
		if user, err := h.store.GetUser(r.Context(), uid); err == nil && user != nil {
			resp["email"] = user.Email
			resp["name"] = user.Name
		}
		if sub, err := h.store.ActiveSubscription(r.Context(), uid); err == nil && sub != nil {
			pro = sub.IsPro()
			resp["subscription_expires_at"] = sub.ExpiresAt
		}
	}

	tier := "free"
	if pro {
		tier = "pro"
	}
	resp["tier"] = tier

	_, remaining, err := h.usage.CanGenerate(r.Context(), ident.UserID, pro)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "usage check failed"})
		return
	}
	resp["remaining_today"] = remaining
	resp["daily_limit"] = h.usage.Limit()

	writeJSON(w, http.StatusOK, resp)
}
