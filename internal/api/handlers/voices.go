package handlers

import (
	"net/http"
	"time"

	"github.com/narravox/narravox/internal/cache"
	"github.com/narravox/narravox/internal/voice"
)

const (
	voiceCatalogKey = "voices:catalog"
	voiceCatalogTTL = 5 * time.Minute
)

type VoicesHandler struct {
	provider voice.Provider
	cache    *cache.Cache
}

func NewVoicesHandler(provider voice.Provider, c *cache.Cache) *VoicesHandler {
	return &VoicesHandler{provider: provider, cache: c}
}

// List returns the installed voice catalog. The catalog only changes when
// models are installed, so it is served from Redis between rescans.
func (h *VoicesHandler) List(w http.ResponseWriter, r *http.Request) {
	var voices []voice.Voice
	if h.cache != nil {
		if err := h.cache.Get(r.Context(), voiceCatalogKey, &voices); err == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"voices": voices})
			return
		}
	}

	voices, err := h.provider.Voices()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list voices"})
		return
	}

	if h.cache != nil {
		h.cache.Set(r.Context(), voiceCatalogKey, voices, voiceCatalogTTL)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"voices": voices})
}
