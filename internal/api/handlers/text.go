package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/narravox/narravox/internal/auth"
	"github.com/narravox/narravox/internal/cache"
	"github.com/narravox/narravox/internal/models"
	"github.com/narravox/narravox/internal/store"
	"github.com/narravox/narravox/internal/textgen"
)

type TextGenerateRequest struct {
	Prompt          string `json:"prompt"`
	DurationMinutes int    `json:"duration_minutes"`
	Language        string `json:"language"`
}

type TextHandler struct {
	svc   *textgen.Service
	store *store.Service
	usage *cache.UsageTracker
}

func NewTextHandler(svc *textgen.Service, st *store.Service, usage *cache.UsageTracker) *TextHandler {
	return &TextHandler{svc: svc, store: st, usage: usage}
}

// Generate produces a narration script chunk by chunk, streaming progress
// lines and a final result object.
func (h *TextHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req TextGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt required"})
		return
	}
	if req.DurationMinutes < 1 {
		req.DurationMinutes = 1
	}

	allowed, _, err := h.usage.CanGenerate(r.Context(), ident.UserID, ident.Pro)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "usage check failed"})
		return
	}
	if !allowed {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": fmt.Sprintf("daily limit of %d generations reached", h.usage.Limit()),
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	enc := json.NewEncoder(w)

	text, err := h.svc.Generate(r.Context(), req.Prompt, req.Language, req.DurationMinutes, func(done, total int) {
		enc.Encode(map[string]interface{}{
			"type":     "progress",
			"progress": 95 * done / total,
			"message":  fmt.Sprintf("generated %d/%d sections", done, total),
		})
		flusher.Flush()
	})
	if err != nil {
		enc.Encode(map[string]interface{}{"type": "error", "message": err.Error()})
		flusher.Flush()
		return
	}

	gen := models.TextGeneration{
		ID:              uuid.New(),
		UserID:          ident.UserID,
		Prompt:          req.Prompt,
		Text:            text,
		WordCount:       len(strings.Fields(text)),
		DurationMinutes: req.DurationMinutes,
		CreatedAt:       time.Now(),
	}
	if err := h.store.SaveText(r.Context(), gen); err != nil {
		enc.Encode(map[string]interface{}{"type": "error", "message": "failed to store script"})
		flusher.Flush()
		return
	}

	if _, err := h.usage.Increment(r.Context(), ident.UserID); err == nil {
		h.store.LogUsage(r.Context(), ident.UserID, models.ActionTextGeneration)
	}

	enc.Encode(map[string]interface{}{
		"type":               "complete",
		"progress":           100,
		"id":                 gen.ID.String(),
		"text":               text,
		"word_count":         gen.WordCount,
		"estimated_duration": h.svc.EstimateDuration(text, 1.0),
	})
	flusher.Flush()
}
