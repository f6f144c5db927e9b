package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/narravox/narravox/internal/auth"
	"github.com/narravox/narravox/internal/cache"
	"github.com/narravox/narravox/internal/models"
	"github.com/narravox/narravox/internal/pipeline"
	"github.com/narravox/narravox/internal/store"
)

type SynthesizeRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Rate  float64 `json:"rate"` // speed multiplier, 0.5–2.0
}

type SynthesisHandler struct {
	pipe  *pipeline.Pipeline
	store *store.Service
	usage *cache.UsageTracker
}

func NewSynthesisHandler(pipe *pipeline.Pipeline, st *store.Service, usage *cache.UsageTracker) *SynthesisHandler {
	return &SynthesisHandler{pipe: pipe, store: st, usage: usage}
}

// Synthesize accepts a synthesis request and streams newline-delimited JSON
// progress events until the terminal complete or error event.
func (h *SynthesisHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Rate == 0 {
		req.Rate = 1.0
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

	jobID, events := h.pipe.Submit(r.Context(), pipeline.Request{
		Text:     req.Text,
		VoiceID:  req.Voice,
		Rate:     req.Rate,
		UserID:   ident.UserID,
		Priority: ident.Pro,
	})

	completed := h.streamEvents(w, r, jobID, events)
	if completed {
		if _, err := h.usage.Increment(r.Context(), ident.UserID); err == nil {
			h.store.LogUsage(r.Context(), ident.UserID, models.ActionAudioGeneration)
		}
	}
}

// streamEvents writes one JSON object per line, flushing after each, and
// reports whether the job completed successfully.
func (h *SynthesisHandler) streamEvents(w http.ResponseWriter, r *http.Request, jobID uuid.UUID, events <-chan pipeline.Event) bool {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return false
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	enc := json.NewEncoder(w)
	enc.Encode(struct {
		Type  string `json:"type"`
		JobID string `json:"job_id"`
	}{Type: "info", JobID: jobID.String()})
	flusher.Flush()

	completed := false
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			return completed
		}
		flusher.Flush()
		if ev.Type == pipeline.EventComplete {
			completed = true
		}
	}
	return completed
}

// Status reports a job's queue position: 0 is active, 1..N is queue rank.
func (h *SynthesisHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
		return
	}

	pos, ok := h.pipe.Status(jobID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	if pos == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "active"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "queued", "position": pos})
}

// Download serves the finished audio artifact.
func (h *SynthesisHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid audio id"})
		return
	}

	gen, err := h.store.GetAudio(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "audio not found"})
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="narration_%s.wav"`, id))
	http.ServeFile(w, r, gen.AudioPath)
}
