package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/narravox/narravox/internal/auth"
	"github.com/narravox/narravox/internal/pipeline"
	"github.com/narravox/narravox/pkg/textextract"
)

const maxDocumentBytes = 32 << 20

// DocumentHandler narrates uploaded documents: extract the text, then run
// it through the same synthesis pipeline as raw text submissions.
type DocumentHandler struct {
	synthesis *SynthesisHandler
}

func NewDocumentHandler(synthesis *SynthesisHandler) *DocumentHandler {
	return &DocumentHandler{synthesis: synthesis}
}

// Narrate accepts a multipart upload (field "document", plus "voice" and
// optional "rate") and streams synthesis progress events.
func (h *DocumentHandler) Narrate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document field is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read upload"})
		return
	}

	text, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), filepath.Ext(header.Filename))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": fmt.Sprintf("text extraction failed: %v", err),
		})
		return
	}

	rate := 1.0
	if v := r.FormValue("rate"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			rate = parsed
		}
	}

	allowed, _, err := h.synthesis.usage.CanGenerate(r.Context(), ident.UserID, ident.Pro)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "usage check failed"})
		return
	}
	if !allowed {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": fmt.Sprintf("daily limit of %d generations reached", h.synthesis.usage.Limit()),
		})
		return
	}

	jobID, events := h.synthesis.pipe.Submit(r.Context(), pipeline.Request{
		Text:     text,
		VoiceID:  r.FormValue("voice"),
		Rate:     rate,
		UserID:   ident.UserID,
		Priority: ident.Pro,
	})
	h.synthesis.streamEvents(w, r, jobID, events)
}
