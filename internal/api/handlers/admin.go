package handlers

import (
	"net/http"

	"github.com/narravox/narravox/internal/queue"
	"github.com/narravox/narravox/internal/store"
)

type AdminHandler struct {
	store         *store.Service
	queueClient   *queue.Client
	retentionDays int
}

func NewAdminHandler(st *store.Service, qc *queue.Client, retentionDays int) *AdminHandler {
	return &AdminHandler{store: st, queueClient: qc, retentionDays: retentionDays}
}

// Stats returns generation counts for the admin dashboard.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Cleanup enqueues the retention maintenance tasks immediately instead of
// waiting for the nightly schedule.
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if err := h.queueClient.EnqueueAudioCleanup(queue.AudioCleanupPayload{RetentionDays: h.retentionDays}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue cleanup"})
		return
	}
	if err := h.queueClient.EnqueueUsagePrune(queue.UsagePrunePayload{RetentionDays: 90}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue usage prune"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cleanup scheduled"})
}
