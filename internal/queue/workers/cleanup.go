package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/narravox/narravox/internal/queue"
	"github.com/narravox/narravox/internal/store"
)

// CleanupWorker removes expired audio artifacts and stale usage logs.
type CleanupWorker struct {
	store *store.Service
}

func NewCleanupWorker(st *store.Service) *CleanupWorker {
	return &CleanupWorker{store: st}
}

func (w *CleanupWorker) ProcessAudioCleanup(ctx context.Context, t *asynq.Task) error {
	var payload queue.AudioCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = 7
	}

	cutoff := time.Now().AddDate(0, 0, -payload.RetentionDays)
	expired, err := w.store.ExpiredAudio(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list expired audio: %w", err)
	}

	removed := 0
	for _, gen := range expired {
		if err := os.Remove(gen.AudioPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove audio file", "path", gen.AudioPath, "error", err)
			continue
		}
		if err := w.store.DeleteAudio(ctx, gen.ID); err != nil {
			return fmt.Errorf("delete generation %s: %w", gen.ID, err)
		}
		removed++
	}

	slog.Info("audio cleanup finished", "expired", len(expired), "removed", removed)
	return nil
}

func (w *CleanupWorker) ProcessUsagePrune(ctx context.Context, t *asynq.Task) error {
	var payload queue.UsagePrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = 90
	}

	cutoff := time.Now().AddDate(0, 0, -payload.RetentionDays)
	pruned, err := w.store.PruneUsageLogs(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune usage logs: %w", err)
	}

	slog.Info("usage logs pruned", "rows", pruned)
	return nil
}
