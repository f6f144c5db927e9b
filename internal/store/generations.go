package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/narravox/narravox/internal/models"
	"github.com/narravox/narravox/internal/pipeline"
)

// Service persists generation results: audio bytes on disk, metadata in
// Postgres. It implements pipeline.ArtifactStore.
type Service struct {
	db       *pgxpool.Pool
	audioDir string
}

func NewService(db *pgxpool.Pool, audioDir string) *Service {
	return &Service{db: db, audioDir: audioDir}
}

// SaveAudio writes the artifact file and records it. Idempotent per id:
// re-saving an existing id overwrites the same file and leaves the row
// untouched.
func (s *Service) SaveAudio(ctx context.Context, art pipeline.Artifact) error {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	path := s.AudioPath(art.ID)
	if err := os.WriteFile(path, art.Audio, 0o644); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO audio_generations (id, user_id, text, voice, audio_path, duration_seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (id) DO NOTHING`,
		art.ID, art.UserID, art.Text, art.VoiceID, path, art.Duration.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("insert audio generation: %w", err)
	}
	return nil
}

// GetAudio looks up one audio generation by id.
func (s *Service) GetAudio(ctx context.Context, id uuid.UUID) (*models.AudioGeneration, error) {
	var gen models.AudioGeneration
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, text, voice, audio_path, duration_seconds, created_at
		 FROM audio_generations WHERE id = $1`,
		id,
	).Scan(&gen.ID, &gen.UserID, &gen.Text, &gen.Voice, &gen.AudioPath, &gen.Duration, &gen.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get audio generation %s: %w", id, err)
	}
	gen.AudioURL = downloadURL(gen.ID)
	return &gen, nil
}

// History returns a user's most recent audio generations, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.AudioGeneration, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, text, voice, audio_path, duration_seconds, created_at
		 FROM audio_generations WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []models.AudioGeneration
	for rows.Next() {
		var gen models.AudioGeneration
		if err := rows.Scan(&gen.ID, &gen.UserID, &gen.Text, &gen.Voice, &gen.AudioPath, &gen.Duration, &gen.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		gen.AudioURL = downloadURL(gen.ID)
		gen.Text = preview(gen.Text)
		history = append(history, gen)
	}
	return history, rows.Err()
}

// SaveText records a generated narration script. Idempotent per id.
func (s *Service) SaveText(ctx context.Context, gen models.TextGeneration) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO text_generations (id, user_id, prompt, text, word_count, duration_minutes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (id) DO NOTHING`,
		gen.ID, gen.UserID, gen.Prompt, gen.Text, gen.WordCount, gen.DurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("insert text generation: %w", err)
	}
	return nil
}

// LogUsage appends one usage record for daily limit accounting.
func (s *Service) LogUsage(ctx context.Context, userID string, action models.ActionType) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_logs (id, user_id, action_type, created_at) VALUES ($1, $2, $3, now())`,
		uuid.New(), userID, action,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

// ExpiredAudio lists generations older than the retention window, for the
// cleanup worker.
func (s *Service) ExpiredAudio(ctx context.Context, olderThan time.Time) ([]models.AudioGeneration, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, audio_path FROM audio_generations WHERE created_at < $1`,
		olderThan,
	)
	if err != nil {
		return nil, fmt.Errorf("query expired audio: %w", err)
	}
	defer rows.Close()

	var expired []models.AudioGeneration
	for rows.Next() {
		var gen models.AudioGeneration
		if err := rows.Scan(&gen.ID, &gen.AudioPath); err != nil {
			return nil, fmt.Errorf("scan expired row: %w", err)
		}
		expired = append(expired, gen)
	}
	return expired, rows.Err()
}

// DeleteAudio removes a generation row. The file is the caller's problem.
func (s *Service) DeleteAudio(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM audio_generations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete audio generation %s: %w", id, err)
	}
	return nil
}

// PruneUsageLogs deletes usage records older than the cutoff.
func (s *Service) PruneUsageLogs(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM usage_logs WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune usage logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Stats aggregates generation counts for the admin view.
type Stats struct {
	GenerationsToday   int64 `json:"generations_today"`
	GenerationsAllTime int64 `json:"generations_all_time"`
	AudioStored        int64 `json:"audio_stored"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx,
		`SELECT
		   (SELECT count(*) FROM usage_logs WHERE created_at >= date_trunc('day', now())),
		   (SELECT count(*) FROM usage_logs),
		   (SELECT count(*) FROM audio_generations)`,
	).Scan(&st.GenerationsToday, &st.GenerationsAllTime, &st.AudioStored)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &st, nil
}

// AudioPath maps an artifact id to its on-disk location.
func (s *Service) AudioPath(id uuid.UUID) string {
	return filepath.Join(s.audioDir, id.String()+".wav")
}

func downloadURL(id uuid.UUID) string {
	return "/api/v1/audio/download/" + id.String()
}

// preview truncates stored text the way the history view displays it.
func preview(text string) string {
	if len(text) > 100 {
		return text[:100] + "..."
	}
	return text
}
