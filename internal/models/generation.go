package models

import (
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionTextGeneration  ActionType = "text_generation"
	ActionAudioGeneration ActionType = "audio_generation"
)

// AudioGeneration is one persisted synthesis result.
type AudioGeneration struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Voice     string    `json:"voice"`
	AudioPath string    `json:"-"`
	AudioURL  string    `json:"audio_url"`
	Duration  float64   `json:"duration"` // seconds, measured from the audio
	CreatedAt time.Time `json:"created_at"`
}

// TextGeneration is one persisted narration script.
type TextGeneration struct {
	ID              uuid.UUID `json:"id"`
	UserID          string    `json:"user_id"`
	Prompt          string    `json:"prompt"`
	Text            string    `json:"text"`
	WordCount       int       `json:"word_count"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// UsageLog records one billable action for daily limit accounting.
type UsageLog struct {
	ID         uuid.UUID  `json:"id"`
	UserID     string     `json:"user_id"`
	ActionType ActionType `json:"action_type"`
	CreatedAt  time.Time  `json:"created_at"`
}
