package voice

import "context"

// Handle is a loaded, reusable reference to one voice model.
type Handle struct {
	ID        string
	ModelPath string
}

// Voice describes one entry in the installed voice catalog.
type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

// Provider is the interface for neural TTS backends. Load is idempotent and
// cacheable; Synthesize must be safe to call concurrently for different
// handles. lengthScale is the vocoder's native inverse-speed parameter
// (1/rate).
type Provider interface {
	Load(ctx context.Context, voiceID string) (*Handle, error)
	Synthesize(ctx context.Context, h *Handle, text string, lengthScale float64) ([]byte, error)
	Voices() ([]Voice, error)
	Name() string
}
