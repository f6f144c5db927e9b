package pipeline

// EventType discriminates progress stream events.
type EventType string

const (
	EventInfo     EventType = "info"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one entry in a job's ordered progress stream. Progress is
// 0–100 and non-decreasing within a stream; exactly one terminal event
// (complete or error) closes every stream, and only the complete event
// carries progress 100.
type Event struct {
	Type          EventType `json:"type"`
	Progress      int       `json:"progress"`
	Message       string    `json:"message,omitempty"`
	QueuePosition int       `json:"queue_position,omitempty"`
	AudioID       string    `json:"audio_id,omitempty"`
	Duration      float64   `json:"duration,omitempty"` // seconds, measured
}
