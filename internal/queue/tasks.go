package queue

const (
	TypeAudioCleanup = "audio:cleanup"
	TypeUsagePrune   = "usage:prune"
)

// AudioCleanupPayload deletes generated audio older than the retention
// window.
type AudioCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// UsagePrunePayload trims usage logs no longer needed for daily limits or
// admin stats.
type UsagePrunePayload struct {
	RetentionDays int `json:"retention_days"`
}
