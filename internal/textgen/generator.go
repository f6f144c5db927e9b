package textgen

import "context"

// ChunkRequest asks a generator for the next portion of a narration script.
// Previous carries the tail of what has been written so far so the chunk
// continues naturally.
type ChunkRequest struct {
	Prompt      string
	Language    string
	TargetWords int
	Previous    string
}

// Generator produces narration text one chunk at a time. Implementations
// wrap a hosted LLM and are treated as black boxes.
type Generator interface {
	GenerateChunk(ctx context.Context, req ChunkRequest) (string, error)
	Name() string
}
