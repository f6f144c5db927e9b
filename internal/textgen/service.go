package textgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/narravox/narravox/internal/config"
)

const systemPrompt = "You are a professional content writer. Generate engaging, natural-sounding narration scripts."

// chunkTargetWords bounds one generation call; long scripts are produced as
// a sequence of continuing chunks.
const chunkTargetWords = 600

// Service turns a prompt and a target duration into a narration script,
// generating chunk by chunk and reporting progress between chunks.
type Service struct {
	gen Generator
	wpm int
}

func NewService(cfg config.LLMConfig) (*Service, error) {
	var gen Generator
	switch cfg.DefaultProvider {
	case "openai":
		gen = NewOpenAIGenerator(cfg.OpenAIKey, cfg.DefaultModel)
	case "anthropic":
		gen = NewAnthropicGenerator(cfg.AnthropicKey, cfg.DefaultModel)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.DefaultProvider)
	}

	wpm := cfg.WordsPerMinute
	if wpm <= 0 {
		wpm = 150
	}
	return &Service{gen: gen, wpm: wpm}, nil
}

// NewServiceWith wires an explicit generator. Test hook.
func NewServiceWith(gen Generator, wpm int) *Service {
	if wpm <= 0 {
		wpm = 150
	}
	return &Service{gen: gen, wpm: wpm}
}

// TargetWordCount converts a desired audio duration to a word budget at the
// configured narration pace.
func (s *Service) TargetWordCount(durationMinutes int) int {
	return durationMinutes * s.wpm
}

// EstimateDuration predicts speaking time in seconds for a script. Used for
// script previews only; synthesized audio reports its measured duration.
func (s *Service) EstimateDuration(text string, rate float64) float64 {
	if rate <= 0 {
		rate = 1.0
	}
	words := len(strings.Fields(text))
	return float64(words) / float64(s.wpm) / rate * 60
}

// Generate produces a script of roughly durationMinutes of narration. It
// calls the generator once per chunk and invokes onChunk after each with
// (chunksDone, chunksTotal).
func (s *Service) Generate(ctx context.Context, prompt, language string, durationMinutes int, onChunk func(done, total int)) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is empty")
	}
	if durationMinutes < 1 {
		durationMinutes = 1
	}

	targetWords := s.TargetWordCount(durationMinutes)
	chunks := (targetWords + chunkTargetWords - 1) / chunkTargetWords

	var script strings.Builder
	for i := 0; i < chunks; i++ {
		words := chunkTargetWords
		if remaining := targetWords - i*chunkTargetWords; remaining < words {
			words = remaining
		}

		text, err := s.gen.GenerateChunk(ctx, ChunkRequest{
			Prompt:      prompt,
			Language:    language,
			TargetWords: words,
			Previous:    tail(script.String(), 800),
		})
		if err != nil {
			return "", fmt.Errorf("generate chunk %d/%d: %w", i+1, chunks, err)
		}

		if script.Len() > 0 {
			script.WriteString("\n\n")
		}
		script.WriteString(strings.TrimSpace(text))

		if onChunk != nil {
			onChunk(i+1, chunks)
		}
	}

	return script.String(), nil
}

// chunkPrompt renders the user message for one chunk request.
func chunkPrompt(req ChunkRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a detailed narration script about: %s\n\n", req.Prompt)
	fmt.Fprintf(&b, "Requirements:\n")
	fmt.Fprintf(&b, "- Target length: approximately %d words\n", req.TargetWords)
	if req.Language != "" {
		fmt.Fprintf(&b, "- Language: %s\n", req.Language)
	}
	b.WriteString("- Style: Natural, conversational narration suitable for audio\n")
	if req.Previous == "" {
		b.WriteString("- Structure: Introduction, main content, conclusion\n")
	} else {
		fmt.Fprintf(&b, "\nContinue seamlessly from this earlier part, without repeating it:\n...%s\n", req.Previous)
	}
	b.WriteString("\nGenerate ONLY the narration text without any meta-commentary or formatting markers.")
	return b.String()
}

// tail returns the last n bytes of s on a word boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[len(s)-n:]
	if i := strings.IndexByte(cut, ' '); i >= 0 {
		cut = cut[i+1:]
	}
	return cut
}
