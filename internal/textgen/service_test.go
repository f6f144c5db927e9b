package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type scriptedGenerator struct {
	calls []ChunkRequest
	fail  bool
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) GenerateChunk(ctx context.Context, req ChunkRequest) (string, error) {
	g.calls = append(g.calls, req)
	if g.fail {
		return "", errors.New("model overloaded")
	}
	return fmt.Sprintf("chunk %d text", len(g.calls)), nil
}

func TestGenerateChunksToTargetWords(t *testing.T) {
	gen := &scriptedGenerator{}
	svc := NewServiceWith(gen, 150)

	// 10 minutes at 150 wpm is 1500 words: three 600-word chunks, the last
	// trimmed to the 300-word remainder.
	var progress [][2]int
	script, err := svc.Generate(context.Background(), "the history of radio", "en", 10, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(gen.calls) != 3 {
		t.Fatalf("got %d chunk calls, want 3", len(gen.calls))
	}
	if gen.calls[0].TargetWords != 600 || gen.calls[2].TargetWords != 300 {
		t.Errorf("chunk word targets = %d, %d, %d", gen.calls[0].TargetWords, gen.calls[1].TargetWords, gen.calls[2].TargetWords)
	}
	if gen.calls[0].Previous != "" {
		t.Error("first chunk carried previous context")
	}
	if gen.calls[1].Previous == "" {
		t.Error("second chunk missing previous context")
	}

	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(progress) != len(want) {
		t.Fatalf("progress calls = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %v, want %v", i, progress[i], want[i])
		}
	}

	if !strings.Contains(script, "chunk 1 text") || !strings.Contains(script, "chunk 3 text") {
		t.Errorf("script missing chunks: %q", script)
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	svc := NewServiceWith(&scriptedGenerator{}, 150)
	if _, err := svc.Generate(context.Background(), "   ", "en", 1, nil); err == nil {
		t.Fatal("empty prompt accepted")
	}
}

func TestGeneratePropagatesChunkError(t *testing.T) {
	svc := NewServiceWith(&scriptedGenerator{fail: true}, 150)
	if _, err := svc.Generate(context.Background(), "topic", "en", 1, nil); err == nil {
		t.Fatal("chunk failure not propagated")
	}
}

func TestEstimateDuration(t *testing.T) {
	svc := NewServiceWith(&scriptedGenerator{}, 150)

	text := strings.Repeat("word ", 150)
	if got := svc.EstimateDuration(text, 1.0); got != 60 {
		t.Errorf("EstimateDuration at rate 1.0 = %v, want 60", got)
	}
	if got := svc.EstimateDuration(text, 2.0); got != 30 {
		t.Errorf("EstimateDuration at rate 2.0 = %v, want 30", got)
	}
}

func TestTargetWordCount(t *testing.T) {
	svc := NewServiceWith(&scriptedGenerator{}, 160)
	if got := svc.TargetWordCount(5); got != 800 {
		t.Errorf("TargetWordCount(5) = %d, want 800", got)
	}
}
