package voice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestPiperLoadResolvesModelPath(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "en_US-amy-medium.onnx")
	if err := os.WriteFile(modelPath, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPiper(PiperConfig{ModelDir: dir})
	h, err := p.Load(context.Background(), "en_US-amy-medium")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.ID != "en_US-amy-medium" || h.ModelPath != modelPath {
		t.Errorf("handle = %+v", h)
	}
}

func TestPiperLoadUnknownVoice(t *testing.T) {
	p := NewPiper(PiperConfig{ModelDir: t.TempDir()})
	if _, err := p.Load(context.Background(), "nope"); err == nil {
		t.Fatal("Load of missing model succeeded")
	}
}

func TestPiperLoadRejectsPathSeparators(t *testing.T) {
	p := NewPiper(PiperConfig{ModelDir: t.TempDir()})
	for _, id := range []string{"../etc/passwd", "a/b", `a\b`} {
		if _, err := p.Load(context.Background(), id); err == nil {
			t.Errorf("Load(%q) succeeded", id)
		}
	}
}

func TestPiperVoicesListsModels(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"en_US-amy-medium.onnx", "de_DE-thorsten-high.onnx", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	p := NewPiper(PiperConfig{ModelDir: dir})
	voices, err := p.Voices()
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("got %d voices, want 2: %+v", len(voices), voices)
	}
}

func TestParseVoiceID(t *testing.T) {
	tests := []struct {
		id     string
		name   string
		locale string
	}{
		{"en_US-amy-medium", "amy", "en-US"},
		{"de_DE-thorsten-high", "thorsten", "de-DE"},
		{"custom", "custom", ""},
	}
	for _, tt := range tests {
		v := parseVoiceID(tt.id)
		if v.ID != tt.id || v.Name != tt.name || v.Locale != tt.locale {
			t.Errorf("parseVoiceID(%q) = %+v", tt.id, v)
		}
	}
}
