package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type countingProvider struct {
	loads   atomic.Int32
	failIDs map[string]bool
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Load(ctx context.Context, voiceID string) (*Handle, error) {
	p.loads.Add(1)
	if p.failIDs[voiceID] {
		return nil, errors.New("model not found")
	}
	return &Handle{ID: voiceID, ModelPath: "/models/" + voiceID + ".onnx"}, nil
}

func (p *countingProvider) Synthesize(ctx context.Context, h *Handle, text string, lengthScale float64) ([]byte, error) {
	return []byte(text), nil
}

func (p *countingProvider) Voices() ([]Voice, error) {
	return []Voice{{ID: "en_US-amy-medium", Name: "amy", Locale: "en_US"}}, nil
}

func TestCacheLoadsOncePerVoice(t *testing.T) {
	p := &countingProvider{}
	c := NewCache(p)
	ctx := context.Background()

	h1, err := c.Load(ctx, "en_US-amy-medium")
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	h2, err := c.Load(ctx, "en_US-amy-medium")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if h1 != h2 {
		t.Error("cache returned distinct handles for the same voice")
	}
	if n := p.loads.Load(); n != 1 {
		t.Errorf("provider loads = %d, want 1", n)
	}

	if _, err := c.Load(ctx, "en_GB-alan-low"); err != nil {
		t.Fatalf("Load of second voice: %v", err)
	}
	if n := p.loads.Load(); n != 2 {
		t.Errorf("provider loads = %d, want 2", n)
	}
}

func TestCacheCollapsesConcurrentLoads(t *testing.T) {
	p := &countingProvider{}
	c := NewCache(p)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Load(context.Background(), "en_US-amy-medium"); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := p.loads.Load(); n != 1 {
		t.Errorf("provider loads = %d, want 1", n)
	}
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	p := &countingProvider{failIDs: map[string]bool{"missing": true}}
	c := NewCache(p)
	ctx := context.Background()

	if _, err := c.Load(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing voice")
	}
	if _, err := c.Load(ctx, "missing"); err == nil {
		t.Fatal("expected error on retry")
	}
	if n := p.loads.Load(); n != 2 {
		t.Errorf("provider loads = %d, want 2 (failures must not be cached)", n)
	}
}
