package synth

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/narravox/narravox/internal/voice"
	"github.com/narravox/narravox/pkg/splitter"
)

// Result is the outcome of synthesizing one segment. Audio and Err are
// mutually exclusive.
type Result struct {
	Index int
	Audio []byte
	Err   error
}

// Executor runs segment synthesis on a bounded worker pool, shielding
// callers from blocking vocoder calls. Pool size is intra-job fan-out
// capacity; inter-job concurrency is the scheduler's concern.
type Executor struct {
	provider voice.Provider
	slots    chan struct{}
}

// NewExecutor creates an executor with the given worker count.
func NewExecutor(provider voice.Provider, workers int) *Executor {
	if workers <= 0 {
		workers = 4
	}
	return &Executor{
		provider: provider,
		slots:    make(chan struct{}, workers),
	}
}

// Synthesize renders one segment through the vocoder. The human speed
// multiplier converts to the vocoder's native length scale as 1/rate.
func (e *Executor) Synthesize(ctx context.Context, seg splitter.Segment, h *voice.Handle, rate float64) Result {
	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		return Result{Index: seg.Index, Err: ctx.Err()}
	}
	defer func() { <-e.slots }()

	audio, err := e.provider.Synthesize(ctx, h, seg.Text, 1/rate)
	if err != nil {
		return Result{Index: seg.Index, Err: fmt.Errorf("segment %d: %w", seg.Index, err)}
	}
	return Result{Index: seg.Index, Audio: audio}
}

// SynthesizeBatch dispatches all segments concurrently and waits for the
// whole batch. Completion order is unspecified; results are returned in the
// order of segs. The first failure cancels segments still waiting for a
// worker slot, and is returned alongside the partial results.
func (e *Executor) SynthesizeBatch(ctx context.Context, segs []splitter.Segment, h *voice.Handle, rate float64) ([]Result, error) {
	results := make([]Result, len(segs))

	g, ctx := errgroup.WithContext(ctx)
	for i, seg := range segs {
		g.Go(func() error {
			results[i] = e.Synthesize(ctx, seg, h, rate)
			return results[i].Err
		})
	}

	err := g.Wait()
	return results, err
}
