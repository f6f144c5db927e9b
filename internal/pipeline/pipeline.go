package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/narravox/narravox/internal/audio"
	"github.com/narravox/narravox/internal/scheduler"
	"github.com/narravox/narravox/internal/synth"
	"github.com/narravox/narravox/internal/voice"
	"github.com/narravox/narravox/pkg/splitter"
)

// Artifact is the finished audio handed to persistence.
type Artifact struct {
	ID       uuid.UUID
	UserID   string
	VoiceID  string
	Text     string
	Audio    []byte
	Duration time.Duration
}

// ArtifactStore persists finished artifacts keyed by job id. Saves are
// idempotent per id.
type ArtifactStore interface {
	SaveAudio(ctx context.Context, art Artifact) error
}

// Request is one end-to-end synthesis submission.
type Request struct {
	Text     string
	VoiceID  string
	Rate     float64 // speed multiplier, 0.5–2.0
	UserID   string
	Priority bool
}

// Config tunes the pipeline.
type Config struct {
	MaxSegmentChars int           // default 2000
	PollInterval    time.Duration // admission re-check cadence
}

// Pipeline orchestrates one job end to end: split, admission, batched
// segment synthesis, ordered reassembly, persistence, progress reporting.
type Pipeline struct {
	cfg    Config
	sched  *scheduler.Scheduler
	exec   *synth.Executor
	voices voice.Provider
	store  ArtifactStore
}

// New wires the pipeline to its collaborators. voices should be the shared
// caching provider so voice loads are reused across jobs.
func New(cfg Config, sched *scheduler.Scheduler, exec *synth.Executor, voices voice.Provider, store ArtifactStore) *Pipeline {
	if cfg.MaxSegmentChars <= 0 {
		cfg.MaxSegmentChars = 2000
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	return &Pipeline{cfg: cfg, sched: sched, exec: exec, voices: voices, store: store}
}

// Status reports a job's place: 0 means active, 1..N means queue rank.
func (p *Pipeline) Status(jobID uuid.UUID) (pos int, ok bool) {
	return p.sched.PositionOf(jobID)
}

// Submit starts a job and returns its id plus the ordered event stream. The
// stream always terminates with exactly one complete or error event and is
// then closed. Cancelling ctx stops the job; in-flight segment synthesis is
// allowed to finish and is discarded.
func (p *Pipeline) Submit(ctx context.Context, req Request) (uuid.UUID, <-chan Event) {
	jobID := uuid.New()
	events := make(chan Event, 64)

	r := &run{
		p:      p,
		req:    req,
		jobID:  jobID,
		ctx:    ctx,
		events: events,
	}
	go r.execute()

	return jobID, events
}

// run carries the per-job state machine. It is the single producer of the
// job's event stream.
type run struct {
	p      *Pipeline
	req    Request
	jobID  uuid.UUID
	ctx    context.Context
	events chan Event

	lastProgress int
	terminated   bool
}

func (r *run) execute() {
	defer close(r.events)

	if err := r.validate(); err != nil {
		r.fail(err.Error())
		return
	}

	// SPLIT
	segments := splitter.Split(r.req.Text, r.p.cfg.MaxSegmentChars)
	if len(segments) == 0 {
		r.fail("no synthesizable content")
		return
	}
	r.info(2, fmt.Sprintf("split into %d segments", len(segments)))

	// Voice load is cheap and cached; do it before consuming a slot so an
	// unknown voice never occupies synthesis capacity.
	handle, err := r.p.voices.Load(r.ctx, r.req.VoiceID)
	if err != nil {
		r.fail(fmt.Sprintf("voice %q unavailable: %v", r.req.VoiceID, err))
		return
	}

	// QUEUED -> ADMITTED
	job := &scheduler.Job{
		ID:           r.jobID,
		UserID:       r.req.UserID,
		Priority:     r.req.Priority,
		SegmentCount: len(segments),
		SubmittedAt:  time.Now(),
	}
	if !r.awaitAdmission(job) {
		return
	}

	// Finish is released exactly once per admitted job, on every exit path.
	var once sync.Once
	finish := func() {
		once.Do(func() {
			if err := r.p.sched.Finish(r.jobID); err != nil {
				slog.Error("scheduler finish failed", "job_id", r.jobID, "error", err)
			}
		})
	}
	defer finish()

	r.progress(10, "starting synthesis")

	// SYNTHESIZING
	clips, ok := r.synthesizeAll(segments, handle)
	if !ok {
		return
	}

	// COMBINING
	combined, dur, ok := r.combine(clips)
	if !ok {
		return
	}

	// DONE
	art := Artifact{
		ID:       r.jobID,
		UserID:   r.req.UserID,
		VoiceID:  r.req.VoiceID,
		Text:     r.req.Text,
		Audio:    combined,
		Duration: dur,
	}
	if err := r.p.store.SaveAudio(r.ctx, art); err != nil {
		slog.Error("artifact save failed", "job_id", r.jobID, "error", err)
		r.fail("failed to store audio")
		return
	}

	finish()
	r.complete(art)
}

func (r *run) validate() error {
	if r.req.Rate < 0.5 || r.req.Rate > 2.0 {
		return fmt.Errorf("rate %.2f out of range [0.5, 2.0]", r.req.Rate)
	}
	return nil
}

// awaitAdmission enqueues the job and polls the scheduler until it is
// admitted or the caller goes away. Returns false when the run terminated.
func (r *run) awaitAdmission(job *scheduler.Job) bool {
	pos := r.p.sched.Enqueue(job)

	if r.p.sched.TryAdmit(job) {
		return true
	}
	r.queueInfo(pos)

	ticker := time.NewTicker(r.p.cfg.PollInterval)
	defer ticker.Stop()

	lastReported := pos
	for {
		select {
		case <-r.ctx.Done():
			r.p.sched.Remove(job.ID)
			r.fail("cancelled while waiting in queue")
			return false
		case <-r.p.sched.Wake():
		case <-ticker.C:
		}

		if r.p.sched.TryAdmit(job) {
			return true
		}
		if pos, ok := r.p.sched.PositionOf(job.ID); ok && pos != lastReported {
			lastReported = pos
			r.queueInfo(pos)
		}
	}
}

// synthesizeAll runs segments through the executor in scheduler-sized
// batches, awaiting each batch before the next to bound peak resource use.
// Returned clips are ordered by segment index regardless of completion
// order. Returns ok=false when the run terminated.
func (r *run) synthesizeAll(segments []splitter.Segment, handle *voice.Handle) ([][]byte, bool) {
	total := len(segments)
	clips := make([][]byte, total)
	done := 0

	for start := 0; start < total; {
		if err := r.ctx.Err(); err != nil {
			r.fail("cancelled during synthesis")
			return nil, false
		}

		// Batch width shrinks under system-wide load, so re-ask per batch.
		width := r.p.sched.BatchSizeFor(r.req.Priority)
		end := start + width
		if end > total {
			end = total
		}

		results, err := r.p.exec.SynthesizeBatch(r.ctx, segments[start:end], handle, r.req.Rate)
		if err != nil {
			slog.Error("segment synthesis failed", "job_id", r.jobID, "error", err)
			r.fail(fmt.Sprintf("synthesis failed: %v", err))
			return nil, false
		}
		for _, res := range results {
			clips[res.Index] = res.Audio
		}

		done += end - start
		r.progress(10+80*done/total, fmt.Sprintf("synthesized %d/%d segments", done, total))
		start = end
	}

	return clips, true
}

// combine concatenates clips strictly in index order, walking progress
// from 90 to 98. Returns ok=false when the run terminated.
func (r *run) combine(clips [][]byte) ([]byte, time.Duration, bool) {
	r.progress(90, "combining segments")

	var f audio.Format
	var pcm []byte
	for i, clip := range clips {
		cf, data, err := audio.Decode(clip)
		if err != nil {
			r.fail(fmt.Sprintf("combine failed on segment %d: %v", i, err))
			return nil, 0, false
		}
		if i == 0 {
			f = cf
		} else if cf != f {
			r.fail(fmt.Sprintf("combine failed: segment %d format mismatch", i))
			return nil, 0, false
		}
		pcm = append(pcm, data...)
		r.progress(90+8*(i+1)/len(clips), "")
	}

	combined := audio.Encode(f, pcm)
	dur, err := audio.Duration(combined)
	if err != nil {
		r.fail(fmt.Sprintf("duration measurement failed: %v", err))
		return nil, 0, false
	}

	r.progress(98, "finalizing")
	return combined, dur, true
}

// emit pushes one event, giving up when the consumer is gone.
func (r *run) emit(ev Event) {
	if r.terminated {
		return
	}
	if ev.Progress < r.lastProgress {
		ev.Progress = r.lastProgress
	}
	r.lastProgress = ev.Progress
	// Buffer space means the event is deliverable even when ctx is already
	// cancelled; terminal events must not be lost to that race.
	select {
	case r.events <- ev:
		return
	default:
	}
	select {
	case r.events <- ev:
	case <-r.ctx.Done():
	}
}

func (r *run) info(progress int, msg string) {
	r.emit(Event{Type: EventInfo, Progress: progress, Message: msg})
}

func (r *run) queueInfo(pos int) {
	r.emit(Event{
		Type:          EventInfo,
		Progress:      r.lastProgress,
		Message:       fmt.Sprintf("queued at position %d", pos),
		QueuePosition: pos,
	})
}

func (r *run) progress(pct int, msg string) {
	if pct > 98 {
		pct = 98 // 100 belongs to the complete event alone
	}
	r.emit(Event{Type: EventProgress, Progress: pct, Message: msg})
}

// fail emits the single terminal error event.
func (r *run) fail(msg string) {
	r.emit(Event{Type: EventError, Progress: r.lastProgress, Message: msg})
	r.terminated = true
}

// complete emits the single terminal complete event at progress 100.
func (r *run) complete(art Artifact) {
	r.emit(Event{
		Type:     EventComplete,
		Progress: 100,
		Message:  "done",
		AudioID:  art.ID.String(),
		Duration: art.Duration.Seconds(),
	})
	r.terminated = true
}
