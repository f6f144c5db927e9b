package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrCorruptState marks invariant violations (double admit, double finish).
// These indicate a programming error in the caller, not a recoverable
// condition.
var ErrCorruptState = errors.New("scheduler state corrupt")

// Job is one synthesis request tracked by the scheduler. Owned exclusively
// by the scheduler until admitted, then shared read-only with the pipeline.
type Job struct {
	ID           uuid.UUID
	UserID       string
	Priority     bool
	SegmentCount int
	SubmittedAt  time.Time
}

// priorityScore ranks queued jobs: higher runs sooner. It is a pure function
// of the job and the current time, recomputed at every scheduling decision
// and never cached on the job.
func priorityScore(job *Job, now time.Time) float64 {
	base := 1.0
	if job.Priority {
		base = 2.0
	}
	return base + now.Sub(job.SubmittedAt).Seconds()*0.01
}

// Config tunes admission and batch sizing.
type Config struct {
	MaxConcurrent int // jobs allowed to synthesize at once
	ProBatchSize  int // parallel segment fan-out for pro jobs
	FreeBatchSize int // parallel segment fan-out for free jobs
	MinBatchSize  int // floor under load-based shrinking
}

// DefaultConfig matches production tuning: three concurrent jobs, batches of
// 25 (pro) / 10 (free) segments.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 3,
		ProBatchSize:  25,
		FreeBatchSize: 10,
		MinBatchSize:  4,
	}
}

// Scheduler gates job concurrency with a priority-aided fair-share policy:
// it prevents one heavy user from starving others while giving pro jobs
// faster turnaround and wider segment batches. All state lives behind one
// mutex; every operation is atomic with respect to every other.
type Scheduler struct {
	cfg Config
	now func() time.Time

	mu            sync.Mutex
	active        map[uuid.UUID]*Job
	queued        []*Job
	activePerUser map[string]int

	wake chan struct{}
}

// New creates a scheduler. Zero-value config fields fall back to defaults.
func New(cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.ProBatchSize <= 0 {
		cfg.ProBatchSize = def.ProBatchSize
	}
	if cfg.FreeBatchSize <= 0 {
		cfg.FreeBatchSize = def.FreeBatchSize
	}
	if cfg.MinBatchSize <= 0 {
		cfg.MinBatchSize = def.MinBatchSize
	}
	return &Scheduler{
		cfg:           cfg,
		now:           time.Now,
		active:        make(map[uuid.UUID]*Job),
		activePerUser: make(map[string]int),
		wake:          make(chan struct{}, 1),
	}
}

// SetClock replaces the time source. Test hook.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Wake signals whenever a job finishes and capacity may have freed. Waiters
// should re-poll TryAdmit on receipt.
func (s *Scheduler) Wake() <-chan struct{} {
	return s.wake
}

// Enqueue inserts job into the queue ordered by descending priority score
// and returns its 1-based rank among queued jobs.
func (s *Scheduler) Enqueue(job *Job) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[job.ID]; ok {
		slog.Error("enqueue of active job", "job_id", job.ID, "error", ErrCorruptState)
		return 0
	}
	for i, q := range s.queued {
		if q.ID == job.ID {
			return i + 1
		}
	}

	s.queued = append(s.queued, job)
	s.sortQueueLocked()

	for i, q := range s.queued {
		if q.ID == job.ID {
			return i + 1
		}
	}
	return len(s.queued)
}

// TryAdmit evaluates the admission policy for job and, when it passes,
// atomically promotes it from queued to active. Returning false is a normal
// outcome: the job stays queued and the caller re-polls after a Wake signal
// or backoff.
//
// Policy, in order:
//  1. under max_concurrent: admit;
//  2. user holds strictly fewer active jobs than the per-user average: admit
//     (fair share);
//  3. priority job and under max_concurrent*1.5: admit (pro overflow);
//  4. otherwise refuse.
func (s *Scheduler) TryAdmit(job *Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[job.ID]; ok {
		slog.Error("admit of already-active job", "job_id", job.ID, "error", ErrCorruptState)
		return false
	}

	if !s.admittableLocked(job) {
		s.sortQueueLocked()
		return false
	}

	s.startLocked(job)
	return true
}

func (s *Scheduler) admittableLocked(job *Job) bool {
	activeCount := len(s.active)

	if activeCount < s.cfg.MaxConcurrent {
		return true
	}

	distinctUsers := len(s.activePerUser)
	if distinctUsers == 0 {
		return true
	}
	avgPerUser := float64(activeCount) / float64(distinctUsers)
	if float64(s.activePerUser[job.UserID]) < avgPerUser {
		return true
	}

	if job.Priority && float64(activeCount) < float64(s.cfg.MaxConcurrent)*1.5 {
		return true
	}

	return false
}

// startLocked moves job from queued to active. Callers hold s.mu, keeping
// the move atomic with the admission check that authorized it.
func (s *Scheduler) startLocked(job *Job) {
	for i, q := range s.queued {
		if q.ID == job.ID {
			s.queued = append(s.queued[:i], s.queued[i+1:]...)
			break
		}
	}
	s.active[job.ID] = job
	s.activePerUser[job.UserID]++
}

// Finish releases job's slot. The per-user counter entry is deleted at zero
// so memory stays bounded by active users, not all users ever seen.
// Finishing a job that is not active is an invariant violation.
func (s *Scheduler) Finish(jobID uuid.UUID) error {
	s.mu.Lock()

	job, ok := s.active[jobID]
	if !ok {
		s.mu.Unlock()
		slog.Error("finish of non-active job", "job_id", jobID, "error", ErrCorruptState)
		return fmt.Errorf("finish %s: %w", jobID, ErrCorruptState)
	}

	delete(s.active, jobID)
	s.activePerUser[job.UserID]--
	if s.activePerUser[job.UserID] <= 0 {
		delete(s.activePerUser, job.UserID)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Remove drops a still-queued job, used when the caller cancels before
// admission. Removing an unknown or already-admitted job is a no-op.
func (s *Scheduler) Remove(jobID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, q := range s.queued {
		if q.ID == jobID {
			s.queued = append(s.queued[:i], s.queued[i+1:]...)
			return
		}
	}
}

// PositionOf reports a job's place: 0 means active, 1..N means queue rank.
// ok is false when the job is unknown.
func (s *Scheduler) PositionOf(jobID uuid.UUID) (pos int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, active := s.active[jobID]; active {
		return 0, true
	}
	for i, q := range s.queued {
		if q.ID == jobID {
			return i + 1, true
		}
	}
	return 0, false
}

// BatchSizeFor returns the segment fan-out width for one admission. Pro jobs
// get a larger base; the base shrinks as system-wide load grows, trading
// per-job parallelism for fairness across jobs.
func (s *Scheduler) BatchSizeFor(priority bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.cfg.FreeBatchSize
	if priority {
		base = s.cfg.ProBatchSize
	}

	size := base
	switch activeCount := len(s.active); {
	case activeCount > 4:
		size = base * 50 / 100
	case activeCount > 2:
		size = base * 70 / 100
	}

	if size < s.cfg.MinBatchSize {
		size = s.cfg.MinBatchSize
	}
	return size
}

// ActiveCount reports how many jobs currently hold synthesis slots.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// sortQueueLocked reorders the queue by descending priority score. Scores
// are time-dependent, so the queue is re-sorted at insertion and at each
// refused admission check.
func (s *Scheduler) sortQueueLocked() {
	now := s.now()
	sort.SliceStable(s.queued, func(i, j int) bool {
		return priorityScore(s.queued[i], now) > priorityScore(s.queued[j], now)
	})
}
