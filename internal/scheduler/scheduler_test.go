package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newJob(userID string, priority bool, submittedAt time.Time) *Job {
	return &Job{
		ID:           uuid.New(),
		UserID:       userID,
		Priority:     priority,
		SegmentCount: 1,
		SubmittedAt:  submittedAt,
	}
}

func TestAdmitUnderCapacity(t *testing.T) {
	s := New(Config{MaxConcurrent: 3})
	now := time.Now()

	for i := 0; i < 3; i++ {
		job := newJob("user-a", false, now)
		s.Enqueue(job)
		if !s.TryAdmit(job) {
			t.Fatalf("job %d refused under capacity", i)
		}
	}
	if got := s.ActiveCount(); got != 3 {
		t.Errorf("ActiveCount = %d, want 3", got)
	}
}

func TestSingleSlotQueueThenAdmitAfterFinish(t *testing.T) {
	s := New(Config{MaxConcurrent: 1})
	now := time.Now()

	first := newJob("user-a", false, now)
	s.Enqueue(first)
	if !s.TryAdmit(first) {
		t.Fatal("first job refused on empty scheduler")
	}

	second := newJob("user-a", false, now)
	if pos := s.Enqueue(second); pos != 1 {
		t.Errorf("Enqueue returned position %d, want 1", pos)
	}
	if s.TryAdmit(second) {
		t.Fatal("second job admitted while slot held")
	}
	if pos, ok := s.PositionOf(second.ID); !ok || pos != 1 {
		t.Errorf("PositionOf = (%d, %v), want (1, true)", pos, ok)
	}

	if err := s.Finish(first.ID); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	select {
	case <-s.Wake():
	default:
		t.Error("no wake signal after Finish")
	}

	if !s.TryAdmit(second) {
		t.Fatal("second job refused after slot freed")
	}
	if pos, ok := s.PositionOf(second.ID); !ok || pos != 0 {
		t.Errorf("PositionOf after admit = (%d, %v), want (0, true)", pos, ok)
	}
}

func TestFairShareAdmitsLightUserOverCapacity(t *testing.T) {
	s := New(Config{MaxConcurrent: 3})
	now := time.Now()

	// One heavy user fills all three slots.
	for i := 0; i < 3; i++ {
		job := newJob("heavy", false, now)
		s.Enqueue(job)
		if !s.TryAdmit(job) {
			t.Fatalf("setup: job %d refused", i)
		}
	}

	// A user with no active jobs is below the per-user average and gets in.
	light := newJob("light", false, now)
	s.Enqueue(light)
	if !s.TryAdmit(light) {
		t.Error("light user refused despite fair share")
	}

	// The heavy user is at or above the average and stays queued.
	heavy := newJob("heavy", false, now)
	s.Enqueue(heavy)
	if s.TryAdmit(heavy) {
		t.Error("heavy user admitted over fair share")
	}
}

func TestProOverflowAdmission(t *testing.T) {
	s := New(Config{MaxConcurrent: 3})
	now := time.Now()

	// Three distinct users, one slot each: average is exactly 1.
	for _, u := range []string{"a", "b", "c"} {
		job := newJob(u, false, now)
		s.Enqueue(job)
		if !s.TryAdmit(job) {
			t.Fatalf("setup: job for %s refused", u)
		}
	}

	// Same users again: at the average, free jobs are refused but pro jobs
	// ride the 1.5x overflow allowance (3 < 4.5).
	free := newJob("a", false, now)
	s.Enqueue(free)
	if s.TryAdmit(free) {
		t.Error("free job admitted at fair-share average")
	}

	pro := newJob("b", true, now)
	s.Enqueue(pro)
	if !s.TryAdmit(pro) {
		t.Error("pro job refused under overflow allowance")
	}
}

func TestQueueOrderedByPriorityScore(t *testing.T) {
	s := New(Config{MaxConcurrent: 1})
	base := time.Now()
	s.SetClock(func() time.Time { return base })

	// Occupy the slot so everything else queues.
	holder := newJob("x", false, base)
	s.Enqueue(holder)
	if !s.TryAdmit(holder) {
		t.Fatal("setup: holder refused")
	}

	// Fresh free job: score 1.0. Pro job submitted at the same time: 2.0.
	// Free job waiting 150s: 1.0 + 1.5 = 2.5, beating the fresh pro.
	freshFree := newJob("u1", false, base)
	freshPro := newJob("u2", true, base)
	oldFree := newJob("u3", false, base.Add(-150*time.Second))

	s.Enqueue(freshFree)
	s.Enqueue(freshPro)
	s.Enqueue(oldFree)

	wantOrder := []uuid.UUID{oldFree.ID, freshPro.ID, freshFree.ID}
	for i, id := range wantOrder {
		pos, ok := s.PositionOf(id)
		if !ok || pos != i+1 {
			t.Errorf("job %d: PositionOf = (%d, %v), want (%d, true)", i, pos, ok, i+1)
		}
	}
}

func TestWaitTimeAgesScores(t *testing.T) {
	s := New(Config{MaxConcurrent: 1})
	base := time.Now()
	now := base
	s.SetClock(func() time.Time { return now })

	holder := newJob("x", false, base)
	s.Enqueue(holder)
	s.TryAdmit(holder)

	free := newJob("u1", false, base)
	if pos := s.Enqueue(free); pos != 1 {
		t.Fatalf("free position = %d, want 1", pos)
	}

	// 150s later a fresh pro job arrives. The free job's accrued wait
	// (1.0 + 1.5 = 2.5) outscores the fresh pro (2.0), so it keeps the head
	// of the queue instead of being starved.
	now = base.Add(150 * time.Second)
	pro := newJob("u2", true, now)
	s.Enqueue(pro)

	if pos, _ := s.PositionOf(free.ID); pos != 1 {
		t.Errorf("aged free job position = %d, want 1", pos)
	}
	if pos, _ := s.PositionOf(pro.ID); pos != 2 {
		t.Errorf("fresh pro position = %d, want 2", pos)
	}
}

func TestBatchSizeShrinksUnderLoad(t *testing.T) {
	s := New(Config{MaxConcurrent: 10, ProBatchSize: 25, FreeBatchSize: 10, MinBatchSize: 4})
	now := time.Now()

	admit := func(user string) {
		job := newJob(user, false, now)
		s.Enqueue(job)
		if !s.TryAdmit(job) {
			t.Fatalf("setup: job for %s refused", user)
		}
	}

	// Idle: full base sizes.
	if got := s.BatchSizeFor(true); got != 25 {
		t.Errorf("idle pro batch = %d, want 25", got)
	}
	if got := s.BatchSizeFor(false); got != 10 {
		t.Errorf("idle free batch = %d, want 10", got)
	}

	// Three active: 70% of base.
	admit("a")
	admit("b")
	admit("c")
	if got := s.BatchSizeFor(true); got != 17 {
		t.Errorf("loaded pro batch = %d, want 17", got)
	}
	if got := s.BatchSizeFor(false); got != 7 {
		t.Errorf("loaded free batch = %d, want 7", got)
	}

	// Five active: 50% of base.
	admit("d")
	admit("e")
	if got := s.BatchSizeFor(true); got != 12 {
		t.Errorf("heavy pro batch = %d, want 12", got)
	}
	if got := s.BatchSizeFor(false); got != 5 {
		t.Errorf("heavy free batch = %d, want 5", got)
	}
}

func TestBatchSizeFloor(t *testing.T) {
	s := New(Config{MaxConcurrent: 10, ProBatchSize: 25, FreeBatchSize: 6, MinBatchSize: 4})
	now := time.Now()

	for _, u := range []string{"a", "b", "c", "d", "e"} {
		job := newJob(u, false, now)
		s.Enqueue(job)
		s.TryAdmit(job)
	}

	// 6 * 50% = 3, clamped up to the floor.
	if got := s.BatchSizeFor(false); got != 4 {
		t.Errorf("floored free batch = %d, want 4", got)
	}
}

func TestFinishNonActiveJobIsCorruptState(t *testing.T) {
	s := New(Config{MaxConcurrent: 1})

	if err := s.Finish(uuid.New()); !errors.Is(err, ErrCorruptState) {
		t.Errorf("Finish(unknown) = %v, want ErrCorruptState", err)
	}

	job := newJob("a", false, time.Now())
	s.Enqueue(job)
	s.TryAdmit(job)
	if err := s.Finish(job.ID); err != nil {
		t.Fatalf("first Finish: %v", err)
	}
	if err := s.Finish(job.ID); !errors.Is(err, ErrCorruptState) {
		t.Errorf("double Finish = %v, want ErrCorruptState", err)
	}
}

func TestRemoveDropsQueuedJob(t *testing.T) {
	s := New(Config{MaxConcurrent: 1})
	now := time.Now()

	holder := newJob("x", false, now)
	s.Enqueue(holder)
	s.TryAdmit(holder)

	queued := newJob("a", false, now)
	s.Enqueue(queued)
	s.Remove(queued.ID)

	if _, ok := s.PositionOf(queued.ID); ok {
		t.Error("removed job still visible")
	}

	// Removing an active job is a no-op.
	s.Remove(holder.ID)
	if pos, ok := s.PositionOf(holder.ID); !ok || pos != 0 {
		t.Errorf("active job disturbed by Remove: (%d, %v)", pos, ok)
	}
}

func TestPerUserCountersReleasedAtZero(t *testing.T) {
	s := New(Config{MaxConcurrent: 3})
	now := time.Now()

	job := newJob("a", false, now)
	s.Enqueue(job)
	s.TryAdmit(job)
	s.Finish(job.ID)

	s.mu.Lock()
	_, present := s.activePerUser["a"]
	s.mu.Unlock()
	if present {
		t.Error("per-user counter retained after last job finished")
	}
}
