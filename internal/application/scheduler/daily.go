// Package scheduler runs process-lifetime recurring jobs.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Clock abstracts wall time and timers so schedules can be tested.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the real Clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// After returns time.After(d).
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Job is the work a DailyTask runs.
type Job func(ctx context.Context) error

// DefaultJobTimeout bounds a single run.
const DefaultJobTimeout = 5 * time.Minute

// DailyTask fires a job once a day at a fixed local wall-clock time.
// One timer is armed at a time; it is re-armed after each run.
type DailyTask struct {
	name   string
	hour   int
	minute int
	clock  Clock
	job    Job

	mu   sync.Mutex
	next time.Time
}

// NewDailyTask creates a task firing at hour:minute in the clock's local time.
// PRE: 0 <= hour < 24, 0 <= minute < 60
func NewDailyTask(name string, hour, minute int, clock Clock, job Job) *DailyTask {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DailyTask{name: name, hour: hour, minute: minute, clock: clock, job: job}
}

// NextFireTime returns today's fire time if now is before it, otherwise tomorrow's.
func (t *DailyTask) NextFireTime(now time.Time) time.Time {
	fire := time.Date(now.Year(), now.Month(), now.Day(), t.hour, t.minute, 0, 0, now.Location())
	if !now.Before(fire) {
		fire = time.Date(now.Year(), now.Month(), now.Day()+1, t.hour, t.minute, 0, 0, now.Location())
	}
	return fire
}

// Next returns the currently armed fire time, zero before Start.
func (t *DailyTask) Next() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// Start arms the timer and runs the job each time it fires until ctx is cancelled.
// Job errors are logged; the next day's run is armed regardless.
// POST: Returns immediately; the returned channel closes when the loop exits
func (t *DailyTask) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			now := t.clock.Now()
			next := t.NextFireTime(now)
			t.mu.Lock()
			t.next = next
			t.mu.Unlock()
			slog.Info("scheduled_task_armed", "task", t.name, "next", next.Format(time.RFC3339))

			select {
			case <-t.clock.After(next.Sub(now)):
				t.run(ctx)
			case <-ctx.Done():
				slog.Info("scheduled_task_stopped", "task", t.name)
				return
			}
		}
	}()
	return done
}

func (t *DailyTask) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultJobTimeout)
	defer cancel()
	start := t.clock.Now()
	if err := t.job(runCtx); err != nil {
		slog.Error("scheduled_task_failed", "task", t.name, "error", err)
		return
	}
	slog.Info("scheduled_task_completed", "task", t.name, "duration_ms", t.clock.Now().Sub(start).Milliseconds())
}
