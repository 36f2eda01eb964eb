// internal/app/system/workers/daily.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/jobs"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// TimeOfDay is a wall-clock time in UTC.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" (24-hour).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// NextRun returns the first instant strictly after now at which the clock
// reads at in UTC.
func NextRun(now time.Time, at TimeOfDay) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Daily is a background worker that runs its jobs once a day at a fixed
// UTC time. A job that is still running when its next trigger arrives is
// skipped for that trigger.
type Daily struct {
	jobs    []jobs.Job
	at      TimeOfDay
	log     *zap.Logger
	now     func() time.Time
	running map[string]*atomic.Bool
	stopCh  chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
}

// NewDaily creates a daily worker.
//
// Parameters:
//   - at: the UTC time of day to fire (e.g. 00:00)
//   - logger: zap logger for logging
//   - js: the jobs to run on each trigger
func NewDaily(at TimeOfDay, logger *zap.Logger, js ...jobs.Job) *Daily {
	running := make(map[string]*atomic.Bool, len(js))
	for _, j := range js {
		running[j.Name] = new(atomic.Bool)
	}
	return &Daily{
		jobs:    js,
		at:      at,
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
		running: running,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Daily) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("daily worker started",
		zap.String("at_utc", w.at.String()),
		zap.Int("jobs", len(w.jobs)),
		zap.Time("next_run", NextRun(w.now(), w.at)))
}

// Stop signals the worker to stop and waits for in-flight jobs to finish.
// Calls after the first are no-ops.
func (w *Daily) Stop() {
	w.stop.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("daily worker stopped")
	})
}

func (w *Daily) run() {
	defer w.wg.Done()

	for {
		timer := time.NewTimer(time.Until(NextRun(w.now(), w.at)))
		select {
		case <-w.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			w.RunAll(w.now())
		}
	}
}

// RunAll triggers every job once for the instant now. Jobs run one after
// another on the calling goroutine. It returns the names of jobs that ran.
func (w *Daily) RunAll(now time.Time) []string {
	var ran []string
	for _, j := range w.jobs {
		if w.runOne(j, now) {
			ran = append(ran, j.Name)
		}
	}
	return ran
}

// runOne executes j unless a previous run of j is still in flight. Errors
// and panics are logged so a failing job never stops the worker.
func (w *Daily) runOne(j jobs.Job, now time.Time) (ran bool) {
	flag := w.running[j.Name]
	if !flag.CompareAndSwap(false, true) {
		w.log.Warn("job still running, skipping trigger", zap.String("job", j.Name))
		return false
	}
	defer flag.Store(false)
	ran = true

	defer func() {
		if rec := recover(); rec != nil {
			w.log.Error("job panicked", zap.String("job", j.Name), zap.Any("panic", rec))
		}
	}()

	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Batch(), w.log, j.Name)
	defer cancel()

	start := time.Now()
	if err := j.Run(ctx, now); err != nil {
		w.log.Error("job failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	w.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
	return
}
