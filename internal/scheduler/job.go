package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	applog "github.com/mrlokans/mangashelf/internal/logger"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Job runs fn on a cron schedule. Runs never overlap: a tick that arrives
// while the previous run is still going is skipped.
type Job struct {
	name     string
	schedule string
	timeout  time.Duration
	fn       func(ctx context.Context)
	log      *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isBusy     bool
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func newJob(name, schedule string, timeout time.Duration, fn func(ctx context.Context), log *zap.Logger) *Job {
	return &Job{
		name:     name,
		schedule: schedule,
		timeout:  timeout,
		fn:       fn,
		log:      applog.OrNop(log).With(zap.String("job", name)),
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the job. It stops on its own when ctx is cancelled.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		return nil
	}

	if err := ValidateSchedule(j.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", j.schedule, err)
	}

	var cancelCtx context.Context
	cancelCtx, j.cancelFunc = context.WithCancel(ctx)

	entryID, err := j.cron.AddFunc(j.schedule, func() { j.run(cancelCtx) })
	if err != nil {
		j.cancelFunc()
		j.cancelFunc = nil
		return fmt.Errorf("failed to schedule %s: %w", j.name, err)
	}
	j.entryID = entryID

	j.cron.Start()
	j.isRunning = true

	j.log.Info("scheduler started", zap.String("schedule", j.schedule), zap.Timep("next_run", j.nextRunLocked()))

	go func() {
		<-cancelCtx.Done()
		j.Stop()
	}()

	return nil
}

// Stop cancels a run in progress, waits for it and unschedules the job.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	cancel := j.cancelFunc
	j.cancelFunc = nil
	j.mu.Unlock()

	cancel()
	<-j.cron.Stop().Done()
	j.cron.Remove(j.entryID)

	j.log.Info("scheduler stopped")
}

// RunNow triggers an immediate run in the background.
func (j *Job) RunNow(ctx context.Context) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(ctx)
	}()
}

// Wait blocks until runs started by RunNow have finished.
func (j *Job) Wait() {
	j.wg.Wait()
}

func (j *Job) IsRunning() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.isRunning
}

// IsBusy reports whether a run is in progress.
func (j *Job) IsBusy() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.isBusy
}

// NextRun returns when the job fires next, or nil when it is not scheduled.
func (j *Job) NextRun() *time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.nextRunLocked()
}

func (j *Job) nextRunLocked() *time.Time {
	if !j.isRunning {
		return nil
	}
	for _, entry := range j.cron.Entries() {
		if entry.ID == j.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (j *Job) run(ctx context.Context) {
	j.mu.Lock()
	if j.isBusy {
		j.mu.Unlock()
		j.log.Info("run skipped, previous run still in progress")
		return
	}
	j.isBusy = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.isBusy = false
		j.mu.Unlock()
	}()

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	j.fn(ctx)
}
