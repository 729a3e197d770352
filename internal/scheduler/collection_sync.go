package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/mangashelf/internal/cloudsync"
	dbsync "github.com/mrlokans/mangashelf/internal/database/sync"
	applog "github.com/mrlokans/mangashelf/internal/logger"
)

// ErrSyncInProgress is returned when another process is already syncing.
var ErrSyncInProgress = errors.New("a collection sync is already running")

const collectionSyncTimeout = 10 * time.Minute

type SyncDowner interface {
	SyncDown(ctx context.Context) cloudsync.Report
}

// RunRecorder persists the outcome of each sync-down run.
type RunRecorder interface {
	TryStartSync() (bool, error)
	CompleteSync(totals dbsync.Totals, errorMsg string) error
	SkipSync(reason string) error
}

// RunCollectionSync performs one recorded sync-down. The report's own error
// (the cloud collection could not be fetched) is recorded, not returned; the
// returned error is about the run history itself.
func RunCollectionSync(ctx context.Context, engine SyncDowner, recorder RunRecorder, log *zap.Logger) (cloudsync.Report, error) {
	log = applog.OrNop(log)

	started, err := recorder.TryStartSync()
	if err != nil {
		return cloudsync.Report{}, fmt.Errorf("failed to record sync start: %w", err)
	}
	if !started {
		return cloudsync.Report{}, ErrSyncInProgress
	}

	begin := time.Now()
	report := engine.SyncDown(ctx)

	if report.Skipped {
		log.Info("collection sync skipped, not signed in")
		if err := recorder.SkipSync("not signed in"); err != nil {
			return report, fmt.Errorf("failed to record skipped sync: %w", err)
		}
		return report, nil
	}

	var errMsg string
	if report.Err != nil {
		errMsg = report.Err.Error()
	}
	totals := dbsync.Totals{
		Total:    report.Total,
		Updated:  report.Updated,
		Inserted: report.Inserted,
		Failed:   report.Failed,
	}
	if err := recorder.CompleteSync(totals, errMsg); err != nil {
		return report, fmt.Errorf("failed to record sync result: %w", err)
	}

	log.Info("collection sync finished",
		zap.Stringer("report", report),
		zap.Duration("duration", time.Since(begin).Round(time.Millisecond)))
	return report, nil
}

// NewCollectionSyncScheduler pulls the cloud collection on schedule.
func NewCollectionSyncScheduler(schedule string, engine SyncDowner, recorder RunRecorder, log *zap.Logger) *Job {
	log = applog.OrNop(log)
	return newJob("collection_sync", schedule, collectionSyncTimeout, func(ctx context.Context) {
		if _, err := RunCollectionSync(ctx, engine, recorder, log); err != nil {
			log.Warn("collection sync did not run", zap.Error(err))
		}
	}, log)
}
