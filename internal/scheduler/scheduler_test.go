package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mangashelf/internal/cloudsync"
	dbsync "github.com/mrlokans/mangashelf/internal/database/sync"
	"github.com/mrlokans/mangashelf/internal/entities"
)

type fakeSyncer struct {
	report  cloudsync.Report
	calls   atomic.Int32
	release chan struct{}
}

func (f *fakeSyncer) SyncDown(ctx context.Context) cloudsync.Report {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.report
}

type fakeRefresher struct {
	authenticated bool
	err           error
	calls         int
}

func (f *fakeRefresher) IsAuthenticated() bool { return f.authenticated }

func (f *fakeRefresher) RefreshToken(ctx context.Context) error {
	f.calls++
	return f.err
}

func setupRecorder(t *testing.T) *dbsync.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sync.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.SyncRun{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return dbsync.NewRepository(db)
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("*/30 * * * *"))
	assert.NoError(t, ValidateSchedule("0 */12 * * *"))
	assert.Error(t, ValidateSchedule("every hour"))
	assert.Error(t, ValidateSchedule("0 0 * * * *"), "seconds field is not accepted")
}

func TestRunCollectionSync_RecordsCompletion(t *testing.T) {
	recorder := setupRecorder(t)
	syncer := &fakeSyncer{report: cloudsync.Report{Total: 3, Updated: 1, Inserted: 1, Failed: 1}}

	report, err := RunCollectionSync(context.Background(), syncer, recorder, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)

	run, err := recorder.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusCompleted, run.Status)
	assert.Equal(t, 3, run.TotalItems)
	assert.Equal(t, 1, run.Updated)
	assert.Equal(t, 1, run.Inserted)
	assert.Equal(t, 1, run.Failed)
	assert.NotNil(t, run.CompletedAt)
}

func TestRunCollectionSync_RecordsFetchFailure(t *testing.T) {
	recorder := setupRecorder(t)
	syncer := &fakeSyncer{report: cloudsync.Report{Err: errors.New("manga API: request failed: timeout")}}

	_, err := RunCollectionSync(context.Background(), syncer, recorder, nil)
	require.NoError(t, err)

	run, err := recorder.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusFailed, run.Status)
	assert.Contains(t, run.Error, "timeout")
}

func TestRunCollectionSync_RecordsSkip(t *testing.T) {
	recorder := setupRecorder(t)
	syncer := &fakeSyncer{report: cloudsync.Report{Skipped: true}}

	report, err := RunCollectionSync(context.Background(), syncer, recorder, nil)
	require.NoError(t, err)
	assert.True(t, report.Skipped)

	run, err := recorder.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusSkipped, run.Status)
	assert.Equal(t, "not signed in", run.Error)
}

func TestRunCollectionSync_RefusesConcurrentRun(t *testing.T) {
	recorder := setupRecorder(t)
	started, err := recorder.TryStartSync()
	require.NoError(t, err)
	require.True(t, started)
	syncer := &fakeSyncer{}

	_, err = RunCollectionSync(context.Background(), syncer, recorder, nil)

	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Zero(t, syncer.calls.Load())
}

func TestCollectionSyncScheduler_RunNow(t *testing.T) {
	recorder := setupRecorder(t)
	syncer := &fakeSyncer{report: cloudsync.Report{Total: 1, Inserted: 1}}
	job := NewCollectionSyncScheduler("*/30 * * * *", syncer, recorder, nil)

	job.RunNow(context.Background())
	job.Wait()

	assert.Equal(t, int32(1), syncer.calls.Load())
	run, err := recorder.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusCompleted, run.Status)
}

func TestJob_RunsDoNotOverlap(t *testing.T) {
	recorder := setupRecorder(t)
	syncer := &fakeSyncer{release: make(chan struct{})}
	job := NewCollectionSyncScheduler("*/30 * * * *", syncer, recorder, nil)

	job.RunNow(context.Background())
	require.Eventually(t, job.IsBusy, time.Second, 5*time.Millisecond)

	job.RunNow(context.Background())
	close(syncer.release)
	job.Wait()

	assert.Equal(t, int32(1), syncer.calls.Load())
	assert.False(t, job.IsBusy())
}

func TestJob_StartStop(t *testing.T) {
	job := NewTokenRefreshScheduler("0 */12 * * *", &fakeRefresher{}, nil)
	assert.Nil(t, job.NextRun())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, job.Start(ctx))
	assert.True(t, job.IsRunning())
	require.NoError(t, job.Start(ctx), "starting twice is a no-op")

	next := job.NextRun()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	job.Stop()
	assert.False(t, job.IsRunning())
	assert.Nil(t, job.NextRun())
}

func TestJob_StopsWhenContextEnds(t *testing.T) {
	job := NewTokenRefreshScheduler("0 */12 * * *", &fakeRefresher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, job.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !job.IsRunning() }, time.Second, 5*time.Millisecond)
}

func TestJob_InvalidSchedule(t *testing.T) {
	job := NewTokenRefreshScheduler("not a schedule", &fakeRefresher{}, nil)

	err := job.Start(context.Background())

	require.Error(t, err)
	assert.False(t, job.IsRunning())
}

func TestTokenRefreshScheduler(t *testing.T) {
	t.Run("signed out does nothing", func(t *testing.T) {
		refresher := &fakeRefresher{}
		job := NewTokenRefreshScheduler("0 */12 * * *", refresher, nil)

		job.RunNow(context.Background())
		job.Wait()

		assert.Zero(t, refresher.calls)
	})

	t.Run("signed in refreshes", func(t *testing.T) {
		refresher := &fakeRefresher{authenticated: true}
		job := NewTokenRefreshScheduler("0 */12 * * *", refresher, nil)

		job.RunNow(context.Background())
		job.Wait()

		assert.Equal(t, 1, refresher.calls)
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		refresher := &fakeRefresher{authenticated: true, err: errors.New("refresh rejected")}
		job := NewTokenRefreshScheduler("0 */12 * * *", refresher, nil)

		assert.NotPanics(t, func() {
			job.RunNow(context.Background())
			job.Wait()
		})
		assert.Equal(t, 1, refresher.calls)
	})
}
