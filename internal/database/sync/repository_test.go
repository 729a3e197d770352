package sync

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mangashelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
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

	return NewRepository(db), db
}

func TestRepository_StartSync(t *testing.T) {
	repo, _ := setupTestDB(t)

	require.NoError(t, repo.StartSync())

	run, err := repo.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncTypeCollectionDown, run.SyncType)
	assert.Equal(t, entities.SyncStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)
}

func TestRepository_StartSync_Reset(t *testing.T) {
	repo, _ := setupTestDB(t)

	require.NoError(t, repo.StartSync())
	require.NoError(t, repo.CompleteSync(Totals{Total: 3, Updated: 2, Failed: 1}, "boom"))

	require.NoError(t, repo.StartSync())

	run, err := repo.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusRunning, run.Status)
	assert.Zero(t, run.TotalItems)
	assert.Zero(t, run.Failed)
	assert.Empty(t, run.Error)
	assert.Nil(t, run.CompletedAt)
}

func TestRepository_CompleteSync(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, _ := setupTestDB(t)
		require.NoError(t, repo.StartSync())

		require.NoError(t, repo.CompleteSync(Totals{Total: 5, Updated: 3, Inserted: 2}, ""))

		run, err := repo.GetSyncRun()
		require.NoError(t, err)
		assert.Equal(t, entities.SyncStatusCompleted, run.Status)
		assert.Equal(t, 5, run.TotalItems)
		assert.Equal(t, 3, run.Updated)
		assert.Equal(t, 2, run.Inserted)
		assert.NotNil(t, run.CompletedAt)
	})

	t.Run("failure", func(t *testing.T) {
		repo, _ := setupTestDB(t)
		require.NoError(t, repo.StartSync())

		require.NoError(t, repo.CompleteSync(Totals{}, "remote unavailable"))

		run, err := repo.GetSyncRun()
		require.NoError(t, err)
		assert.Equal(t, entities.SyncStatusFailed, run.Status)
		assert.Equal(t, "remote unavailable", run.Error)
	})
}

func TestRepository_SkipSync(t *testing.T) {
	repo, _ := setupTestDB(t)

	require.NoError(t, repo.SkipSync("not signed in"))

	run, err := repo.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusSkipped, run.Status)
	assert.Equal(t, "not signed in", run.Error)

	running, err := repo.IsSyncRunning()
	require.NoError(t, err)
	assert.False(t, running)
}

func TestRepository_IsSyncRunning(t *testing.T) {
	repo, db := setupTestDB(t)

	running, err := repo.IsSyncRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, repo.StartSync())
	running, err = repo.IsSyncRunning()
	require.NoError(t, err)
	assert.True(t, running)

	require.NoError(t, db.Model(&entities.SyncRun{}).
		Where("sync_type = ?", entities.SyncTypeCollectionDown).
		Update("updated_at", time.Now().Add(-time.Hour)).Error)

	running, err = repo.IsSyncRunning()
	require.NoError(t, err)
	assert.False(t, running, "stale runs are treated as interrupted")

	run, err := repo.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusFailed, run.Status)
	assert.Equal(t, "sync was interrupted", run.Error)
}

func TestRepository_TryStartSync(t *testing.T) {
	t.Run("claims a missing row", func(t *testing.T) {
		repo, _ := setupTestDB(t)

		started, err := repo.TryStartSync()
		require.NoError(t, err)
		assert.True(t, started)

		run, err := repo.GetSyncRun()
		require.NoError(t, err)
		assert.Equal(t, entities.SyncStatusRunning, run.Status)
	})

	t.Run("refuses while a fresh run is in progress", func(t *testing.T) {
		repo, _ := setupTestDB(t)
		started, err := repo.TryStartSync()
		require.NoError(t, err)
		require.True(t, started)

		started, err = repo.TryStartSync()
		require.NoError(t, err)
		assert.False(t, started)
	})

	t.Run("resets a finished run", func(t *testing.T) {
		repo, _ := setupTestDB(t)
		require.NoError(t, repo.StartSync())
		require.NoError(t, repo.CompleteSync(Totals{Total: 4, Updated: 3, Failed: 1}, "remote unavailable"))

		started, err := repo.TryStartSync()
		require.NoError(t, err)
		assert.True(t, started)

		run, err := repo.GetSyncRun()
		require.NoError(t, err)
		assert.Equal(t, entities.SyncStatusRunning, run.Status)
		assert.Zero(t, run.TotalItems)
		assert.Zero(t, run.Failed)
		assert.Empty(t, run.Error)
		assert.Nil(t, run.CompletedAt)
	})

	t.Run("takes over a stale run", func(t *testing.T) {
		repo, db := setupTestDB(t)
		require.NoError(t, repo.StartSync())
		require.NoError(t, db.Model(&entities.SyncRun{}).
			Where("sync_type = ?", entities.SyncTypeCollectionDown).
			Update("updated_at", time.Now().Add(-time.Hour)).Error)

		started, err := repo.TryStartSync()
		require.NoError(t, err)
		assert.True(t, started)
	})
}

func TestRepository_TryStartSync_SingleWinnerAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	open := func() *Repository {
		db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(&entities.SyncRun{}))
		t.Cleanup(func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		})
		return NewRepository(db)
	}
	repos := []*Repository{open(), open()}

	var winners atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		repo := repos[i%len(repos)]
		g.Go(func() error {
			started, err := repo.TryStartSync()
			if started {
				winners.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), winners.Load())
}

func TestRepository_IsSyncRunning_LeavesReclaimedRunAlone(t *testing.T) {
	repo, _ := setupTestDB(t)
	started, err := repo.TryStartSync()
	require.NoError(t, err)
	require.True(t, started)

	require.NoError(t, repo.markInterrupted())

	run, err := repo.GetSyncRun()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusRunning, run.Status, "fresh run must not be failed")
}
