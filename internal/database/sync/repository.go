// Package sync provides database operations for sync run history.
//
// One row is kept per sync type and reset at the start of every run.
//
// # Usage
//
//	repo := sync.NewRepository(db)
//	started, err := repo.TryStartSync()
//	// ... run sync-down if started ...
//	err = repo.CompleteSync(sync.Totals{Total: 12, Updated: 10, Inserted: 2}, "")
package sync

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// staleAfter is how long a running sync may go without updates before it is
// considered interrupted.
const staleAfter = 10 * time.Minute

// Totals are the per-entry outcome counts of a sync run.
type Totals struct {
	Total    int
	Updated  int
	Inserted int
	Failed   int
}

// Repository handles all sync run database operations.
type Repository struct {
	db       *gorm.DB
	syncType entities.SyncType
}

// NewRepository creates a repository for collection sync-down runs.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, syncType: entities.SyncTypeCollectionDown}
}

// NewRepositoryWithType creates a sync repository for a specific sync type.
func NewRepositoryWithType(db *gorm.DB, syncType entities.SyncType) *Repository {
	return &Repository{db: db, syncType: syncType}
}

// GetSyncRun retrieves the latest run for the configured sync type.
func (r *Repository) GetSyncRun() (*entities.SyncRun, error) {
	var run entities.SyncRun
	err := r.db.Where("sync_type = ?", r.syncType).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// StartSync creates or resets the run record.
func (r *Repository) StartSync() error {
	var run entities.SyncRun
	result := r.db.Where("sync_type = ?", r.syncType).First(&run)

	now := time.Now()
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		run = entities.SyncRun{
			SyncType:  r.syncType,
			Status:    entities.SyncStatusRunning,
			StartedAt: now,
			UpdatedAt: now,
		}
		return r.db.Create(&run).Error
	} else if result.Error != nil {
		return result.Error
	}

	run.Status = entities.SyncStatusRunning
	run.TotalItems = 0
	run.Updated = 0
	run.Inserted = 0
	run.Failed = 0
	run.Error = ""
	run.StartedAt = now
	run.UpdatedAt = now
	run.CompletedAt = nil

	return r.db.Save(&run).Error
}

// CompleteSync stores the outcome of a run. A non-empty errorMsg marks the
// run as failed.
func (r *Repository) CompleteSync(totals Totals, errorMsg string) error {
	status := entities.SyncStatusCompleted
	if errorMsg != "" {
		status = entities.SyncStatusFailed
	}
	return r.finish(status, totals, errorMsg)
}

// SkipSync records a run that did not happen, e.g. because nobody is signed in.
func (r *Repository) SkipSync(reason string) error {
	if err := r.StartSync(); err != nil {
		return err
	}
	return r.finish(entities.SyncStatusSkipped, Totals{}, reason)
}

func (r *Repository) finish(status entities.SyncStatus, totals Totals, message string) error {
	now := time.Now()
	return r.db.Model(&entities.SyncRun{}).
		Where("sync_type = ?", r.syncType).
		Updates(map[string]any{
			"status":       status,
			"total_items":  totals.Total,
			"updated":      totals.Updated,
			"inserted":     totals.Inserted,
			"failed":       totals.Failed,
			"error":        message,
			"updated_at":   now,
			"completed_at": now,
		}).Error
}

// TryStartSync claims the run record for this process. It reports false when
// another run is in progress and has been updated within staleAfter. The claim
// is a single conditional write, so two processes cannot both win it.
func (r *Repository) TryStartSync() (bool, error) {
	now := time.Now()

	created := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entities.SyncRun{
		SyncType:  r.syncType,
		Status:    entities.SyncStatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	})
	if created.Error != nil {
		return false, created.Error
	}
	if created.RowsAffected == 1 {
		return true, nil
	}

	claimed := r.db.Model(&entities.SyncRun{}).
		Where("sync_type = ? AND (status <> ? OR updated_at < ?)",
			r.syncType, entities.SyncStatusRunning, now.Add(-staleAfter)).
		Updates(map[string]any{
			"status":       entities.SyncStatusRunning,
			"total_items":  0,
			"updated":      0,
			"inserted":     0,
			"failed":       0,
			"error":        "",
			"started_at":   now,
			"updated_at":   now,
			"completed_at": nil,
		})
	if claimed.Error != nil {
		return false, claimed.Error
	}
	return claimed.RowsAffected == 1, nil
}

// IsSyncRunning checks if a sync is currently in progress. A run that has not
// been updated for staleAfter is marked failed and reported as not running.
func (r *Repository) IsSyncRunning() (bool, error) {
	var run entities.SyncRun
	err := r.db.Where("sync_type = ? AND status = ?", r.syncType, entities.SyncStatusRunning).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if run.UpdatedAt.Before(time.Now().Add(-staleAfter)) {
		if err := r.markInterrupted(); err != nil {
			return false, fmt.Errorf("mark stale sync as interrupted: %w", err)
		}
		return false, nil
	}

	return true, nil
}

// markInterrupted fails the running row only while it is still stale, so a
// run claimed in the meantime is left alone.
func (r *Repository) markInterrupted() error {
	now := time.Now()
	return r.db.Model(&entities.SyncRun{}).
		Where("sync_type = ? AND status = ? AND updated_at < ?", r.syncType, entities.SyncStatusRunning, now.Add(-staleAfter)).
		Updates(map[string]any{
			"status":       entities.SyncStatusFailed,
			"error":        "sync was interrupted",
			"updated_at":   now,
			"completed_at": now,
		}).Error
}
