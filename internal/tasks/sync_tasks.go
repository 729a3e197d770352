package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/entities"
	applog "github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

// RecordReader looks up the current local state of a collection record.
type RecordReader interface {
	Find(mangaID int) (*entities.CollectionRecord, error)
}

// Pusher is the part of cloudsync.Engine the queues drive.
type Pusher interface {
	SyncUp(ctx context.Context, record entities.CollectionRecord) cloudsync.Event
	DeleteFromCloud(ctx context.Context, mangaID int) cloudsync.Event
}

func syncRetention() *backlite.Retention {
	return &backlite.Retention{
		Duration:   24 * time.Hour,
		OnlyFailed: false,
		Data:       &backlite.RetainData{OnlyFailed: true},
	}
}

// SyncUpTask pushes the current local state of one manga to the cloud.
// Only the id is queued: the record is read when the task runs, so a task
// drained later by serve never pushes an outdated copy.
type SyncUpTask struct {
	MangaID int `json:"manga_id"`
}

func (t SyncUpTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "collection_sync_up",
		MaxAttempts: 1,
		Timeout:     5 * time.Minute,
		Retention:   syncRetention(),
	}
}

// DeleteFromCloudTask removes one manga from the cloud collection.
type DeleteFromCloudTask struct {
	MangaID int `json:"manga_id"`
}

func (t DeleteFromCloudTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "collection_delete",
		MaxAttempts: 1,
		Timeout:     5 * time.Minute,
		Retention:   syncRetention(),
	}
}

// outcome logs the result of one cloud echo. Echoes run at most once:
// remote failures are logged and never handed back to backlite.
func outcome(ev cloudsync.Event, log *zap.Logger) error {
	switch {
	case ev.Skipped:
		log.Debug("task skipped, not signed in", zap.Int("manga_id", ev.MangaID))
	case ev.Err != nil:
		log.Warn("cloud echo failed, dropped",
			zap.String("op", string(ev.Op)),
			zap.Int("manga_id", ev.MangaID),
			zap.Int("status", mangaapi.StatusCode(ev.Err)),
			zap.Error(ev.Err))
	}
	return nil
}

// SyncUpProcessor creates a processor function for SyncUpTask.
func SyncUpProcessor(pusher Pusher, store RecordReader, timeout time.Duration, log *zap.Logger) backlite.QueueProcessor[SyncUpTask] {
	log = applog.OrNop(log)
	return func(ctx context.Context, task SyncUpTask) error {
		record, err := store.Find(task.MangaID)
		if err != nil {
			return fmt.Errorf("read manga %d: %w", task.MangaID, err)
		}
		if record == nil {
			// Removed locally since it was queued; the delete task follows.
			return nil
		}

		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		return outcome(pusher.SyncUp(ctx, *record), log)
	}
}

// DeleteFromCloudProcessor creates a processor function for DeleteFromCloudTask.
func DeleteFromCloudProcessor(pusher Pusher, store RecordReader, timeout time.Duration, log *zap.Logger) backlite.QueueProcessor[DeleteFromCloudTask] {
	log = applog.OrNop(log)
	return func(ctx context.Context, task DeleteFromCloudTask) error {
		record, err := store.Find(task.MangaID)
		if err != nil {
			return fmt.Errorf("read manga %d: %w", task.MangaID, err)
		}
		if record != nil {
			// Added back locally since it was queued.
			log.Debug("delete skipped, manga is back in the collection", zap.Int("manga_id", task.MangaID))
			return nil
		}

		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		return outcome(pusher.DeleteFromCloud(ctx, task.MangaID), log)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// NewSyncQueues creates the backlite queues that carry cloud echoes.
func NewSyncQueues(pusher Pusher, store RecordReader, cfg Config, log *zap.Logger) []backlite.Queue {
	cfg = cfg.withDefaults()
	return []backlite.Queue{
		backlite.NewQueue(SyncUpProcessor(pusher, store, cfg.TaskTimeout, log)),
		backlite.NewQueue(DeleteFromCloudProcessor(pusher, store, cfg.TaskTimeout, log)),
	}
}
