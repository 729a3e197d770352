package cloudsync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/mangashelf/internal/entities"
	applog "github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

var errMissingManga = errors.New("cloud entry has no manga")

// LocalStore is the local collection the engine reconciles against.
// Mutations are staged and take effect on Commit.
type LocalStore interface {
	Find(mangaID int) (*entities.CollectionRecord, error)
	Insert(record *entities.CollectionRecord)
	Update(record *entities.CollectionRecord)
	Delete(record *entities.CollectionRecord)
	All() ([]entities.CollectionRecord, error)
	Commit() error
	Rollback()
}

// Remote is the collection part of the manga service.
type Remote interface {
	PushCollectionEntry(ctx context.Context, token string, mangaID int, entry mangaapi.CollectionEntry) error
	FetchCollection(ctx context.Context, token string) ([]mangaapi.CloudCollectionEntry, error)
	DeleteCollectionEntry(ctx context.Context, token string, mangaID int) error
}

// Session gates every operation on a signed-in user.
type Session interface {
	Token() (string, bool)
	Invalidate(err error) bool
}

type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = applog.OrNop(log) }
}

// WithObserver registers fn to receive an Event after every operation.
func WithObserver(fn func(Event)) Option {
	return func(e *Engine) { e.observer = fn }
}

func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine keeps the local collection and the cloud collection in step. The
// cloud wins for the fields it owns. Every operation is best effort: failures
// are logged and reported through events, never returned.
type Engine struct {
	remote   Remote
	store    LocalStore
	session  Session
	log      *zap.Logger
	observer func(Event)
	now      func() time.Time
}

func NewEngine(remote Remote, store LocalStore, session Session, opts ...Option) *Engine {
	e := &Engine{
		remote:  remote,
		store:   store,
		session: session,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncDown pulls the whole cloud collection into the local store. Local
// records missing from the cloud are left alone. Each entry is committed on
// its own so one bad entry does not stop the rest.
func (e *Engine) SyncDown(ctx context.Context) Report {
	var report Report

	token, ok := e.session.Token()
	if !ok {
		report.Skipped = true
		e.publish(Event{Op: OpSyncDown, Skipped: true, Report: &report})
		return report
	}

	entries, err := e.remote.FetchCollection(ctx, token)
	if err != nil {
		report.Err = err
		e.failed(OpSyncDown, 0, err)
		e.publish(Event{Op: OpSyncDown, Err: err, Report: &report})
		return report
	}

	report.Total = len(entries)
	for _, entry := range entries {
		inserted, err := e.merge(entry)
		switch {
		case err != nil:
			report.Failed++
			e.log.Warn("failed to store cloud entry",
				zap.Int("manga_id", entry.Manga.ID), zap.Error(err))
		case inserted:
			report.Inserted++
		default:
			report.Updated++
		}
	}

	e.log.Info("sync down finished",
		zap.Int("total", report.Total),
		zap.Int("updated", report.Updated),
		zap.Int("inserted", report.Inserted),
		zap.Int("failed", report.Failed))

	e.publish(Event{Op: OpSyncDown, Report: &report})
	return report
}

func (e *Engine) merge(entry mangaapi.CloudCollectionEntry) (inserted bool, err error) {
	if entry.Manga.ID == 0 {
		return false, errMissingManga
	}

	record, err := e.store.Find(entry.Manga.ID)
	if err != nil {
		return false, err
	}

	now := e.now()
	if record != nil {
		record.VolumesOwned = CountOwned(entry.VolumesOwned)
		record.ReadingVolume = entry.ReadingVolume
		record.CompleteCollection = entry.CompleteCollection
		record.LastUpdated = now
		e.store.Update(record)
	} else {
		inserted = true
		e.store.Insert(recordFromCloud(entry, now))
	}

	if err := e.store.Commit(); err != nil {
		e.store.Rollback()
		return false, err
	}
	return inserted, nil
}

func recordFromCloud(entry mangaapi.CloudCollectionEntry, now time.Time) *entities.CollectionRecord {
	return &entities.CollectionRecord{
		MangaID:            entry.Manga.ID,
		Title:              entry.Manga.Title,
		CoverURL:           entry.Manga.CoverURL(),
		TotalVolumes:       entry.Manga.Volumes,
		VolumesOwned:       CountOwned(entry.VolumesOwned),
		ReadingVolume:      entry.ReadingVolume,
		CompleteCollection: entry.CompleteCollection,
		DateAdded:          now,
		LastUpdated:        now,
	}
}

// SyncUp pushes one local record to the cloud. Call it only after the local
// save has committed.
func (e *Engine) SyncUp(ctx context.Context, record entities.CollectionRecord) Event {
	ev := Event{Op: OpSyncUp, MangaID: record.MangaID}

	token, ok := e.session.Token()
	if !ok {
		ev.Skipped = true
		e.publish(ev)
		return ev
	}

	err := e.remote.PushCollectionEntry(ctx, token, record.MangaID, mangaapi.CollectionEntry{
		VolumesOwned:       OwnedVolumes(record.VolumesOwned),
		ReadingVolume:      record.ReadingVolume,
		CompleteCollection: record.CompleteCollection,
	})
	if err != nil {
		ev.Err = err
		e.failed(OpSyncUp, record.MangaID, err)
	} else {
		e.log.Debug("pushed collection entry", zap.Int("manga_id", record.MangaID))
	}

	e.publish(ev)
	return ev
}

// DeleteFromCloud removes mangaID from the cloud collection. Call it only
// after the local delete has committed.
func (e *Engine) DeleteFromCloud(ctx context.Context, mangaID int) Event {
	ev := Event{Op: OpDeleteFromCloud, MangaID: mangaID}

	token, ok := e.session.Token()
	if !ok {
		ev.Skipped = true
		e.publish(ev)
		return ev
	}

	if err := e.remote.DeleteCollectionEntry(ctx, token, mangaID); err != nil {
		ev.Err = err
		e.failed(OpDeleteFromCloud, mangaID, err)
	} else {
		e.log.Debug("deleted collection entry", zap.Int("manga_id", mangaID))
	}

	e.publish(ev)
	return ev
}

func (e *Engine) failed(op Op, mangaID int, err error) {
	e.log.Warn("cloud sync failed",
		zap.String("op", string(op)), zap.Int("manga_id", mangaID), zap.Error(err))
	if e.session.Invalidate(err) {
		e.log.Info("signed out after the service rejected the token")
	}
}

func (e *Engine) publish(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}
