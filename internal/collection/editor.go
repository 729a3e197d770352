package collection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/entities"
	applog "github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

// Target identifies the manga being edited and carries the snapshot stored
// with a new record.
type Target struct {
	MangaID      int
	Title        string
	CoverURL     string
	TotalVolumes *int
}

func TargetFromManga(m mangaapi.Manga) Target {
	return Target{MangaID: m.ID, Title: m.Title, CoverURL: m.CoverURL(), TotalVolumes: m.Volumes}
}

func TargetFromRecord(r entities.CollectionRecord) Target {
	return Target{MangaID: r.MangaID, Title: r.Title, CoverURL: r.CoverURL, TotalVolumes: r.TotalVolumes}
}

// Input is what the user typed. ReadingVolume is raw text; empty means
// "not reading".
type Input struct {
	VolumesOwned       int    `validate:"min=1"`
	ReadingVolume      string `validate:"omitempty,number"`
	CompleteCollection bool
}

type Option func(*Editor)

func WithLogger(log *zap.Logger) Option {
	return func(e *Editor) { e.log = applog.OrNop(log) }
}

// WithSubmitter sends committed changes to the cloud.
func WithSubmitter(s cloudsync.Submitter) Option {
	return func(e *Editor) { e.submitter = s }
}

// Editor validates and stores collection changes. The local commit always
// completes before the cloud echo is submitted, and a failed echo never
// affects the local result.
type Editor struct {
	store     cloudsync.LocalStore
	submitter cloudsync.Submitter
	validate  *validator.Validate
	log       *zap.Logger
	now       func() time.Time
}

func NewEditor(store cloudsync.LocalStore, opts ...Option) *Editor {
	e := &Editor{
		store:    store,
		validate: validator.New(),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks input against target and returns the parsed reading volume.
func (e *Editor) Validate(target Target, input Input) (*int, error) {
	input.ReadingVolume = strings.TrimSpace(input.ReadingVolume)
	if err := e.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			switch fieldErrs[0].Field() {
			case "VolumesOwned":
				return nil, &ValidationError{Field: "volumes owned", Message: "you must own at least one volume"}
			case "ReadingVolume":
				return nil, &ValidationError{Field: "reading volume", Message: "must be a positive whole number"}
			}
		}
		return nil, &ValidationError{Field: "input", Message: err.Error()}
	}

	total := target.TotalVolumes
	if total != nil && input.VolumesOwned > *total {
		return nil, &ValidationError{Field: "volumes owned", Message: fmt.Sprintf("cannot exceed %d", *total)}
	}

	var reading *int
	if input.ReadingVolume != "" {
		n, err := strconv.Atoi(input.ReadingVolume)
		if err != nil || n <= 0 {
			return nil, &ValidationError{Field: "reading volume", Message: "must be a positive whole number"}
		}
		if total != nil && n > *total {
			return nil, &ValidationError{Field: "reading volume", Message: fmt.Sprintf("cannot exceed %d", *total)}
		}
		if n > input.VolumesOwned {
			return nil, &ValidationError{Field: "reading volume", Message: "you cannot be reading a volume you do not own"}
		}
		reading = &n
	}

	if input.CompleteCollection && total != nil && input.VolumesOwned != *total {
		return nil, &ValidationError{Field: "complete collection", Message: fmt.Sprintf("a complete collection owns all %d volumes", *total)}
	}

	return reading, nil
}

// Save creates or updates the record for target. Title, cover and the
// creation date of an existing record are kept.
func (e *Editor) Save(target Target, input Input) (*entities.CollectionRecord, error) {
	reading, err := e.Validate(target, input)
	if err != nil {
		return nil, err
	}

	record, err := e.store.Find(target.MangaID)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	now := e.now()
	if record == nil {
		record = &entities.CollectionRecord{
			MangaID:      target.MangaID,
			Title:        target.Title,
			CoverURL:     target.CoverURL,
			TotalVolumes: target.TotalVolumes,
			DateAdded:    now,
		}
		e.applyInput(record, input, reading, now)
		e.store.Insert(record)
	} else {
		e.applyInput(record, input, reading, now)
		e.store.Update(record)
	}

	if err := e.store.Commit(); err != nil {
		e.store.Rollback()
		e.log.Error("failed to save collection record", zap.Int("manga_id", target.MangaID), zap.Error(err))
		return nil, &StorageError{Op: "save", Err: err}
	}

	e.log.Debug("collection record saved", zap.Int("manga_id", record.MangaID), zap.Int("owned", record.VolumesOwned))
	if e.submitter != nil {
		e.submitter.SubmitSyncUp(*record)
	}
	return record, nil
}

func (e *Editor) applyInput(record *entities.CollectionRecord, input Input, reading *int, now time.Time) {
	record.VolumesOwned = input.VolumesOwned
	record.ReadingVolume = reading
	record.CompleteCollection = input.CompleteCollection
	record.LastUpdated = now
}

// Remove deletes the record for mangaID and then asks for the cloud entry to
// be deleted too.
func (e *Editor) Remove(mangaID int) error {
	record, err := e.store.Find(mangaID)
	if err != nil {
		return &StorageError{Op: "read", Err: err}
	}
	if record == nil {
		return ErrNotInCollection
	}

	e.store.Delete(record)
	if err := e.store.Commit(); err != nil {
		e.store.Rollback()
		return &StorageError{Op: "delete from", Err: err}
	}

	if e.submitter != nil {
		e.submitter.SubmitDelete(mangaID)
	}
	return nil
}

// Get returns the record for mangaID, or nil.
func (e *Editor) Get(mangaID int) (*entities.CollectionRecord, error) {
	record, err := e.store.Find(mangaID)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	return record, nil
}

// List returns the collection, newest first.
func (e *Editor) List() ([]entities.CollectionRecord, error) {
	records, err := e.store.All()
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return records, nil
}
