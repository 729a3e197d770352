// Package collection provides database operations for the local manga
// collection.
//
// Mutations are staged and written together by Commit inside a single
// transaction; Rollback discards them. Reads always go to the database and do
// not see staged changes.
//
// # Usage
//
//	repo := collection.NewRepository(db)
//	record, err := repo.Find(42)
//	record.VolumesOwned = 7
//	repo.Update(record)
//	err = repo.Commit()
package collection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/mangashelf/internal/entities"
)

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

type pendingOp struct {
	kind   opKind
	record *entities.CollectionRecord
}

// Repository handles collection record persistence.
type Repository struct {
	db *gorm.DB

	mu      sync.Mutex
	pending []pendingOp
}

// NewRepository creates a new collection repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find returns the record for mangaID, or nil when there is none.
func (r *Repository) Find(mangaID int) (*entities.CollectionRecord, error) {
	var record entities.CollectionRecord
	err := r.db.Where("manga_id = ?", mangaID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// All returns every record, most recently added first.
func (r *Repository) All() ([]entities.CollectionRecord, error) {
	var records []entities.CollectionRecord
	err := r.db.Order("date_added DESC, id DESC").Find(&records).Error
	return records, err
}

// Count returns the number of stored records.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.CollectionRecord{}).Count(&count).Error
	return count, err
}

// Insert stages a new record. DateAdded and LastUpdated default to now.
func (r *Repository) Insert(record *entities.CollectionRecord) {
	now := time.Now()
	if record.DateAdded.IsZero() {
		record.DateAdded = now
	}
	if record.LastUpdated.IsZero() {
		record.LastUpdated = now
	}
	r.stage(opInsert, record)
}

// Update stages the current state of record.
func (r *Repository) Update(record *entities.CollectionRecord) {
	r.stage(opUpdate, record)
}

// Delete stages the removal of record.
func (r *Repository) Delete(record *entities.CollectionRecord) {
	r.stage(opDelete, record)
}

func (r *Repository) stage(kind opKind, record *entities.CollectionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, pendingOp{kind: kind, record: record})
}

// Commit writes all staged changes in one transaction. Staged changes are
// discarded whether or not the commit succeeds.
func (r *Repository) Commit() error {
	r.mu.Lock()
	ops := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if err := apply(tx, op); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// IDs assigned inside the rolled back transaction are not real.
		for _, op := range ops {
			if op.kind == opInsert {
				op.record.ID = 0
			}
		}
		return err
	}
	return nil
}

// Rollback discards staged changes.
func (r *Repository) Rollback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

// Pending reports the number of staged changes.
func (r *Repository) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func apply(tx *gorm.DB, op pendingOp) error {
	switch op.kind {
	case opInsert:
		if err := tx.Create(op.record).Error; err != nil {
			return fmt.Errorf("failed to insert manga %d: %w", op.record.MangaID, err)
		}
	case opUpdate:
		if op.record.ID == 0 {
			return fmt.Errorf("failed to update manga %d: record was never stored", op.record.MangaID)
		}
		if err := tx.Save(op.record).Error; err != nil {
			return fmt.Errorf("failed to update manga %d: %w", op.record.MangaID, err)
		}
	case opDelete:
		if err := tx.Where("manga_id = ?", op.record.MangaID).Delete(&entities.CollectionRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete manga %d: %w", op.record.MangaID, err)
		}
	}
	return nil
}
