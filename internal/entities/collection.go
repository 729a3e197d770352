package entities

import (
	"fmt"
	"time"
)

// CollectionRecord is one manga the user tracks locally. Title and cover are
// snapshots taken when the record is created and are never refreshed by sync.
type CollectionRecord struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	MangaID            int       `gorm:"uniqueIndex;not null" json:"manga_id"`
	Title              string    `gorm:"size:512" json:"title"`
	CoverURL           string    `gorm:"type:text" json:"cover_url"`
	TotalVolumes       *int      `json:"total_volumes,omitempty"`
	VolumesOwned       int       `gorm:"not null;default:0" json:"volumes_owned"`
	ReadingVolume      *int      `json:"reading_volume,omitempty"`
	CompleteCollection bool      `gorm:"not null;default:false" json:"complete_collection"`
	DateAdded          time.Time `gorm:"index" json:"date_added"`
	LastUpdated        time.Time `json:"last_updated"`
}

func (CollectionRecord) TableName() string {
	return "collection_records"
}

// ReadingProgress is ReadingVolume/TotalVolumes, or nil when either is unknown.
func (r *CollectionRecord) ReadingProgress() *float64 {
	if r.ReadingVolume == nil || r.TotalVolumes == nil || *r.TotalVolumes <= 0 {
		return nil
	}
	p := float64(*r.ReadingVolume) / float64(*r.TotalVolumes)
	return &p
}

// CollectionProgress is VolumesOwned/TotalVolumes, or nil when the total is unknown.
func (r *CollectionRecord) CollectionProgress() *float64 {
	if r.TotalVolumes == nil || *r.TotalVolumes <= 0 {
		return nil
	}
	p := float64(r.VolumesOwned) / float64(*r.TotalVolumes)
	return &p
}

// VolumesLabel renders ownership as "owned/total", or just "owned" when the total is unknown.
func (r *CollectionRecord) VolumesLabel() string {
	if r.TotalVolumes == nil {
		return fmt.Sprintf("%d", r.VolumesOwned)
	}
	return fmt.Sprintf("%d/%d", r.VolumesOwned, *r.TotalVolumes)
}
