package entities

import (
	"time"
)

type SyncType string

const (
	SyncTypeCollectionDown SyncType = "collection_down"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
	SyncStatusSkipped   SyncStatus = "skipped"
)

// SyncRun records the outcome of the latest run for a sync type.
type SyncRun struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SyncType    SyncType   `gorm:"size:50;uniqueIndex" json:"sync_type"`
	Status      SyncStatus `gorm:"size:20" json:"status"`
	TotalItems  int        `json:"total_items"`
	Updated     int        `json:"updated"`
	Inserted    int        `json:"inserted"`
	Failed      int        `json:"failed"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
