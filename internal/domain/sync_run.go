package domain

import "time"

// SyncRunStatus represents the lifecycle of a full resync
type SyncRunStatus string

const (
	SyncRunRunning   SyncRunStatus = "RUNNING"
	SyncRunSucceeded SyncRunStatus = "SUCCEEDED"
	SyncRunFailed    SyncRunStatus = "FAILED"
)

// SyncRun records the outcome of one full resync for a location. A run
// either completes or fails outright; there is no partial/resumed state.
type SyncRun struct {
	BaseModel
	LocationID          string        `gorm:"type:varchar(255);not null;index:idx_sync_runs_location_id" json:"location_id"`
	Status              SyncRunStatus `gorm:"type:varchar(50);not null;default:'RUNNING';index:idx_sync_runs_status" json:"status"`
	ContactsFetched     int           `json:"contacts_fetched"`
	ContactsCreated     int           `json:"contacts_created"`
	ContactsUpdated     int           `json:"contacts_updated"`
	OpportunitiesFetched int          `json:"opportunities_fetched"`
	OpportunitiesCreated int          `json:"opportunities_created"`
	OpportunitiesUpdated int          `json:"opportunities_updated"`
	OpportunitiesDropped int          `json:"opportunities_dropped"`
	StartedAt           time.Time     `gorm:"type:timestamp;not null" json:"started_at"`
	FinishedAt          *time.Time    `gorm:"type:timestamp" json:"finished_at"`
	Error               string        `gorm:"type:text" json:"error,omitempty"`
}

// TableName specifies the table name for SyncRun
func (SyncRun) TableName() string {
	return "sync_runs"
}
