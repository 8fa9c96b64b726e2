package dto

// TriggerSyncRequest asks for a full resync of one location. When
// LocationID is empty the first stored credential is used.
type TriggerSyncRequest struct {
	LocationID string `json:"location_id"`
}

// SyncTriggeredResponse acknowledges a sync started in the background
type SyncTriggeredResponse struct {
	RunID      string `json:"run_id"`
	LocationID string `json:"location_id"`
	Status     string `json:"status"`
}

// ImportResultResponse summarizes one CSV contact import
type ImportResultResponse struct {
	Rows       int    `json:"rows"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	ArchiveKey string `json:"archive_key,omitempty"`
	ArchiveURL string `json:"archive_url,omitempty"`
}
