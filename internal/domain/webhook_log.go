package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookLog records every inbound webhook payload as received, before any
// validation. The admin log viewer reads these rows.
type WebhookLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReceivedAt time.Time `gorm:"type:timestamp;not null;index:idx_webhook_logs_received_at" json:"received_at"`
	EventType  string    `gorm:"type:varchar(100)" json:"event_type"`
	Data       string    `gorm:"type:text" json:"data"`
}

// BeforeCreate assigns the id and receipt time
func (w *WebhookLog) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.ReceivedAt.IsZero() {
		w.ReceivedAt = time.Now().UTC()
	}
	return nil
}

// TableName specifies the table name for WebhookLog
func (WebhookLog) TableName() string {
	return "webhook_logs"
}
