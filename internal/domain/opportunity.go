package domain

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity represents a CRM opportunity (deal) tied to a contact.
// The contact reference is required: an opportunity whose contact cannot
// be resolved is never written, not even partially. Pipeline and stage
// references may legitimately be nil when unresolved at sync time.
type Opportunity struct {
	BaseModel
	ExternalID       string         `gorm:"type:varchar(255);not null;uniqueIndex:uq_opportunities_external_id" json:"external_id"`
	ContactID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_opportunities_contact_id" json:"contact_id"`
	PipelineID       *uuid.UUID     `gorm:"type:uuid;index:idx_opportunities_pipeline_id" json:"pipeline_id"`
	CurrentStageID   *uuid.UUID     `gorm:"type:uuid;index:idx_opportunities_current_stage_id" json:"current_stage_id"`
	CreatedBySource  string         `gorm:"type:varchar(50)" json:"created_by_source"`
	CreatedByChannel string         `gorm:"type:varchar(50)" json:"created_by_channel"`
	SourceID         string         `gorm:"type:varchar(255)" json:"source_id"`
	Value            *float64       `json:"value"`
	EngagementScore  int            `gorm:"not null;default:0" json:"engagement_score"`
	Status           *string        `gorm:"type:varchar(50)" json:"status"`
	Assigned         string         `gorm:"type:varchar(150)" json:"assigned"`
	Tags             string         `gorm:"type:text" json:"tags"`
	Description      string         `gorm:"type:text" json:"description"`
	Address          string         `gorm:"type:text" json:"address"`
	CreatedTimestamp time.Time      `gorm:"type:timestamp;not null;index:idx_opportunities_created_timestamp" json:"created_timestamp"`
	Contact          Contact        `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE" json:"contact,omitempty"`
	Pipeline         *Pipeline      `gorm:"foreignKey:PipelineID" json:"pipeline,omitempty"`
	CurrentStage     *PipelineStage `gorm:"foreignKey:CurrentStageID" json:"current_stage,omitempty"`
}

// TableName specifies the table name for Opportunity
func (Opportunity) TableName() string {
	return "opportunities"
}
