package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline represents a CRM sales pipeline. Pipelines are replaced
// wholesale when definitions are reloaded: the pipeline row is upserted
// by external id and its stages are deleted and recreated, never merged.
type Pipeline struct {
	BaseModel
	ExternalID     string          `gorm:"type:varchar(255);not null;uniqueIndex:uq_pipelines_external_id" json:"external_id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	ShowInFunnel   bool            `gorm:"default:true" json:"show_in_funnel"`
	ShowInPieChart bool            `gorm:"default:true" json:"show_in_pie_chart"`
	DateAdded      time.Time       `gorm:"type:timestamp;not null" json:"date_added"`
	DateUpdated    time.Time       `gorm:"type:timestamp;not null" json:"date_updated"`
	Stages         []PipelineStage `gorm:"foreignKey:PipelineID;constraint:OnDelete:CASCADE" json:"stages,omitempty"`
}

// PipelineStage represents one ordered stage of a pipeline funnel
type PipelineStage struct {
	BaseModel
	ExternalID     string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_pipeline_stages_external_id" json:"external_id"`
	PipelineID     uuid.UUID `gorm:"type:uuid;not null;index:idx_pipeline_stages_pipeline_id" json:"pipeline_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Position       int       `gorm:"not null" json:"position"`
	ShowInFunnel   bool      `gorm:"default:true" json:"show_in_funnel"`
	ShowInPieChart bool      `gorm:"default:true" json:"show_in_pie_chart"`
	Pipeline       Pipeline  `gorm:"foreignKey:PipelineID;constraint:OnDelete:CASCADE" json:"pipeline,omitempty"`
}

// TableName specifies the table name for Pipeline
func (Pipeline) TableName() string {
	return "pipelines"
}

// TableName specifies the table name for PipelineStage
func (PipelineStage) TableName() string {
	return "pipeline_stages"
}
