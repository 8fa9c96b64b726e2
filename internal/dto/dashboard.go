package dto

import "crm-sync-api/internal/repository"

// MonthlyBucket is one month of the opportunity trend
type MonthlyBucket struct {
	Month string  `json:"month"` // formatted as 2006-01
	Count int64   `json:"count"`
	Value float64 `json:"value"`
}

// DashboardResponse is the aggregated sales overview
type DashboardResponse struct {
	TotalContacts      int64                      `json:"total_contacts"`
	TotalOpportunities int64                      `json:"total_opportunities"`
	OpenPipelineValue  float64                    `json:"open_pipeline_value"`
	WonValue           float64                    `json:"won_value"`
	StatusCounts       []repository.StatusCount   `json:"status_counts"`
	SourceBreakdown    []repository.SourceCount   `json:"source_breakdown"`
	MonthlyTrend       []MonthlyBucket            `json:"monthly_trend"`
}

// RevenueMetricsResponse reports won revenue over standard windows
type RevenueMetricsResponse struct {
	YearToDate    float64 `json:"year_to_date"`
	QuarterToDate float64 `json:"quarter_to_date"`
	MonthToDate   float64 `json:"month_to_date"`
}

// PipelineFunnelResponse is one pipeline's per-stage aggregation
type PipelineFunnelResponse struct {
	PipelineID   string                  `json:"pipeline_id"`
	PipelineName string                  `json:"pipeline_name"`
	Stages       []repository.StageCount `json:"stages"`
}
