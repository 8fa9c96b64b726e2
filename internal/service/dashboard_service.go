package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"crm-sync-api/internal/dto"
	"crm-sync-api/internal/repository"
)

const (
	dashboardCacheKey = "dashboard:overview"
	dashboardCacheTTL = 60 * time.Second
	trendMonths       = 12
)

// DashboardService aggregates synced data into reporting views
type DashboardService interface {
	// GetDashboard returns the aggregated sales overview, cached briefly.
	GetDashboard(ctx context.Context) (*dto.DashboardResponse, error)
	// GetRevenueMetrics reports won revenue over standard windows.
	GetRevenueMetrics(ctx context.Context) (*dto.RevenueMetricsResponse, error)
	// GetPipelineFunnels returns per-stage aggregation for every pipeline.
	GetPipelineFunnels(ctx context.Context) ([]dto.PipelineFunnelResponse, error)
}

// dashboardService is the implementation of DashboardService
type dashboardService struct {
	dashboards repository.DashboardRepository
	pipelines  repository.PipelineRepository
	cache      *redis.Client
	logger     *zap.Logger
}

// NewDashboardService creates a new DashboardService. The cache client
// may be nil, in which case every request hits the database.
func NewDashboardService(dashboards repository.DashboardRepository, pipelines repository.PipelineRepository, cache *redis.Client, logger *zap.Logger) DashboardService {
	return &dashboardService{
		dashboards: dashboards,
		pipelines:  pipelines,
		cache:      cache,
		logger:     logger,
	}
}

// GetDashboard returns the aggregated sales overview
func (s *dashboardService) GetDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	if cached := s.readCache(ctx); cached != nil {
		return cached, nil
	}

	totalContacts, err := s.dashboards.CountContacts(ctx)
	if err != nil {
		return nil, err
	}
	totalOpportunities, err := s.dashboards.CountOpportunities(ctx)
	if err != nil {
		return nil, err
	}
	openValue, err := s.dashboards.SumValueByStatus(ctx, "open")
	if err != nil {
		return nil, err
	}
	wonValue, err := s.dashboards.SumValueByStatus(ctx, "won")
	if err != nil {
		return nil, err
	}
	statusCounts, err := s.dashboards.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	sourceBreakdown, err := s.dashboards.SourceBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	trend, err := s.monthlyTrend(ctx)
	if err != nil {
		return nil, err
	}

	response := &dto.DashboardResponse{
		TotalContacts:      totalContacts,
		TotalOpportunities: totalOpportunities,
		OpenPipelineValue:  openValue,
		WonValue:           wonValue,
		StatusCounts:       statusCounts,
		SourceBreakdown:    sourceBreakdown,
		MonthlyTrend:       trend,
	}
	s.writeCache(ctx, response)
	return response, nil
}

// monthlyTrend buckets recent opportunities by creation month
func (s *dashboardService) monthlyTrend(ctx context.Context) ([]dto.MonthlyBucket, error) {
	now := time.Now().In(reportingLocation)
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, reportingLocation).
		AddDate(0, -(trendMonths - 1), 0)

	slices, err := s.dashboards.OpportunitiesSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*dto.MonthlyBucket)
	for _, slice := range slices {
		month := slice.CreatedTimestamp.In(reportingLocation).Format("2006-01")
		bucket, ok := buckets[month]
		if !ok {
			bucket = &dto.MonthlyBucket{Month: month}
			buckets[month] = bucket
		}
		bucket.Count++
		if slice.Value != nil {
			bucket.Value += *slice.Value
		}
	}

	trend := make([]dto.MonthlyBucket, 0, len(buckets))
	for _, bucket := range buckets {
		trend = append(trend, *bucket)
	}
	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Month < trend[j].Month
	})
	return trend, nil
}

// GetRevenueMetrics reports won revenue year, quarter, and month to date
func (s *dashboardService) GetRevenueMetrics(ctx context.Context) (*dto.RevenueMetricsResponse, error) {
	now := time.Now().In(reportingLocation)
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, reportingLocation).AddDate(0, 0, 1)

	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, reportingLocation)
	quarterMonth := time.Month(((int(now.Month())-1)/3)*3 + 1)
	quarterStart := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, reportingLocation)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, reportingLocation)

	ytd, err := s.dashboards.RevenueBetween(ctx, yearStart, tomorrow)
	if err != nil {
		return nil, err
	}
	qtd, err := s.dashboards.RevenueBetween(ctx, quarterStart, tomorrow)
	if err != nil {
		return nil, err
	}
	mtd, err := s.dashboards.RevenueBetween(ctx, monthStart, tomorrow)
	if err != nil {
		return nil, err
	}

	return &dto.RevenueMetricsResponse{
		YearToDate:    ytd,
		QuarterToDate: qtd,
		MonthToDate:   mtd,
	}, nil
}

// GetPipelineFunnels returns per-stage aggregation for every pipeline
func (s *dashboardService) GetPipelineFunnels(ctx context.Context) ([]dto.PipelineFunnelResponse, error) {
	pipelines, err := s.pipelines.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	funnels := make([]dto.PipelineFunnelResponse, 0, len(pipelines))
	for _, pipeline := range pipelines {
		if !pipeline.ShowInFunnel {
			continue
		}
		stages, err := s.dashboards.StageCounts(ctx, pipeline.ID)
		if err != nil {
			return nil, err
		}
		funnels = append(funnels, dto.PipelineFunnelResponse{
			PipelineID:   pipeline.ID.String(),
			PipelineName: pipeline.Name,
			Stages:       stages,
		})
	}
	return funnels, nil
}

func (s *dashboardService) readCache(ctx context.Context) *dto.DashboardResponse {
	if s.cache == nil {
		return nil
	}

	payload, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("Dashboard cache read failed", zap.Error(err))
		}
		return nil
	}

	var response dto.DashboardResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil
	}
	return &response
}

func (s *dashboardService) writeCache(ctx context.Context, response *dto.DashboardResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, payload, dashboardCacheTTL).Err(); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.Error(err))
	}
}
