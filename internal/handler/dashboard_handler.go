package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-sync-api/internal/response"
	"crm-sync-api/internal/service"
)

// DashboardHandler serves aggregated reporting views
type DashboardHandler struct {
	dashboardService service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetDashboard returns the aggregated sales overview
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dashboard)
}

// GetRevenueMetrics returns won revenue over standard windows
func (h *DashboardHandler) GetRevenueMetrics(c *gin.Context) {
	metrics, err := h.dashboardService.GetRevenueMetrics(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, metrics)
}

// GetPipelineFunnels returns per-stage aggregation for every pipeline
func (h *DashboardHandler) GetPipelineFunnels(c *gin.Context) {
	funnels, err := h.dashboardService.GetPipelineFunnels(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, funnels)
}
