package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/funilzap/crm-funnel-backend/internal/services"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetAnalytics godoc
// @Summary Aggregated analytics
// @Description Event counts, rates, top operations, recent errors and hourly buckets for a time window
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param hours query int false "Window size in hours" default(24)
// @Success 200 {object} map[string]interface{}
// @Router /api/analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	analytics := h.analyticsService.GetAnalytics(hours)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": analytics})
}

// GetSystemHealth godoc
// @Summary System health summary
// @Description Overall status (healthy, warning or critical) derived from the last hour of events
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/analytics/health [get]
func (h *AnalyticsHandler) GetSystemHealth(c *gin.Context) {
	health := h.analyticsService.GetSystemHealth()
	c.JSON(http.StatusOK, gin.H{"success": true, "data": health})
}
