package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/funilzap/crm-funnel-backend/internal/database"
	"github.com/funilzap/crm-funnel-backend/internal/models"
	"github.com/funilzap/crm-funnel-backend/internal/services"
)

type AdminHandler struct {
	db               *gorm.DB
	funnelService    *services.FunnelService
	analyticsService *services.AnalyticsService
}

func NewAdminHandler(db *gorm.DB, funnelService *services.FunnelService, analyticsService *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{
		db:               db,
		funnelService:    funnelService,
		analyticsService: analyticsService,
	}
}

// CleanDatabase godoc
// @Summary Wipe all funnel data
// @Description Deletes every lead, action log, manual review and analytics event. Irreversible.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/admin/clean-database [post]
func (h *AdminHandler) CleanDatabase(c *gin.Context) {
	if err := database.CleanDatabase(h.db); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to clean database"})
		return
	}

	logrus.Warn("Database wiped via admin endpoint")
	h.analyticsService.TrackEvent(models.EventWarning, models.CategorySystem, "clean_database", nil)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All funnel data removed"})
}

type testFlowStep struct {
	Step           string     `json:"step"`
	Status         string     `json:"status"`
	Active         bool       `json:"active"`
	Attempts       int        `json:"attempts"`
	NextDispatchAt *time.Time `json:"next_dispatch_at,omitempty"`
	Ignored        bool       `json:"ignored,omitempty"`
	Reason         string     `json:"reason,omitempty"`
}

// TestFlow godoc
// @Summary Dry-run the funnel state machine
// @Description Walks a synthetic lead through the full funnel in memory. Nothing is persisted and no messages are sent.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/test-flow [post]
func (h *AdminHandler) TestFlow(c *gin.Context) {
	now := time.Now()
	steps := make([]testFlowStep, 0, 8)

	record := func(step string, lead models.Lead, result services.TransitionResult) {
		steps = append(steps, testFlowStep{
			Step:           step,
			Status:         lead.Status,
			Active:         lead.Active,
			Attempts:       lead.Attempts,
			NextDispatchAt: lead.NextDispatchAt,
			Ignored:        result.Ignored,
			Reason:         result.Reason,
		})
	}

	// Board webhook creates the lead at the first stage
	lead, result := h.funnelService.ApplyTransition(nil, services.TransitionEvent{
		Kind:   services.TransitionBoardStatus,
		Status: models.StatusPrimeiroContato,
		Name:   "Lead de Teste",
		Phone:  "5511999990000",
		Now:    now,
	})
	record("board_create", lead, result)

	// Scheduled dispatches advance through the ordered stages
	for _, stage := range models.FunnelStages[1:] {
		now = now.Add(time.Hour)
		lead, result = h.funnelService.ApplyTransition(&lead, services.TransitionEvent{
			Kind: services.TransitionDispatch,
			Now:  now,
		})
		record("dispatch_to_"+stage, lead, result)
	}

	// A customer reply pauses the funnel from any stage
	now = now.Add(time.Hour)
	lead, result = h.funnelService.ApplyTransition(&lead, services.TransitionEvent{
		Kind: services.TransitionReply,
		Now:  now,
	})
	record("reply_pauses", lead, result)

	// Exhaustion is terminal
	now = now.Add(time.Hour)
	lead, result = h.funnelService.ApplyTransition(&lead, services.TransitionEvent{
		Kind: services.TransitionExhausted,
		Now:  now,
	})
	record("exhausted", lead, result)

	h.analyticsService.TrackEvent(models.EventInfo, models.CategorySystem, "test_flow", models.JSON{
		"steps": len(steps),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "data": steps})
}
