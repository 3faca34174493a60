package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/funilzap/crm-funnel-backend/internal/models"
	"github.com/funilzap/crm-funnel-backend/internal/services"
	"github.com/funilzap/crm-funnel-backend/internal/services/export"
)

type LeadHandler struct {
	funnelService *services.FunnelService
	exportService *export.Service
}

func NewLeadHandler(funnelService *services.FunnelService, exportService *export.Service) *LeadHandler {
	return &LeadHandler{
		funnelService: funnelService,
		exportService: exportService,
	}
}

// GetLeads godoc
// @Summary List all leads
// @Description Get every lead in the funnel, most recently updated first
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/leads [get]
func (h *LeadHandler) GetLeads(c *gin.Context) {
	leads, err := h.funnelService.GetLeads()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to get leads"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": leads})
}

// GetStats godoc
// @Summary Funnel statistics
// @Description Per-status counts plus active/inactive/due totals
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/leads/stats [get]
func (h *LeadHandler) GetStats(c *gin.Context) {
	stats, err := h.funnelService.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to get lead stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// ContactNow godoc
// @Summary Contact a lead immediately
// @Description Sends the current stage's message now, bypassing the dispatch timer
// @Tags leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/leads/{id}/contact-now [post]
func (h *LeadHandler) ContactNow(c *gin.Context) {
	leadID := c.Param("id")

	lead, err := h.funnelService.ContactNow(leadID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Lead not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": lead})
}

// UpdateStatus godoc
// @Summary Update a lead's funnel status
// @Description Manual status change from the dashboard; runs the same write path as the board webhook
// @Tags leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body models.UpdateLeadStatusRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/leads/{id}/status [put]
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	leadID := c.Param("id")

	var req models.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request data"})
		return
	}

	lead, err := h.funnelService.UpdateStatus(leadID, req.Status)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Lead not found"})
			return
		}
		if strings.Contains(err.Error(), "invalid status") {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to update lead"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": lead})
}

// SendReminder godoc
// @Summary Send a manual reminder message
// @Description Sends a free-text WhatsApp reminder without moving the lead through the funnel
// @Tags leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body models.ManualReminderRequest true "Reminder message"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/leads/{id}/reminder [post]
func (h *LeadHandler) SendReminder(c *gin.Context) {
	leadID := c.Param("id")

	var req models.ManualReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request data"})
		return
	}

	if err := h.funnelService.SendManualReminder(leadID, req.Message); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Lead not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ExportLeads godoc
// @Summary Export leads to a spreadsheet
// @Description Downloads every lead as a styled xlsx workbook
// @Tags leads
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 500 {object} map[string]interface{}
// @Router /api/leads/export [get]
func (h *LeadHandler) ExportLeads(c *gin.Context) {
	data, filename, err := h.exportService.ExportLeads()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to export leads"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
