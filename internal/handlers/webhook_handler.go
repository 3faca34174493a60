package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/funilzap/crm-funnel-backend/internal/models"
	"github.com/funilzap/crm-funnel-backend/internal/services"
	"github.com/funilzap/crm-funnel-backend/internal/utils"
)

type WebhookHandler struct {
	funnelService    *services.FunnelService
	analyticsService *services.AnalyticsService
}

func NewWebhookHandler(funnelService *services.FunnelService, analyticsService *services.AnalyticsService) *WebhookHandler {
	return &WebhookHandler{
		funnelService:    funnelService,
		analyticsService: analyticsService,
	}
}

// MondayWebhook godoc
// @Summary Receive board status change events
// @Description Handles Monday.com webhooks: echoes the subscription challenge and applies status-change events to the funnel
// @Tags webhooks
// @Accept json
// @Produce json
// @Param request body models.MondayWebhookRequest true "Monday webhook payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /webhook/monday [post]
func (h *WebhookHandler) MondayWebhook(c *gin.Context) {
	var req models.MondayWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.analyticsService.TrackError(models.CategoryWebhook, "board_webhook_decode", nil, err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid webhook payload"})
		return
	}

	// Subscription handshake
	if req.Challenge != "" {
		c.JSON(http.StatusOK, gin.H{"challenge": req.Challenge})
		return
	}

	if req.Event == nil || req.Event.PulseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Webhook payload has no event"})
		return
	}

	statusLabel := ""
	if req.Event.Value != nil && req.Event.Value.Label != nil {
		statusLabel = req.Event.Value.Label.Text
	}

	itemID := formatItemID(req.Event.PulseID)
	lead, result, err := h.funnelService.ProcessBoardStatusChange(itemID, req.Event.PulseName, statusLabel)
	if err != nil {
		logrus.Errorf("Board webhook for item %s failed: %v", itemID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to process webhook"})
		return
	}

	// Unknown labels are an acknowledged no-op, not an error
	response := gin.H{"success": true, "ignored": result.Ignored}
	if lead != nil {
		response["lead_id"] = lead.ID
		response["status"] = lead.Status
	}
	c.JSON(http.StatusOK, response)
}

// EvolutionWebhook godoc
// @Summary Receive inbound WhatsApp messages
// @Description Handles messages.upsert events from the Evolution gateway; any reply from a known lead pauses its funnel
// @Tags webhooks
// @Accept json
// @Produce json
// @Param request body models.EvolutionWebhookRequest true "Evolution webhook payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /webhook/evolution [post]
func (h *WebhookHandler) EvolutionWebhook(c *gin.Context) {
	var req models.EvolutionWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.analyticsService.TrackError(models.CategoryWebhook, "message_webhook_decode", nil, err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid webhook payload"})
		return
	}

	// Only inbound customer messages drive the funnel
	if req.Data == nil || req.Data.Key == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
		return
	}
	if req.Data.Key.FromMe || utils.IsGroupJID(req.Data.Key.RemoteJid) {
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
		return
	}

	lead, err := h.funnelService.ProcessInboundMessage(
		req.Data.Key.RemoteJid,
		req.Data.PushName,
		req.Data.Message.Text(),
	)
	if err != nil {
		logrus.Errorf("Message webhook failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to process webhook"})
		return
	}

	response := gin.H{"success": true, "matched": lead != nil}
	if lead != nil {
		response["lead_id"] = lead.ID
		response["status"] = lead.Status
	}
	c.JSON(http.StatusOK, response)
}

func formatItemID(pulseID int64) string {
	return strconv.FormatInt(pulseID, 10)
}
