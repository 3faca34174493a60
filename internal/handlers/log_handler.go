package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/funilzap/crm-funnel-backend/internal/services"
)

type LogHandler struct {
	appLogs     *services.LogBuffer
	webhookLogs *services.LogBuffer
	sseHub      *services.SSEHub
}

func NewLogHandler(appLogs, webhookLogs *services.LogBuffer, sseHub *services.SSEHub) *LogHandler {
	return &LogHandler{
		appLogs:     appLogs,
		webhookLogs: webhookLogs,
		sseHub:      sseHub,
	}
}

// GetLogs godoc
// @Summary Recent application logs
// @Description Returns the most recent in-memory log entries, newest first
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit" default(100)
// @Success 200 {object} map[string]interface{}
// @Router /api/logs [get]
func (h *LogHandler) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries := h.appLogs.Recent(limit)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries, "count": len(entries)})
}

// GetWebhookLogs godoc
// @Summary Recent webhook deliveries
// @Description Returns the most recent traced webhook requests, newest first
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit" default(100)
// @Success 200 {object} map[string]interface{}
// @Router /api/webhook-logs [get]
func (h *LogHandler) GetWebhookLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries := h.webhookLogs.Recent(limit)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries, "count": len(entries)})
}

// StreamLogs godoc
// @Summary Stream analytics events over SSE
// @Description Pushes every new analytics event to the client as a server-sent event
// @Tags logs
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Router /api/logs/stream [get]
func (h *LogHandler) StreamLogs(c *gin.Context) {
	// Set headers for SSE
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable buffering for nginx

	clientChan := h.sseHub.RegisterClient()
	defer h.sseHub.UnregisterClient(clientChan)

	c.SSEvent("connected", gin.H{"message": "Connected to event stream"})
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			logrus.Info("SSE client disconnected")
			return
		case message, ok := <-clientChan:
			if !ok {
				return
			}
			if _, err := c.Writer.Write(message); err != nil {
				logrus.Errorf("Failed to write SSE message: %v", err)
				return
			}
			c.Writer.Flush()
		}
	}
}
