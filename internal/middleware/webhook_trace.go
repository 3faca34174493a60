package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/funilzap/crm-funnel-backend/internal/services"
)

const maxTracedBody = 2048

// WebhookTrace records every webhook delivery into a bounded ring so the
// dashboard can show recent inbound traffic without a log file.
func WebhookTrace(buffer *services.LogBuffer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyPreview string
		if c.Request.Body != nil {
			data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTracedBody))
			if err == nil {
				bodyPreview = string(data)
				rest, _ := io.ReadAll(c.Request.Body)
				c.Request.Body = io.NopCloser(bytes.NewReader(append(data, rest...)))
			}
		}

		start := time.Now()
		c.Next()

		buffer.Add(services.LogEntry{
			Timestamp: start,
			Level:     "info",
			Message:   "webhook delivery",
			Fields: map[string]interface{}{
				"path":    c.Request.URL.Path,
				"status":  c.Writer.Status(),
				"latency": time.Since(start).String(),
				"body":    bodyPreview,
			},
		})
	}
}
