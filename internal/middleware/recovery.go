package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery converts panics into a generic JSON 500. The stack trace goes to
// the log (and Sentry when configured) but never into production responses.
func Recovery(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Errorf("Panic recovered: %v\n%s", r, debug.Stack())

				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.Recover(r)
				}

				body := gin.H{"status": "error", "message": "Internal server error"}
				if !production {
					body["details"] = string(debug.Stack())
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()

		c.Next()
	}
}
