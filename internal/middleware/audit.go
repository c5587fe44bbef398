package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/service"
)

// AdminAudit records successful admin requests under action. Non-admin
// callers and failed requests are not recorded.
func AdminAudit(audit *service.AuditService, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if audit == nil || c.Writer.Status() >= 400 {
			return
		}
		user := CurrentUser(c)
		if !user.IsAdmin() {
			return
		}
		details := models.AuditDetails{
			"path":      c.FullPath(),
			"method":    c.Request.Method,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"ip":        c.ClientIP(),
		}
		if id := c.Param("id"); id != "" {
			details["resourceId"] = id
		}
		audit.LogAdminAction(c.Request.Context(), user.ID, action, details)
	}
}
