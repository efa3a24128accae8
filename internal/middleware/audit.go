package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/models"
)

// auditResourceIDKey holds the id of a row created by the handler, for routes
// without an :id segment.
const auditResourceIDKey = "audit_resource_id"

// SetAuditResourceID tags the pending audit entry with the id of the row the
// handler created.
func SetAuditResourceID(c *gin.Context, id string) {
	if id != "" {
		c.Set(auditResourceIDKey, id)
	}
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit log row after successful requests.
func Audit(recorder AuditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if user := CurrentUser(c); user != nil {
			userID = &user.ID
		}
		var resourceID *string
		id := c.Param("id")
		if id == "" {
			id = c.GetString(auditResourceIDKey)
		}
		if id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := recorder.Create(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			CreatedAt:  start,
		}); err != nil {
			logger.Warn("failed to record audit log", zap.String("resource", resource), zap.Error(err))
		}
	}
}
