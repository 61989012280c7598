// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/utils"
)

const RequestIDHeader = "X-Request-ID"

// maxAuditBody bounds how much of a request body is inspected for field
// names.
const maxAuditBody = 1 << 20

var objectIDSegment = regexp.MustCompile("^[0-9a-fA-F]{24}$")

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry *models.AuditLog) error
}

// RequestLogger logs one line per request and tags it with a request id,
// reusing the caller's X-Request-ID when present.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		userID, _ := utils.GetUserIDFromContext(c)
		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"user_id":    userID,
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

// AuditLog records every mutating request that passes through it. The
// entry is written before the response is considered done; a failed write
// is logged and does not change the response.
func AuditLog(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		var requestBody []byte
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") {
			requestBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			c.Request.Body = io.NopCloser(bytes.NewReader(requestBody))
		}

		c.Next()

		entry := &models.AuditLog{
			Action:        c.Request.Method + " " + c.FullPath(),
			ResourceType:  extractResourceType(c.Request.URL.Path),
			ResourceID:    extractResourceID(c.Request.URL.Path),
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
			ChangedFields: changedFields(requestBody),
			StatusCode:    c.Writer.Status(),
		}
		if uid, ok := utils.GetUserIDFromContext(c); ok {
			if parsed, err := uuid.Parse(uid); err == nil {
				entry.UserID = &parsed
			}
		}

		if err := recorder.RecordAudit(c.Request.Context(), entry); err != nil {
			logrus.WithError(err).WithField("action", entry.Action).Error("Failed to create audit log")
		}
	}
}

// changedFields lists the top-level keys of a JSON object body. Values
// are never stored.
func changedFields(body []byte) []string {
	if len(body) == 0 {
		return nil
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	fields := make([]string, 0, len(data))
	for k := range data {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// extractResourceType returns the first path segment after the API
// prefix and the admin scope, e.g. "product" for /api/v1/admin/product/:id.
func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for len(parts) > 0 && (parts[0] == "api" || parts[0] == "v1" || parts[0] == "admin") {
		parts = parts[1:]
	}
	if len(parts) == 0 || parts[0] == "" {
		return "unknown"
	}
	return parts[0]
}

func extractResourceID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if _, err := uuid.Parse(parts[i]); err == nil {
			return parts[i]
		}
		if objectIDSegment.MatchString(parts[i]) {
			return parts[i]
		}
	}
	return ""
}
