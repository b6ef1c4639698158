package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/shared/telemetry"
)

// Context keys handlers may set so the access log can correlate entities.
const (
	DocumentIDKey = "documentId"
	JobIDKey      = "jobId"
	JobStatusKey  = "jobStatus"
)

var correlatedFields = map[string]string{
	DocumentIDKey: "document_id",
	JobIDKey:      "job_id",
	JobStatusKey:  "job_status",
}

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if userID := UserIDFromContext(c); userID != "" {
			fields["user_id"] = userID
		}
		for key, field := range correlatedFields {
			if v := c.GetString(key); v != "" {
				fields[field] = v
			}
		}

		telemetry.Info("request.complete", fields)
	}
}
