package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"receipt-backend/internal/shared/telemetry"
)

func TestLoggingIncludesCorrelationFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	restore := telemetry.SetLogger(zap.New(core))
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.GET("/test", func(c *gin.Context) {
		c.Set(userIDKey, "u1")
		c.Set(DocumentIDKey, "doc-1")
		c.Set(JobIDKey, "job-1")
		c.Set(JobStatusKey, "SUCCESS")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := logs.FilterMessage("request.complete").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "doc-1", fields["document_id"])
	assert.Equal(t, "job-1", fields["job_id"])
	assert.Equal(t, "SUCCESS", fields["job_status"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.Contains(t, fields, "duration_ms")
	assert.Equal(t, "req-123", resp.Header().Get("X-Request-Id"))
}
