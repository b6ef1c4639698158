package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Error(c, http.StatusBadRequest, "invalid_input", "File type not allowed", gin.H{"extension": "exe"})
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "invalid_input", body.Error.Code)
	assert.Equal(t, "File type not allowed", body.Error.Message)
	assert.Equal(t, map[string]any{"extension": "exe"}, body.Error.Details)
}
