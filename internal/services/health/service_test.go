package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func serve(svc *Service) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	return resp
}

func TestHealthWithoutDatabase(t *testing.T) {
	resp := serve(NewService(nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"database":"memory"}`, resp.Body.String())
}

func TestHealthPingsDatabase(t *testing.T) {
	resp := serve(NewService(pingFunc(func(context.Context) error { return nil })))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"database":"up"}`, resp.Body.String())

	resp = serve(NewService(pingFunc(func(context.Context) error { return errors.New("refused") })))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.JSONEq(t, `{"ok":false,"database":"down"}`, resp.Body.String())
}
