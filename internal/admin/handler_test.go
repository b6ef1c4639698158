package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipt-backend/internal/documents"
	"receipt-backend/internal/jobs"
	"receipt-backend/internal/shared/server/middleware"
)

type stubDocs struct {
	docs []documents.Document
	err  error
}

func (s stubDocs) ListAll(context.Context, int, int) ([]documents.Document, error) {
	return s.docs, s.err
}

type stubJobs struct {
	jobs []jobs.Job
}

func (s stubJobs) ListAll(context.Context, int, int) ([]jobs.Job, error) {
	return s.jobs, nil
}

func newRouter(h *Handler, admin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authenticate := func(context.Context, string) (middleware.Identity, error) {
		return middleware.Identity{UserID: "u1", IsAdmin: admin}, nil
	}
	g := r.Group("/admin", middleware.Auth(authenticate), middleware.RequireAdmin())
	h.RegisterRoutes(g)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer t")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	h := NewHandler(stubDocs{}, stubJobs{})
	r := newRouter(h, false)

	for _, path := range []string{"/admin/jobs", "/admin/documents"} {
		resp := get(r, path)
		assert.Equal(t, http.StatusForbidden, resp.Code, path)
		assert.Contains(t, resp.Body.String(), "Admin privileges required")
	}
}

func TestAdminListings(t *testing.T) {
	h := NewHandler(
		stubDocs{docs: []documents.Document{{ID: "d1", OwnerID: "u2"}, {ID: "d2", OwnerID: "u3"}}},
		stubJobs{jobs: []jobs.Job{{ID: "j1", Status: jobs.StatusSuccess, TaskType: jobs.TaskOCR}}},
	)
	r := newRouter(h, true)

	resp := get(r, "/admin/documents")
	require.Equal(t, http.StatusOK, resp.Code)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &docs))
	assert.Len(t, docs, 2)

	resp = get(r, "/admin/jobs")
	require.Equal(t, http.StatusOK, resp.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "SUCCESS", listed[0]["status"])
}

func TestAdminListingError(t *testing.T) {
	h := NewHandler(stubDocs{err: errors.New("db down")}, stubJobs{})
	resp := get(newRouter(h, true), "/admin/documents")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
