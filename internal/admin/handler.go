// Package admin exposes unrestricted listings to administrators.
package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/documents"
	"receipt-backend/internal/jobs"
	"receipt-backend/internal/shared/server/params"
	"receipt-backend/internal/shared/server/respond"
)

type DocumentLister interface {
	ListAll(ctx context.Context, limit, offset int) ([]documents.Document, error)
}

type JobLister interface {
	ListAll(ctx context.Context, limit, offset int) ([]jobs.Job, error)
}

type Handler struct {
	Docs DocumentLister
	Jobs JobLister
}

func NewHandler(docs DocumentLister, jobs JobLister) *Handler {
	return &Handler{Docs: docs, Jobs: jobs}
}

// RegisterRoutes attaches admin routes. The group must already enforce
// the admin check.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.listJobs)
	rg.GET("/documents", h.listDocuments)
}

func (h *Handler) listJobs(c *gin.Context) {
	limit, offset := params.Page(c)
	all, err := h.Jobs.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list jobs", nil)
		return
	}
	respond.OK(c, jobs.NewJobResponses(all))
}

func (h *Handler) listDocuments(c *gin.Context) {
	limit, offset := params.Page(c)
	docs, err := h.Docs.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	respond.OK(c, documents.NewDocumentResponses(docs))
}
