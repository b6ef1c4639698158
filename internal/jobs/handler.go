package jobs

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/shared/server/middleware"
	"receipt-backend/internal/shared/server/params"
	"receipt-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// JobResponse is the JSON shape of a Job.
type JobResponse struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	VersionID  string     `json:"version_id"`
	Status     string     `json:"status"`
	TaskType   string     `json:"task_type"`
	Message    *string    `json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func NewJobResponse(job Job) JobResponse {
	return JobResponse{
		ID:         job.ID,
		DocumentID: job.DocumentID,
		VersionID:  job.VersionID,
		Status:     job.Status,
		TaskType:   job.TaskType,
		Message:    job.Message,
		CreatedAt:  job.CreatedAt,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
}

func NewJobResponses(jobs []Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, NewJobResponse(job))
	}
	return out
}

// RegisterRoutes attaches job routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.list)
	rg.GET("/jobs/:id", h.get)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := params.Page(c)
	jobs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list jobs", nil)
		return
	}
	respond.OK(c, NewJobResponses(jobs))
}

func (h *Handler) get(c *gin.Context) {
	job, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Job not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch job", nil)
		return
	}
	c.Set(middleware.JobIDKey, job.ID)
	c.Set(middleware.JobStatusKey, job.Status)
	c.Set(middleware.DocumentIDKey, job.DocumentID)
	respond.OK(c, NewJobResponse(job))
}
