package search

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/documents"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
}

func (h *Handler) search(c *gin.Context) {
	q := Query{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Limit:    params.Int(c, "limit", documents.DefaultSearchLimit),
		Offset:   params.Int(c, "offset", 0),
	}
	docs, err := h.Svc.Search(c.Request.Context(), middleware.UserIDFromContext(c), q)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "search failed", nil)
		return
	}
	respond.OK(c, documents.NewDocumentResponses(docs))
}
