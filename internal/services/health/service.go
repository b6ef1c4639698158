package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/shared/server/respond"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB Pinger
}

// NewService constructs a new health service. db may be nil when the
// process runs on in-memory repositories.
func NewService(db Pinger) *Service {
	return &Service{DB: db}
}

// Status reports overall health and the database state.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	payload := map[string]any{"ok": true, "database": "memory"}
	if s.DB == nil {
		return payload, true
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		payload["ok"] = false
		payload["database"] = "down"
		return payload, false
	}
	payload["database"] = "up"
	return payload, true
}

// RegisterRoutes attaches GET /health.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		payload, ok := s.Status(c.Request.Context())
		if !ok {
			respond.JSON(c, http.StatusServiceUnavailable, payload)
			return
		}
		respond.OK(c, payload)
	})
}
