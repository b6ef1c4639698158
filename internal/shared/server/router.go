package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/admin"
	googleauth "receipt-backend/internal/auth"
	"receipt-backend/internal/documents"
	"receipt-backend/internal/jobs"
	"receipt-backend/internal/search"
	"receipt-backend/internal/services/health"
	"receipt-backend/internal/shared/config"
	"receipt-backend/internal/shared/metrics"
	"receipt-backend/internal/shared/server/middleware"
	"receipt-backend/internal/shared/server/respond"
	"receipt-backend/internal/users"
)

const authRateGroup = "AUTH"

// RouterDeps holds dependencies for router construction.
type RouterDeps struct {
	Config          config.Config
	Authenticate    middleware.Authenticator
	RateLimiter     *middleware.RateLimiter
	Health          *health.Service
	UserHandler     *users.Handler
	GoogleAuth      *googleauth.GoogleService
	DocumentHandler *documents.Handler
	JobHandler      *jobs.Handler
	SearchHandler   *search.Handler
	AdminHandler    *admin.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(authRateLimit(deps)),
	)
	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Resource not found", nil)
	})

	r.GET("/metrics", metrics.Handler())
	if deps.Health != nil {
		deps.Health.RegisterRoutes(&r.RouterGroup)
	}

	authGroup := r.Group("/auth")
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterAuthRoutes(authGroup)
	}
	if deps.GoogleAuth != nil && deps.GoogleAuth.Enabled() {
		deps.GoogleAuth.RegisterRoutes(authGroup)
	}

	protected := r.Group("/", middleware.Auth(deps.Authenticate))
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(protected)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(protected)
	}
	if deps.JobHandler != nil {
		deps.JobHandler.RegisterRoutes(protected)
	}
	if deps.SearchHandler != nil {
		deps.SearchHandler.RegisterRoutes(protected)
	}
	if deps.AdminHandler != nil {
		deps.AdminHandler.RegisterRoutes(protected.Group("/admin", middleware.RequireAdmin()))
	}

	return r
}

// authRateLimit throttles the unauthenticated /auth endpoints per client IP.
func authRateLimit(deps RouterDeps) middleware.RateLimitConfig {
	perMinute := deps.Config.AuthRatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	return middleware.RateLimitConfig{
		Limiter: deps.RateLimiter,
		Rules: map[string]middleware.RateLimitRule{
			authRateGroup: {Rate: float64(perMinute) / 60.0, Burst: perMinute},
		},
		GroupFor: func(c *gin.Context) string {
			if strings.HasPrefix(c.Request.URL.Path, "/auth/") {
				return authRateGroup
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
