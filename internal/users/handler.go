package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/shared/server/middleware"
	"receipt-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// RegisterAuthRoutes attaches the unauthenticated /auth endpoints.
func (h *Handler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
}

// RegisterRoutes attaches endpoints that require an authenticated caller.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "A valid email and password are required", nil)
		return
	}

	token, _, err := h.Svc.Register(c.Request.Context(), RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			respond.Error(c, http.StatusBadRequest, "email_in_use", "Email already in use", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register", nil)
		}
		return
	}

	respond.Created(c, tokenResponse{AccessToken: token})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "A valid email and password are required", nil)
		return
	}

	token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to login", nil)
		return
	}

	respond.OK(c, tokenResponse{AccessToken: token})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.OK(c, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"is_admin":   user.IsAdmin,
		"created_at": user.CreatedAt,
	})
}
