package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/token"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/validation"
)

// AuthHandler handles HTTP requests for authentication
type AuthHandler struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(service service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// UserResponse is the public view of a user; the password hash is never included.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req validation.RegisterRequest
	if err := validation.BindJSON(c, &req); err != nil {
		h.logger.Warn("⚠️ [AuthHandler] Invalid registration request", "error", err)
		respondValidation(c, err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req validation.LoginRequest
	if err := validation.BindJSON(c, &req); err != nil {
		h.logger.Warn("⚠️ [AuthHandler] Invalid login request", "error", err)
		respondValidation(c, err)
		return
	}

	signed, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   signed,
	})
}

// handleServiceError maps service errors to HTTP responses
func (h *AuthHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
	case errors.Is(err, service.ErrEmailNotFound):
		// Unknown email is a 400, unlike a wrong password
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email not registered"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
	case errors.Is(err, token.ErrMissingSecret):
		h.logger.Error("❌ [AuthHandler] JWT_SECRET is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server configuration error"})
	default:
		h.logger.Error("❌ [AuthHandler] Internal server error", "error", err)
		respondInternal(c)
	}
}
