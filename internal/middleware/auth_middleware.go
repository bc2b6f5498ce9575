package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/token"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Payload, error)
}

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// AuthMiddleware handles JWT validation
type AuthMiddleware struct {
	tokens TokenVerifier
	logger *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(tokens TokenVerifier, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// RequireAuth validates the bearer token and stores the caller's Identity in
// the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.logger.Warn("⚠️ [Middleware] Missing or malformed Authorization header", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access denied: token missing or malformed"})
			return
		}

		payload, err := m.tokens.Verify(tokenString)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				m.logger.Warn("⚠️ [Middleware] Expired token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token expired"})
			case errors.Is(err, token.ErrInvalidToken):
				m.logger.Warn("⚠️ [Middleware] Invalid token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			case errors.Is(err, token.ErrMissingSecret):
				m.logger.Error("❌ [Middleware] JWT_SECRET is not configured")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server configuration error"})
			default:
				m.logger.Error("❌ [Middleware] Token verification failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			}
			return
		}

		identity := Identity{UserID: payload.UserID, Email: payload.Email}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		m.logger.Debug("✅ [Middleware] Token validated", "user_id", identity.UserID)

		c.Next()
	}
}

// bearerToken extracts the token from a "Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" || strings.ContainsAny(tokenString, " \t") {
		return "", false
	}
	return tokenString, true
}
