package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/middleware"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/validation"
)

// respondValidation writes a 400 with field-level detail. It reports false
// when err is not a validation error.
func respondValidation(c *gin.Context, err error) bool {
	var vErr *validation.ValidationError
	if !errors.As(err, &vErr) {
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"message": "Invalid input",
		"errors":  vErr.Fields,
	})
	return true
}

func respondInternal(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

// currentUserID returns the seller resolved by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	identity, ok := middleware.IdentityFrom(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return uuid.Nil, false
	}
	return identity.UserID, true
}
