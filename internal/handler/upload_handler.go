package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/service"
)

// UploadFormField is the multipart field that carries the file.
const UploadFormField = "image"

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

// UploadHandler stores a single uploaded image and returns its public URL
type UploadHandler struct {
	service service.UploadService
	maxSize int64
	logger  *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service service.UploadService, maxSize int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Upload handles POST /api/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+multipartOverhead)
	}

	file, err := c.FormFile(UploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("⚠️ [UploadHandler] Request body too large", "limit", tooLarge.Limit)
			c.JSON(http.StatusBadRequest, gin.H{"message": h.tooLargeMessage()})
			return
		}
		h.logger.Warn("⚠️ [UploadHandler] File not provided", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	name, err := h.service.Save(file)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"message": h.tooLargeMessage()})
			return
		}
		h.logger.Error("❌ [UploadHandler] Failed to store file", "error", err)
		respondInternal(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     PublicURL(c.Request, name),
	})
}

func (h *UploadHandler) tooLargeMessage() string {
	return fmt.Sprintf("File size exceeds the limit of %d bytes", h.maxSize)
}

// PublicURL builds the absolute URL a stored file is served from.
func PublicURL(r *http.Request, name string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s%s/%s", scheme, r.Host, service.UploadRoute, name)
}
