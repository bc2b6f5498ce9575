package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	nanoid "github.com/jaevor/go-nanoid"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/config"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/repository"
)

// UploadRoute is the public path prefix under which stored files are served.
const UploadRoute = "/uploads"

var safeExtension = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// UploadService defines the interface for storing uploaded files on disk
type UploadService interface {
	// Save stores the file and returns its generated name.
	Save(file *multipart.FileHeader) (string, error)
	// Release deletes a stored file when no product references its URL.
	Release(ctx context.Context, imageURL string) error
	// Dir returns the directory files are written to.
	Dir() string
}

type uploadService struct {
	productRepo repository.ProductRepository
	dir         string
	maxSize     int64
	suffix      func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUploadService creates a new upload service instance
func NewUploadService(
	productRepo repository.ProductRepository,
	cfg *config.Config,
	logger *slog.Logger,
) (UploadService, error) {
	suffix, err := nanoid.CustomASCII("0123456789", 9)
	if err != nil {
		return nil, fmt.Errorf("failed to create filename generator: %w", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &uploadService{
		productRepo: productRepo,
		dir:         cfg.UploadDir,
		maxSize:     cfg.MaxUploadSize,
		suffix:      suffix,
		now:         time.Now,
		logger:      logger,
	}, nil
}

func (s *uploadService) Dir() string {
	return s.dir
}

func (s *uploadService) Save(file *multipart.FileHeader) (string, error) {
	if s.maxSize > 0 && file.Size > s.maxSize {
		s.logger.Warn("⚠️ [UploadService] File size exceeds limit",
			"size_bytes", file.Size,
			"max_size_bytes", s.maxSize,
		)
		return "", ErrFileTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := s.generateName(file.Filename)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Info("📁 [UploadService] File stored",
		"filename", name,
		"original_name", file.Filename,
		"size_bytes", file.Size,
	)
	return name, nil
}

func (s *uploadService) Release(ctx context.Context, imageURL string) error {
	name, ok := storedName(imageURL)
	if !ok {
		// Not one of ours
		return nil
	}

	refs, err := s.productRepo.CountByImageURL(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("failed to count image references: %w", err)
	}
	if refs > 0 {
		s.logger.Debug("🔗 [UploadService] Image still referenced", "filename", name, "references", refs)
		return nil
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	s.logger.Info("🗑️ [UploadService] Released unreferenced image", "filename", name)
	return nil
}

// generateName builds "<unix millis>-<9 random digits><ext>".
func (s *uploadService) generateName(original string) string {
	ext := filepath.Ext(original)
	if !safeExtension.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), s.suffix(), ext)
}

// storedName extracts the file name from a URL served under UploadRoute.
func storedName(imageURL string) (string, bool) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", false
	}
	dir, name := path.Split(u.Path)
	if strings.TrimSuffix(dir, "/") != UploadRoute || name == "" || name == "." || name == ".." {
		return "", false
	}
	return name, true
}

// Service errors
var (
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
)
