package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/validation"
)

const imageReleaseTimeout = 30 * time.Second

// ImageReleaser removes an uploaded image once nothing references it.
type ImageReleaser interface {
	Release(ctx context.Context, imageURL string) error
}

// TaskRunner runs best-effort work outside the request.
type TaskRunner interface {
	SubmitWithTimeout(name string, timeout time.Duration, task func(ctx context.Context))
}

// ProductService defines the interface for seller-scoped product operations
type ProductService interface {
	Create(ctx context.Context, sellerID uuid.UUID, req *validation.CreateProductRequest) (*models.Product, error)
	ListMine(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error)
	Get(ctx context.Context, sellerID, productID uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, sellerID, productID uuid.UUID, req *validation.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, sellerID, productID uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
	images      ImageReleaser
	tasks       TaskRunner
	logger      *slog.Logger
}

// NewProductService creates a new product service instance. images and tasks
// may be nil, in which case replaced or orphaned images are kept on disk.
func NewProductService(
	productRepo repository.ProductRepository,
	images ImageReleaser,
	tasks TaskRunner,
	logger *slog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
		tasks:       tasks,
		logger:      logger,
	}
}

func (s *productService) Create(ctx context.Context, sellerID uuid.UUID, req *validation.CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       req.StockOrDefault(),
		ImageURL:    req.ImageURL,
		SellerID:    sellerID,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error("❌ [ProductService] Failed to create product", "seller_id", sellerID, "error", err)
		return nil, err
	}

	s.logger.Info("✅ [ProductService] Product created", "product_id", product.ID, "seller_id", sellerID)
	return product, nil
}

func (s *productService) ListMine(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	products, err := s.productRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		s.logger.Error("❌ [ProductService] Failed to list products", "seller_id", sellerID, "error", err)
		return nil, err
	}

	s.logger.Debug("📦 [ProductService] Listed products", "seller_id", sellerID, "count", len(products))
	return products, nil
}

func (s *productService) Get(ctx context.Context, sellerID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.FindOwned(ctx, productID, sellerID)
	if err != nil {
		return nil, s.mapLookupError(err, sellerID, productID)
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, sellerID, productID uuid.UUID, req *validation.UpdateProductRequest) (*models.Product, error) {
	product, err := s.productRepo.FindOwned(ctx, productID, sellerID)
	if err != nil {
		return nil, s.mapLookupError(err, sellerID, productID)
	}

	previousImage := product.ImageURL
	fields := updateFields(req)

	if err := s.productRepo.UpdateFields(ctx, product, fields); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("❌ [ProductService] Failed to update product", "product_id", productID, "error", err)
		return nil, err
	}

	if req.ImageURL != nil && !sameImage(previousImage, product.ImageURL) {
		s.releaseImage(previousImage)
	}

	s.logger.Info("✅ [ProductService] Product updated", "product_id", productID, "fields", len(fields))
	return product, nil
}

func (s *productService) Delete(ctx context.Context, sellerID, productID uuid.UUID) error {
	product, err := s.productRepo.FindOwned(ctx, productID, sellerID)
	if err != nil {
		return s.mapLookupError(err, sellerID, productID)
	}

	if err := s.productRepo.Delete(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		s.logger.Error("❌ [ProductService] Failed to delete product", "product_id", productID, "error", err)
		return err
	}

	s.releaseImage(product.ImageURL)

	s.logger.Info("🗑️ [ProductService] Product deleted", "product_id", productID, "seller_id", sellerID)
	return nil
}

// mapLookupError hides whether a product is missing or owned by someone else.
func (s *productService) mapLookupError(err error, sellerID, productID uuid.UUID) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		s.logger.Warn("⚠️ [ProductService] Product not found for seller",
			"product_id", productID,
			"seller_id", sellerID,
		)
		return ErrProductNotFound
	}
	s.logger.Error("❌ [ProductService] Database error", "product_id", productID, "error", err)
	return err
}

func (s *productService) releaseImage(imageURL *string) {
	if imageURL == nil || *imageURL == "" || s.images == nil || s.tasks == nil {
		return
	}

	url := *imageURL
	s.tasks.SubmitWithTimeout("release-image", imageReleaseTimeout, func(ctx context.Context) {
		if err := s.images.Release(ctx, url); err != nil {
			s.logger.Warn("⚠️ [ProductService] Failed to release image", "image_url", url, "error", err)
		}
	})
}

// updateFields maps the provided request fields to column names.
func updateFields(req *validation.UpdateProductRequest) map[string]interface{} {
	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Stock != nil {
		fields["stock"] = *req.Stock
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}
	return fields
}

func sameImage(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Service errors
var (
	ErrProductNotFound = errors.New("product not found")
)
