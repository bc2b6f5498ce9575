package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/models"
)

// ProductRepository defines the interface for product data operations.
// Every lookup that addresses a single product is scoped to its seller.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error)
	FindOwned(ctx context.Context, id, sellerID uuid.UUID) (*models.Product, error)
	UpdateFields(ctx context.Context, product *models.Product, fields map[string]interface{}) error
	Delete(ctx context.Context, product *models.Product) error
	CountByImageURL(ctx context.Context, imageURL string) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindOwned(ctx context.Context, id, sellerID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// UpdateFields writes only the given columns and reloads the product.
func (r *productRepository) UpdateFields(ctx context.Context, product *models.Product, fields map[string]interface{}) error {
	db := r.db.WithContext(ctx)

	if len(fields) > 0 {
		result := db.Model(&models.Product{}).
			Where("id = ? AND seller_id = ?", product.ID, product.SellerID).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
	}

	err := db.Where("id = ? AND seller_id = ?", product.ID, product.SellerID).First(product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (r *productRepository) Delete(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", product.ID, product.SellerID).
		Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) CountByImageURL(ctx context.Context, imageURL string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("image_url = ?", imageURL).
		Count(&count).Error
	return count, err
}

// Repository errors
var (
	ErrProductNotFound = errors.New("product not found")
)
