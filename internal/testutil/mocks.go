package testutil

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/token"
)

// ==================== MOCK USER REPOSITORY ====================

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == uuid.Nil {
		user.ID = uuid.New()
		user.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// ==================== MOCK PRODUCT REPOSITORY ====================

// MockProductRepository implements repository.ProductRepository for testing
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	if args.Error(0) == nil && product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockProductRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) FindOwned(ctx context.Context, id, sellerID uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) UpdateFields(ctx context.Context, product *models.Product, fields map[string]interface{}) error {
	args := m.Called(ctx, product, fields)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) CountByImageURL(ctx context.Context, imageURL string) (int64, error) {
	args := m.Called(ctx, imageURL)
	return args.Get(0).(int64), args.Error(1)
}

// ==================== MOCK TOKENS ====================

// MockTokenIssuer implements service.TokenIssuer for testing
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Sign(payload token.Payload) (string, error) {
	args := m.Called(payload)
	return args.String(0), args.Error(1)
}

// MockTokenVerifier implements middleware.TokenVerifier for testing
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(tokenString string) (*token.Payload, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Payload), args.Error(1)
}

// ==================== MOCK SERVICES ====================

// MockImageReleaser implements service.ImageReleaser for testing
type MockImageReleaser struct {
	mock.Mock
}

func (m *MockImageReleaser) Release(ctx context.Context, imageURL string) error {
	args := m.Called(ctx, imageURL)
	return args.Error(0)
}

// MockUploadService implements service.UploadService for testing
type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Save(file *multipart.FileHeader) (string, error) {
	args := m.Called(file)
	return args.String(0), args.Error(1)
}

func (m *MockUploadService) Release(ctx context.Context, imageURL string) error {
	args := m.Called(ctx, imageURL)
	return args.Error(0)
}

func (m *MockUploadService) Dir() string {
	args := m.Called()
	return args.String(0)
}

// ==================== INLINE TASK RUNNER ====================

// InlineTasks runs submitted tasks synchronously so tests can assert on
// their effects right after the call returns.
type InlineTasks struct {
	Names []string
}

func (t *InlineTasks) SubmitWithTimeout(name string, timeout time.Duration, task func(ctx context.Context)) {
	t.Names = append(t.Names, name)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	task(ctx)
}
