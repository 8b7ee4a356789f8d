package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/repository"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByPermalink(ctx context.Context, permalink string) (*domain.Product, error) {
	args := m.Called(ctx, permalink)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestCatalogService(repo *mockProductRepository) *CatalogService {
	return NewCatalogService(repo, newTestEventProducer(), newTestLogger())
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(i int64) *int64 {
	return &i
}

// --- Tests ---

func TestCreateProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	// The repository assigns the permalink at insert time.
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Product")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Product).Permalink = "P123456789"
		}).Return(nil)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:   "Café Crème Mug",
		SKU:    "MUG-001",
		Price:  1299,
		Active: true,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Café Crème Mug", product.Name)
	assert.Equal(t, "cafe-creme-mug", product.Slug)
	assert.Equal(t, "P123456789", product.Permalink)
	assert.NotZero(t, product.CreatedAt)
	repo.AssertExpectations(t)
}

func TestCreateProduct_Invalid(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateProductInput
	}{
		{"empty name", CreateProductInput{SKU: "SKU-1", Price: 100}},
		{"empty sku", CreateProductInput{Name: "Thing", Price: 100}},
		{"negative price", CreateProductInput{Name: "Thing", SKU: "SKU-1", Price: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := svc.CreateProduct(ctx, tt.input)
			assert.Nil(t, product)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateProduct_RenameRegeneratesSlug(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	existing := &domain.Product{
		ID:        "prod-1",
		Name:      "Old Name",
		Slug:      "old-name",
		Permalink: "P123456789",
		SKU:       "SKU-1",
		Price:     1000,
	}

	repo.On("GetByID", ctx, "prod-1").Return(existing, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.UpdateProduct(ctx, "prod-1", UpdateProductInput{Name: strPtr("Brand New Name")})

	require.NoError(t, err)
	assert.Equal(t, "Brand New Name", product.Name)
	assert.Equal(t, "brand-new-name", product.Slug)
	// The public handle survives the rename.
	assert.Equal(t, "P123456789", product.Permalink)
	repo.AssertExpectations(t)
}

func TestUpdateProduct_NegativePrice(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	existing := &domain.Product{ID: "prod-1", Name: "Thing", SKU: "SKU-1"}
	repo.On("GetByID", ctx, "prod-1").Return(existing, nil)

	product, err := svc.UpdateProduct(ctx, "prod-1", UpdateProductInput{Price: int64Ptr(-5)})

	assert.Nil(t, product)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestGetProductByPermalink(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	existing := &domain.Product{ID: "prod-1", Permalink: "P123456789"}
	repo.On("GetByPermalink", ctx, "P123456789").Return(existing, nil)

	product, err := svc.GetProductByPermalink(ctx, "P123456789")

	require.NoError(t, err)
	assert.Equal(t, "prod-1", product.ID)
	repo.AssertExpectations(t)
}

func TestListProducts_DefaultsLimit(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	repo.On("List", ctx, repository.ProductFilter{Limit: 20}).
		Return([]domain.Product{{ID: "prod-1"}}, 1, nil)

	products, total, err := svc.ListProducts(ctx, repository.ProductFilter{})

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, total)
	repo.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestCatalogService(repo)
	ctx := context.Background()

	repo.On("Delete", ctx, "prod-9").Return(apperrors.NotFound("product", "prod-9"))

	err := svc.DeleteProduct(ctx, "prod-9")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertExpectations(t)
}
