package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/internal/event"
	"github.com/harborline/storefront/internal/repository"
	apperrors "github.com/harborline/storefront/pkg/errors"
	"github.com/harborline/storefront/pkg/slug"
)

// CatalogService manages products.
type CatalogService struct {
	repo     repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *CatalogService {
	return &CatalogService{repo: repo, producer: producer, logger: logger}
}

// CreateProductInput is the input for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	SKU         string
	Price       int64
	Active      bool
}

// CreateProduct creates a product. The slug is derived from the name and the
// permalink is assigned by the repository at insert time.
func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidField("name", "name is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return nil, apperrors.InvalidField("sku", "sku is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidField("price", "price must not be negative")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug.Generate(input.Name),
		Description: input.Description,
		SKU:         strings.TrimSpace(input.SKU),
		Price:       input.Price,
		Active:      input.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("permalink", product.Permalink),
	)
	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// GetProductByPermalink retrieves a product by its permalink.
func (s *CatalogService) GetProductByPermalink(ctx context.Context, link string) (*domain.Product, error) {
	product, err := s.repo.GetByPermalink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("get product by permalink: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered, paginated list of products.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateProductInput is the input for updating a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	SKU         *string
	Price       *int64
	Active      *bool
}

// UpdateProduct applies partial updates to a product. Renaming regenerates
// the slug; the permalink never changes.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.InvalidField("name", "name is required")
		}
		product.Name = strings.TrimSpace(*input.Name)
		product.Slug = slug.Generate(product.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.SKU != nil {
		if strings.TrimSpace(*input.SKU) == "" {
			return nil, apperrors.InvalidField("sku", "sku is required")
		}
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidField("price", "price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.Active != nil {
		product.Active = *input.Active
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}
