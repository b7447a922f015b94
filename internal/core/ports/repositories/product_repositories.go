package repositories

import (
	"context"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// ProductReader defines read operations for product data
type ProductReader interface {
	FindProductByID(ctx context.Context, workspaceID, productID string) (*domain.Product, error)
	FindProductsByIDs(ctx context.Context, workspaceID string, productIDs []string) (map[string]domain.Product, error)
	ListProducts(ctx context.Context, workspaceID string, includeInactive bool, limit int, nextToken *string) ([]domain.Product, *string, error)
}

// ProductWriter defines write operations for product data
type ProductWriter interface {
	SaveProduct(ctx context.Context, product domain.Product) error
	UpdateProduct(ctx context.Context, product domain.Product) error

	// DeactivateProduct soft-deletes a product; referenced by historical line
	// items, products are never physically removed.
	DeactivateProduct(ctx context.Context, workspaceID, productID, userID string, now time.Time) error
}

// ProductRepositoryFacade combines all product-related repository interfaces
type ProductRepositoryFacade interface {
	ProductReader
	ProductWriter
}
