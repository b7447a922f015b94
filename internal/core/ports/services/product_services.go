package services

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// ProductReaderSvc defines read operations for the product catalog
type ProductReaderSvc interface {
	GetProduct(ctx context.Context, workspaceID, productID, requestingUserID string) (*domain.Product, error)
	ListProducts(ctx context.Context, workspaceID string, includeInactive bool, limit int, nextToken *string, requestingUserID string) ([]domain.Product, *string, error)
}

// ProductWriterSvc defines write operations for the product catalog
type ProductWriterSvc interface {
	CreateProduct(ctx context.Context, workspaceID string, req dto.CreateProductRequest, creatorUserID string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, workspaceID, productID string, req dto.UpdateProductRequest, userID string) (*domain.Product, error)

	// DeactivateProduct removes a product from the active catalog. Line items
	// that snapshotted it are unaffected.
	DeactivateProduct(ctx context.Context, workspaceID, productID, userID string) error
}

// ProductSvcFacade combines all product-related service interfaces
type ProductSvcFacade interface {
	ProductReaderSvc
	ProductWriterSvc
}
