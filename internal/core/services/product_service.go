package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/shopspring/decimal"
)

// productService implements the ProductSvcFacade interface
type productService struct {
	BaseService
	productRepo portsrepo.ProductRepositoryFacade
}

// NewProductService creates a new product service with the provided dependencies
func NewProductService(productRepo portsrepo.ProductRepositoryFacade, authorizer portssvc.WorkspaceAuthorizerSvc) portssvc.ProductSvcFacade {
	return &productService{
		BaseService: BaseService{WorkspaceAuthorizer: authorizer},
		productRepo: productRepo,
	}
}

var _ portssvc.ProductSvcFacade = (*productService)(nil)

// GetProduct retrieves a product by ID
func (s *productService) GetProduct(ctx context.Context, workspaceID, productID, requestingUserID string) (*domain.Product, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindProductByID(ctx, workspaceID, productID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find product", slog.String("product_id", productID))
		}
		return nil, err
	}
	return product, nil
}

// ListProducts retrieves a paginated list of catalog products
func (s *productService) ListProducts(ctx context.Context, workspaceID string, includeInactive bool, limit int, nextToken *string, requestingUserID string) ([]domain.Product, *string, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}

	products, token, err := s.productRepo.ListProducts(ctx, workspaceID, includeInactive, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list products", slog.String("workspace_id", workspaceID))
		return nil, nil, err
	}
	return products, token, nil
}

// CreateProduct creates a catalog product
func (s *productService) CreateProduct(ctx context.Context, workspaceID string, req dto.CreateProductRequest, creatorUserID string) (*domain.Product, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	if req.UnitPrice.IsNegative() {
		return nil, apperrors.NewValidationFailedError("unit price must not be negative")
	}
	if req.TaxRate.IsNegative() {
		return nil, apperrors.NewValidationFailedError("tax rate must not be negative")
	}

	now := time.Now()
	product := domain.Product{
		ProductID:   uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		TaxRate:     req.TaxRate,
		UnitLabel:   req.UnitLabel,
		IsActive:    true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.productRepo.SaveProduct(ctx, product); err != nil {
		s.LogError(ctx, err, "Failed to save product", slog.String("workspace_id", workspaceID))
		return nil, err
	}

	s.LogInfo(ctx, "Product created", slog.String("product_id", product.ProductID))
	return &product, nil
}

// UpdateProduct applies partial changes to a product
func (s *productService) UpdateProduct(ctx context.Context, workspaceID, productID string, req dto.UpdateProductRequest, userID string) (*domain.Product, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindProductByID(ctx, workspaceID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, apperrors.NewValidationFailedError("unit price must not be negative")
		}
		product.UnitPrice = *req.UnitPrice
	}
	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() {
			return nil, apperrors.NewValidationFailedError("tax rate must not be negative")
		}
		product.TaxRate = *req.TaxRate
	}
	if req.UnitLabel != nil {
		product.UnitLabel = *req.UnitLabel
	}
	product.LastUpdatedAt = time.Now()
	product.LastUpdatedBy = userID

	if err := s.productRepo.UpdateProduct(ctx, *product); err != nil {
		s.LogError(ctx, err, "Failed to update product", slog.String("product_id", productID))
		return nil, err
	}
	return product, nil
}

// DeactivateProduct removes a product from the active catalog
func (s *productService) DeactivateProduct(ctx context.Context, workspaceID, productID, userID string) error {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return err
	}

	if err := s.productRepo.DeactivateProduct(ctx, workspaceID, productID, userID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate product", slog.String("product_id", productID))
		return err
	}

	s.LogInfo(ctx, "Product deactivated", slog.String("product_id", productID))
	return nil
}

// priceFromCatalog resolves the effective unit price and tax rate of a line
// request, preferring explicit overrides and falling back to the product.
func priceFromCatalog(req dto.LineItemRequest, product *domain.Product) (unitPrice, taxRate decimal.Decimal, description string) {
	description = req.Description
	if product != nil {
		if description == "" {
			description = product.Name
		}
		unitPrice = product.UnitPrice
		taxRate = product.TaxRate
	}
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	return unitPrice, taxRate, description
}
