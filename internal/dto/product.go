package dto

import (
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateProductRequest defines data for creating a catalog product.
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	UnitLabel   string          `json:"unitLabel"`
}

// UpdateProductRequest defines mutable product fields.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	TaxRate     *decimal.Decimal `json:"taxRate"`
	UnitLabel   *string          `json:"unitLabel"`
}

// ProductResponse defines data returned for a product.
type ProductResponse struct {
	ProductID   string          `json:"productID"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	UnitLabel   string          `json:"unitLabel"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ToProductResponse converts domain.Product to DTO.
func ToProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ProductID:   p.ProductID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
		TaxRate:     p.TaxRate,
		UnitLabel:   p.UnitLabel,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

// ListProductsResponse wraps a paginated product list.
type ListProductsResponse struct {
	Products  []ProductResponse `json:"products"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToListProductsResponse converts products plus pagination token to DTO.
func ToListProductsResponse(products []domain.Product, nextToken *string) ListProductsResponse {
	list := make([]ProductResponse, len(products))
	for i := range products {
		list[i] = ToProductResponse(&products[i])
	}
	return ListProductsResponse{Products: list, NextToken: nextToken}
}
