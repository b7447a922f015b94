package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/shopspring/decimal"
)

// buildLineItems turns line requests into domain line items with catalog
// pricing resolved. Derived money fields are left zero; the accounting
// aggregator fills them before persistence.
func buildLineItems(ctx context.Context, productRepo portsrepo.ProductReader, workspaceID string, reqs []dto.LineItemRequest, creatorUserID string, now time.Time) ([]domain.LineItem, error) {
	productIDs := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.ProductID != nil {
			productIDs = append(productIDs, *r.ProductID)
		}
	}

	var catalog map[string]domain.Product
	if len(productIDs) > 0 {
		var err error
		catalog, err = productRepo.FindProductsByIDs(ctx, workspaceID, productIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve catalog products: %w", err)
		}
	}

	items := make([]domain.LineItem, len(reqs))
	for i, r := range reqs {
		var product *domain.Product
		if r.ProductID != nil {
			p, ok := catalog[*r.ProductID]
			if !ok {
				return nil, apperrors.NewValidationFailedError(fmt.Sprintf("line %d references unknown product %s", i+1, *r.ProductID))
			}
			if !p.IsActive {
				return nil, apperrors.NewValidationFailedError(fmt.Sprintf("line %d references inactive product %s", i+1, *r.ProductID))
			}
			product = &p
		}

		unitPrice, taxRate, description := priceFromCatalog(r, product)
		if description == "" {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("line %d needs a description or a product reference", i+1))
		}

		items[i] = domain.LineItem{
			LineItemID:      uuid.NewString(),
			ProductID:       r.ProductID,
			Description:     description,
			Quantity:        r.Quantity,
			UnitPrice:       unitPrice,
			TaxRate:         taxRate,
			DiscountPercent: r.DiscountPercent,
			Position:        i + 1,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
	}
	return items, nil
}

// documentDiscountOf unpacks the optional document-level discount request.
func documentDiscountOf(req *dto.DocumentDiscountRequest) (domain.DiscountType, decimal.Decimal) {
	if req == nil {
		return domain.DiscountNone, decimal.Zero
	}
	return req.Type, req.Value
}

// newOutboxEvent builds a pending outbox event with a marshalled payload.
func newOutboxEvent(workspaceID string, eventType domain.OutboxEventType, payload any, now time.Time) (domain.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.OutboxEvent{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return domain.OutboxEvent{
		EventID:       uuid.NewString(),
		WorkspaceID:   workspaceID,
		EventType:     eventType,
		Payload:       raw,
		Status:        domain.OutboxPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}, nil
}
