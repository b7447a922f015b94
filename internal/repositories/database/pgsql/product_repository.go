package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	"github.com/nextfact/crm_billing_app/internal/utils/pagination"
)

type PgxProductRepository struct {
	db *pgxpool.Pool
}

func newPgxProductRepository(db *pgxpool.Pool) portsrepo.ProductRepositoryFacade {
	return &PgxProductRepository{db: db}
}

// Ensure PgxProductRepository implements portsrepo.ProductRepositoryFacade
var _ portsrepo.ProductRepositoryFacade = (*PgxProductRepository)(nil)

var FULL_PRODUCT_SELECT_QUERY = `
SELECT
	p.product_id, p.workspace_id, p.name, p.description, p.unit_price, p.tax_rate,
	p.unit_label, p.is_active,
	p.created_at, p.created_by, p.last_updated_at, p.last_updated_by
FROM products p
`

func (r *PgxProductRepository) getProducts(ctx context.Context, filterQuery string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, FULL_PRODUCT_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query products", err)
	}
	defer rows.Close()
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Product{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect product rows", err)
	}
	return products, nil
}

func (r *PgxProductRepository) FindProductByID(ctx context.Context, workspaceID, productID string) (*domain.Product, error) {
	products, err := r.getProducts(ctx, `WHERE p.workspace_id = $1 AND p.product_id = $2`, workspaceID, productID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &products[0], nil
}

func (r *PgxProductRepository) FindProductsByIDs(ctx context.Context, workspaceID string, productIDs []string) (map[string]domain.Product, error) {
	if len(productIDs) == 0 {
		return map[string]domain.Product{}, nil
	}
	products, err := r.getProducts(ctx, `WHERE p.workspace_id = $1 AND p.product_id = ANY($2)`, workspaceID, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}
	return byID, nil
}

func (r *PgxProductRepository) ListProducts(ctx context.Context, workspaceID string, includeInactive bool, limit int, nextToken *string) ([]domain.Product, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	filter := `WHERE p.workspace_id = $1`
	args := []any{workspaceID}
	if !includeInactive {
		filter += ` AND p.is_active = TRUE`
	}
	if nextToken != nil {
		createdAt, id, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		filter += ` AND (p.created_at, p.product_id) < ($2, $3)`
		args = append(args, createdAt, id)
	}
	filter += ` ORDER BY p.created_at DESC, p.product_id DESC LIMIT ` + strconv.Itoa(limit+1)

	products, err := r.getProducts(ctx, filter, args...)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(products) > limit {
		products = products[:limit]
		last := products[len(products)-1]
		t := pagination.EncodeCursor(last.CreatedAt, last.ProductID)
		token = &t
	}
	return products, token, nil
}

func (r *PgxProductRepository) SaveProduct(ctx context.Context, product domain.Product) error {
	query := `
		INSERT INTO products (
			product_id, workspace_id, name, description, unit_price, tax_rate, unit_label,
			is_active, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.db.Exec(ctx, query,
		product.ProductID,
		product.WorkspaceID,
		product.Name,
		product.Description,
		product.UnitPrice,
		product.TaxRate,
		product.UnitLabel,
		product.IsActive,
		product.CreatedAt,
		product.CreatedBy,
		product.LastUpdatedAt,
		product.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return apperrors.NewConflictError("product " + product.ProductID + " already exists")
			}
			if pgErr.Code == "23503" { // foreign_key_violation
				return apperrors.NewValidationFailedError("workspace does not exist")
			}
		}
		return apperrors.NewAppError(500, "failed to save product "+product.ProductID, err)
	}
	return nil
}

func (r *PgxProductRepository) UpdateProduct(ctx context.Context, product domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, unit_price = $3, tax_rate = $4, unit_label = $5,
			last_updated_at = $6, last_updated_by = $7
		WHERE workspace_id = $8 AND product_id = $9;
	`
	tag, err := r.db.Exec(ctx, query,
		product.Name,
		product.Description,
		product.UnitPrice,
		product.TaxRate,
		product.UnitLabel,
		product.LastUpdatedAt,
		product.LastUpdatedBy,
		product.WorkspaceID,
		product.ProductID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update product "+product.ProductID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxProductRepository) DeactivateProduct(ctx context.Context, workspaceID, productID, userID string, now time.Time) error {
	query := `
		UPDATE products
		SET is_active = FALSE, last_updated_at = $1, last_updated_by = $2
		WHERE workspace_id = $3 AND product_id = $4;
	`
	tag, err := r.db.Exec(ctx, query, now, userID, workspaceID, productID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to deactivate product "+productID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
