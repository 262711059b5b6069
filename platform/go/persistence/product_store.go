package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, tenant_id, sku, name, price_cents, stock, active, created_at, updated_at`

// Product is one sellable item of a tenant's catalog.
type Product struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenantId"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Stock      int       `json:"stock"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type tenantScoper interface {
	WithTenant(ctx context.Context, tenantID uuid.UUID, fn func(tx pgx.Tx) error) error
}

// ProductStore runs every statement inside a tenant scoped transaction and
// filters by tenant id explicitly as well.
type ProductStore struct {
	db tenantScoper
}

func NewProductStore(db *TenantDB) *ProductStore {
	if db == nil {
		panic("ProductStore requires a tenant db")
	}
	return &ProductStore{db: db}
}

// ListProductsParams captures filters and pagination for List.
type ListProductsParams struct {
	Page       int
	PageSize   int
	Search     *string
	ActiveOnly bool
}

// ListProductsResult includes the rows and the total count for pagination metadata.
type ListProductsResult struct {
	Products   []Product
	TotalItems int
}

func (s *ProductStore) List(ctx context.Context, tenantID uuid.UUID, params ListProductsParams) (ListProductsResult, error) {
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)

	args := []any{tenantID}
	whereParts := []string{"tenant_id = $1"}
	if params.ActiveOnly {
		whereParts = append(whereParts, "active")
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*params.Search))+"%")
		whereParts = append(whereParts, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(sku) LIKE $%d)", len(args), len(args)))
	}
	whereSQL := strings.Join(whereParts, " AND ")

	result := ListProductsResult{Products: []Product{}}
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE "+whereSQL, args...).Scan(&result.TotalItems); err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if result.TotalItems == 0 {
			return nil
		}

		pageArgs := append(append([]any{}, args...), params.PageSize, (params.Page-1)*params.PageSize)
		query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY name, sku LIMIT $%d OFFSET $%d`,
			productColumns, whereSQL, len(pageArgs)-1, len(pageArgs))

		rows, err := tx.Query(ctx, query, pageArgs...)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return fmt.Errorf("scan product: %w", err)
			}
			result.Products = append(result.Products, p)
		}
		return rows.Err()
	})
	if err != nil {
		return ListProductsResult{}, err
	}
	return result, nil
}

func (s *ProductStore) Get(ctx context.Context, tenantID, id uuid.UUID) (Product, error) {
	var p Product
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var err error
		p, err = scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetMany returns the requested products keyed by id. Ids from other tenants are silently absent.
func (s *ProductStore) GetMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	out := make(map[uuid.UUID]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = ANY($2)`, tenantID, ids)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out[p.ID] = p
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return out, nil
}

// CreateProductParams captures the fields required to insert a product.
type CreateProductParams struct {
	ID         uuid.UUID
	SKU        string
	Name       string
	PriceCents int64
	Stock      int
}

func (s *ProductStore) Create(ctx context.Context, tenantID uuid.UUID, params CreateProductParams) (Product, error) {
	if params.ID == uuid.Nil {
		params.ID = uuid.New()
	}

	var p Product
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var err error
		p, err = scanProduct(tx.QueryRow(ctx, `
            INSERT INTO products (id, tenant_id, sku, name, price_cents, stock)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING `+productColumns,
			params.ID, tenantID, strings.TrimSpace(params.SKU), strings.TrimSpace(params.Name), params.PriceCents, params.Stock,
		))
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, ErrProductConflict
		}
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// UpdateProductParams holds editable fields; nil leaves a field unchanged.
type UpdateProductParams struct {
	Name       *string
	PriceCents *int64
	Stock      *int
	Active     *bool
}

func (s *ProductStore) Update(ctx context.Context, tenantID, id uuid.UUID, params UpdateProductParams) (Product, error) {
	var setParts []string
	var args []any

	if params.Name != nil {
		args = append(args, strings.TrimSpace(*params.Name))
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.PriceCents != nil {
		args = append(args, *params.PriceCents)
		setParts = append(setParts, fmt.Sprintf("price_cents = $%d", len(args)))
	}
	if params.Stock != nil {
		args = append(args, *params.Stock)
		setParts = append(setParts, fmt.Sprintf("stock = $%d", len(args)))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		setParts = append(setParts, fmt.Sprintf("active = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return Product{}, errNoFieldsToUpdate
	}

	args = append(args, tenantID, id)
	query := fmt.Sprintf(`
        UPDATE products SET %s, updated_at = NOW()
        WHERE tenant_id = $%d AND id = $%d
        RETURNING %s`, strings.Join(setParts, ", "), len(args)-1, len(args), productColumns)

	var p Product
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var err error
		p, err = scanProduct(tx.QueryRow(ctx, query, args...))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.PriceCents, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	return p, nil
}
