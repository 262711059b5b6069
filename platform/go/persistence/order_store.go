package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Order is a completed sale with its priced lines.
type Order struct {
	ID            uuid.UUID   `json:"id"`
	TenantID      uuid.UUID   `json:"tenantId"`
	CreatedBy     uuid.UUID   `json:"createdBy"`
	Lines         []OrderLine `json:"lines"`
	SubtotalCents int64       `json:"subtotalCents"`
	DiscountCents int64       `json:"discountCents"`
	TaxCents      int64       `json:"taxCents"`
	TotalCents    int64       `json:"totalCents"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// OrderLine is one product row of an order, priced at sale time.
type OrderLine struct {
	ProductID      uuid.UUID `json:"productId"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
}

type OrderStore struct {
	db tenantScoper
}

func NewOrderStore(db *TenantDB) *OrderStore {
	if db == nil {
		panic("OrderStore requires a tenant db")
	}
	return &OrderStore{db: db}
}

// Create persists the order, its lines and the stock decrements atomically.
// ErrInsufficientStock aborts the whole order.
func (s *OrderStore) Create(ctx context.Context, order Order) (Order, error) {
	if order.TenantID == uuid.Nil || order.CreatedBy == uuid.Nil {
		return Order{}, errors.New("tenant id and creator are required")
	}
	if len(order.Lines) == 0 {
		return Order{}, errors.New("order has no lines")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	err := s.db.WithTenant(ctx, order.TenantID, func(tx pgx.Tx) error {
		for _, line := range order.Lines {
			tag, err := tx.Exec(ctx, `
                UPDATE products SET stock = stock - $1, updated_at = NOW()
                WHERE tenant_id = $2 AND id = $3 AND active AND stock >= $1`,
				line.Quantity, order.TenantID, line.ProductID)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("product %s: %w", line.ProductID, ErrInsufficientStock)
			}
		}

		if err := tx.QueryRow(ctx, `
            INSERT INTO orders (id, tenant_id, created_by, subtotal_cents, discount_cents, tax_cents, total_cents)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING created_at`,
			order.ID, order.TenantID, order.CreatedBy,
			order.SubtotalCents, order.DiscountCents, order.TaxCents, order.TotalCents,
		).Scan(&order.CreatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, line := range order.Lines {
			if _, err := tx.Exec(ctx, `
                INSERT INTO order_lines (order_id, line_no, tenant_id, product_id, sku, quantity, unit_price_cents)
                VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				order.ID, i+1, order.TenantID, line.ProductID, line.SKU, line.Quantity, line.UnitPriceCents,
			); err != nil {
				return fmt.Errorf("insert order line %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func (s *OrderStore) Get(ctx context.Context, tenantID, id uuid.UUID) (Order, error) {
	order := Order{ID: id, TenantID: tenantID, Lines: []OrderLine{}}

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
            SELECT created_by, subtotal_cents, discount_cents, tax_cents, total_cents, created_at
            FROM orders WHERE tenant_id = $1 AND id = $2`, tenantID, id,
		).Scan(&order.CreatedBy, &order.SubtotalCents, &order.DiscountCents, &order.TaxCents, &order.TotalCents, &order.CreatedAt); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
            SELECT product_id, sku, quantity, unit_price_cents
            FROM order_lines WHERE tenant_id = $1 AND order_id = $2 ORDER BY line_no`, tenantID, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var line OrderLine
			if err := rows.Scan(&line.ProductID, &line.SKU, &line.Quantity, &line.UnitPriceCents); err != nil {
				return err
			}
			order.Lines = append(order.Lines, line)
		}
		return rows.Err()
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}
