package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
)

// Repository defines the persistence operations required by the orders service.
type Repository interface {
	// Products returns the requested catalog rows keyed by id. Unknown ids are absent.
	Products(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]persistence.Product, error)
	Create(ctx context.Context, order persistence.Order) (persistence.Order, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (persistence.Order, error)
}

type postgresRepository struct {
	products *persistence.ProductStore
	orders   *persistence.OrderStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(products *persistence.ProductStore, orders *persistence.OrderStore) Repository {
	if products == nil {
		panic("product store is required")
	}
	if orders == nil {
		panic("order store is required")
	}
	return &postgresRepository{products: products, orders: orders}
}

func (r *postgresRepository) Products(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]persistence.Product, error) {
	return r.products.GetMany(ctx, tenantID, ids)
}

func (r *postgresRepository) Create(ctx context.Context, order persistence.Order) (persistence.Order, error) {
	return r.orders.Create(ctx, order)
}

func (r *postgresRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (persistence.Order, error) {
	return r.orders.Get(ctx, tenantID, id)
}
