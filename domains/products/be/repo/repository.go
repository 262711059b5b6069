package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
)

// Repository defines the catalog operations required by the products service.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID, params persistence.ListProductsParams) (persistence.ListProductsResult, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (persistence.Product, error)
	Create(ctx context.Context, tenantID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, params persistence.UpdateProductParams) (persistence.Product, error)
}

// NewPostgresRepository returns the ProductStore itself; its method set already
// matches Repository.
func NewPostgresRepository(store *persistence.ProductStore) Repository {
	if store == nil {
		panic("product store is required")
	}
	return store
}
