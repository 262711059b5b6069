package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
)

// Repository defines the persistence operations required by the users service.
// Every call is bound to one tenant.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
	List(ctx context.Context, tenantID uuid.UUID, params persistence.ListUsersParams) (persistence.ListUsersResult, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (persistence.User, error)
}

type postgresRepository struct {
	store *persistence.UserStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.UserStore) Repository {
	if store == nil {
		panic("user store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
	return r.store.Create(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, tenantID uuid.UUID, params persistence.ListUsersParams) (persistence.ListUsersResult, error) {
	return r.store.ListByTenant(ctx, tenantID, params)
}

func (r *postgresRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (persistence.User, error) {
	return r.store.GetByID(ctx, tenantID, id)
}
