package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/domains/tenants/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// PostgresRepository implements service.Repository over persistence.TenantStore.
type PostgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.TenantStore) *PostgresRepository {
	if store == nil {
		panic("tenant store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	result, err := r.store.List(ctx, persistence.ListTenantsParams{Page: opts.Page, PageSize: opts.PageSize, Active: opts.Active})
	if err != nil {
		return service.ListResult{}, err
	}

	totalPages := 0
	if result.TotalItems > 0 {
		totalPages = (result.TotalItems + opts.PageSize - 1) / opts.PageSize
	}
	return service.ListResult{
		Tenants:    result.Tenants,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: totalPages,
	}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, input service.CreateInput) (tenant.Tenant, error) {
	t, err := r.store.Create(ctx, persistence.CreateTenantParams{Slug: input.Slug, Name: input.Name, Plan: input.Plan})
	return t, mapError(err)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (tenant.Tenant, error) {
	t, err := r.store.GetByID(ctx, id)
	return t, mapError(err)
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (tenant.Tenant, error) {
	t, err := r.store.Update(ctx, id, persistence.UpdateTenantParams{Name: input.Name, Plan: input.Plan, Active: input.Active})
	return t, mapError(err)
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tenant.ErrTenantNotFound):
		return service.ErrNotFound
	case errors.Is(err, persistence.ErrTenantConflict):
		return service.ErrConflictSlug
	default:
		return err
	}
}

var _ service.Repository = (*PostgresRepository)(nil)
