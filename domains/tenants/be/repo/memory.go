package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/domains/tenants/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// MemoryRepository is an in-memory implementation for tests and local demos.
// It also satisfies tenant.Store, so it can back a tenant.Provider directly.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]tenant.Tenant
	bySlug map[string]uuid.UUID
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[uuid.UUID]tenant.Tenant), bySlug: make(map[string]uuid.UUID)}
}

func (r *MemoryRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]tenant.Tenant, 0, len(r.byID))
	for _, t := range r.byID {
		if opts.Active != nil && t.Active != *opts.Active {
			continue
		}
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Slug < items[j].Slug })

	page, pageSize := opts.Page, opts.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	start := min((page-1)*pageSize, len(items))
	end := min(start+pageSize, len(items))

	return service.ListResult{
		Tenants:    items[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(items),
		TotalPages: (len(items) + pageSize - 1) / pageSize,
	}, nil
}

func (r *MemoryRepository) Create(ctx context.Context, input service.CreateInput) (tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySlug[input.Slug]; exists {
		return tenant.Tenant{}, service.ErrConflictSlug
	}

	plan := input.Plan
	if plan == "" {
		plan = "free"
	}
	now := time.Now().UTC()
	t := tenant.Tenant{ID: uuid.New(), Slug: input.Slug, Name: input.Name, Plan: plan, Active: true, CreatedAt: now, UpdatedAt: now}

	r.byID[t.ID] = t
	r.bySlug[t.Slug] = t.ID
	return t, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return tenant.Tenant{}, service.ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return tenant.Tenant{}, service.ErrNotFound
	}
	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.Plan != nil {
		t.Plan = *input.Plan
	}
	if input.Active != nil {
		t.Active = *input.Active
	}
	t.UpdatedAt = time.Now().UTC()

	r.byID[id] = t
	return t, nil
}

// FindActiveBySlug implements tenant.Store.
func (r *MemoryRepository) FindActiveBySlug(ctx context.Context, slug string) (tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySlug[slug]
	if !ok || !r.byID[id].Active {
		return tenant.Tenant{}, tenant.ErrTenantNotFound
	}
	return r.byID[id], nil
}

var (
	_ service.Repository = (*MemoryRepository)(nil)
	_ tenant.Store       = (*MemoryRepository)(nil)
)
