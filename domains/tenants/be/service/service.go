package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// Errors returned by the service layer.
var (
	ErrNotFound     = errors.New("tenant not found")
	ErrConflictSlug = errors.New("tenant slug already exists")
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// PublicTenant is what anonymous storefront callers may read.
type PublicTenant struct {
	Slug string
	Name string
}

// CreateInput represents the request to create a tenant.
type CreateInput struct {
	Slug string
	Name string
	Plan string
}

// UpdateInput represents mutable fields for a tenant; nil leaves a field unchanged.
type UpdateInput struct {
	Name   *string
	Plan   *string
	Active *bool
}

// ListResult wraps paginated tenants.
type ListResult struct {
	Tenants    []tenant.Tenant
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// ListOptions captures filters and pagination.
type ListOptions struct {
	Page     int
	PageSize int
	Active   *bool
}

// Repository abstracts persistence. Implementations report missing rows as
// ErrNotFound and duplicate slugs as ErrConflictSlug.
type Repository interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Create(ctx context.Context, input CreateInput) (tenant.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (tenant.Tenant, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (tenant.Tenant, error)
}

// Directory is the cached lookup in front of the repository. tenant.Provider satisfies it.
type Directory interface {
	LoadTenant(ctx context.Context, slug string) (tenant.Tenant, error)
	Invalidate(ctx context.Context, slug string)
}

// Service provides tenant registry operations for the public storefront and the superadmin plane.
type Service struct {
	repo      Repository
	directory Directory
}

// New constructs a Service with required dependencies.
func New(repo Repository, directory Directory) *Service {
	if repo == nil {
		panic("tenants repo is required")
	}
	if directory == nil {
		panic("tenant directory is required")
	}
	return &Service{repo: repo, directory: directory}
}

// GetPublic returns the public view of an active tenant. Inactive and unknown
// slugs are both ErrNotFound.
func (s *Service) GetPublic(ctx context.Context, slug string) (PublicTenant, error) {
	normalized, err := tenant.NormalizeSlug(slug)
	if err != nil {
		return PublicTenant{}, ErrNotFound
	}

	t, err := s.directory.LoadTenant(ctx, normalized)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return PublicTenant{}, ErrNotFound
		}
		return PublicTenant{}, err
	}
	return PublicTenant{Slug: t.Slug, Name: t.Name}, nil
}

// List tenants with an optional active filter.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}
	return s.repo.List(ctx, opts)
}

// Create registers a new active tenant.
func (s *Service) Create(ctx context.Context, input CreateInput) (tenant.Tenant, error) {
	fields := FieldErrors{}

	slug, err := tenant.NormalizeSlug(input.Slug)
	if err != nil {
		fields["slug"] = append(fields["slug"], err.Error())
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		fields["name"] = append(fields["name"], "name is required")
	}
	if len(fields) > 0 {
		return tenant.Tenant{}, &ValidationError{Fields: fields}
	}

	return s.repo.Create(ctx, CreateInput{Slug: slug, Name: name, Plan: strings.TrimSpace(input.Plan)})
}

// Get returns a tenant by id regardless of its active flag.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (tenant.Tenant, error) {
	return s.repo.Get(ctx, id)
}

// Update modifies mutable fields and evicts the tenant from the directory
// cache, so a deactivation applies to the next request on this process.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (tenant.Tenant, error) {
	if input.Name == nil && input.Plan == nil && input.Active == nil {
		return tenant.Tenant{}, &ValidationError{Fields: FieldErrors{"payload": {"at least one field must be provided"}}}
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return tenant.Tenant{}, &ValidationError{Fields: FieldErrors{"name": {"name cannot be empty"}}}
	}

	updated, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return tenant.Tenant{}, fmt.Errorf("update tenant %s: %w", id, err)
	}

	s.directory.Invalidate(ctx, updated.Slug)
	return updated, nil
}

// Deactivate is Update with Active=false.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (tenant.Tenant, error) {
	inactive := false
	return s.Update(ctx, id, UpdateInput{Active: &inactive})
}
