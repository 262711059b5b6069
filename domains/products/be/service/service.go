package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/domains/products/be/repo"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/requesttrace"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
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

// Domain sentinel errors.
var (
	ErrNotFound = errors.New("product not found")
	ErrConflict = errors.New("product sku already exists")
)

const (
	maxSKULength  = 64
	maxNameLength = 200
	// Keeps line subtotals well inside int64 at the order line and quantity caps.
	maxPriceCents int64 = 10_000_000_000
)

// Product is the catalog view returned to the POS. Fragments hold what
// extensions contributed to the product card.
type Product struct {
	ID         uuid.UUID
	SKU        string
	Name       string
	PriceCents int64
	Stock      int
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Fragments  []hooks.Fragment
}

// ListOptions controls filtering and pagination.
type ListOptions struct {
	Page       int
	PageSize   int
	Search     *string
	ActiveOnly bool
}

// ListResult wraps a page of products with pagination metadata.
type ListResult struct {
	Products   []Product
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// CreateInput represents the payload required to add a product.
type CreateInput struct {
	SKU        string
	Name       string
	PriceCents int64
	Stock      int
}

// UpdateInput holds editable fields; nil leaves a field unchanged.
type UpdateInput struct {
	Name       *string
	PriceCents *int64
	Stock      *int
	Active     *bool
}

// TenantSource yields the request's tenant. tenant.Provider satisfies it.
type TenantSource interface {
	RequireTenant(ctx context.Context) (tenant.Tenant, error)
}

// Service defines the catalog operations.
type Service interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	Create(ctx context.Context, input CreateInput) (Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Product, error)
}

type service struct {
	repo    repo.Repository
	tenants TenantSource
	hooks   *hooks.Registry
	logger  *zap.Logger
}

// New constructs a products Service.
func New(r repo.Repository, tenants TenantSource, registry *hooks.Registry, logger *zap.Logger) Service {
	if r == nil {
		panic("products repository is required")
	}
	if tenants == nil {
		panic("tenant source is required")
	}
	if registry == nil {
		panic("hook registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: r, tenants: tenants, hooks: registry, logger: logger}
}

func (s *service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return ListResult{}, err
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	params := persistence.ListProductsParams{Page: page, PageSize: pageSize, ActiveOnly: opts.ActiveOnly}
	if opts.Search != nil && strings.TrimSpace(*opts.Search) != "" {
		search := strings.TrimSpace(*opts.Search)
		params.Search = &search
	}

	result, err := s.repo.List(ctx, current.ID, params)
	if err != nil {
		return ListResult{}, err
	}

	hc := s.hookContext(ctx, current.ID)
	products := make([]Product, 0, len(result.Products))
	for _, record := range result.Products {
		p := mapProduct(record)
		fragments, _ := s.hooks.Render(ctx, hooks.POSRenderProductCard, hooks.Payload{Data: productEvent(record), Context: hc})
		p.Fragments = fragments
		products = append(products, p)
	}

	totalPages := 0
	if result.TotalItems > 0 {
		totalPages = (result.TotalItems + pageSize - 1) / pageSize
	}

	return ListResult{
		Products:   products,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: result.TotalItems,
		TotalPages: totalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	if id == uuid.Nil {
		return Product{}, ErrNotFound
	}

	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return Product{}, err
	}

	record, err := s.repo.Get(ctx, current.ID, id)
	if err != nil {
		return Product{}, mapPersistenceError(err)
	}
	return mapProduct(record), nil
}

// Create adds a product to the caller's catalog. Extensions are notified
// before and after the insert; their failures never block the write.
func (s *service) Create(ctx context.Context, input CreateInput) (Product, error) {
	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return Product{}, err
	}

	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)

	fieldErrors := FieldErrors{}
	switch {
	case sku == "":
		fieldErrors.add("sku", "sku is required")
	case len(sku) > maxSKULength:
		fieldErrors.add("sku", "sku is too long")
	}
	validateName(fieldErrors, name)
	validatePrice(fieldErrors, input.PriceCents)
	if input.Stock < 0 {
		fieldErrors.add("stock", "stock must not be negative")
	}
	if len(fieldErrors) > 0 {
		return Product{}, &ValidationError{Fields: fieldErrors}
	}

	id := uuid.New()
	hc := s.hookContext(ctx, current.ID)
	s.notify(ctx, hooks.ProductBeforeCreate, hooks.Payload{
		Data: hooks.ProductEvent{
			ProductID:  id,
			SKU:        sku,
			Name:       name,
			PriceCents: input.PriceCents,
			Stock:      input.Stock,
			Active:     true,
		},
		Context: hc,
	})

	record, err := s.repo.Create(ctx, current.ID, persistence.CreateProductParams{
		ID:         id,
		SKU:        sku,
		Name:       name,
		PriceCents: input.PriceCents,
		Stock:      input.Stock,
	})
	if err != nil {
		return Product{}, mapPersistenceError(err)
	}

	s.notify(ctx, hooks.ProductAfterCreate, hooks.Payload{Data: productEvent(record), Context: hc})
	return mapProduct(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Product, error) {
	if id == uuid.Nil {
		return Product{}, ErrNotFound
	}

	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return Product{}, err
	}

	fieldErrors := FieldErrors{}
	params := persistence.UpdateProductParams{Active: input.Active}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		validateName(fieldErrors, name)
		params.Name = &name
	}
	if input.PriceCents != nil {
		validatePrice(fieldErrors, *input.PriceCents)
		params.PriceCents = input.PriceCents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			fieldErrors.add("stock", "stock must not be negative")
		}
		params.Stock = input.Stock
	}
	if params.Name == nil && params.PriceCents == nil && params.Stock == nil && params.Active == nil {
		fieldErrors.add("body", "at least one field must be provided")
	}
	if len(fieldErrors) > 0 {
		return Product{}, &ValidationError{Fields: fieldErrors}
	}

	before, err := s.repo.Get(ctx, current.ID, id)
	if err != nil {
		return Product{}, mapPersistenceError(err)
	}

	hc := s.hookContext(ctx, current.ID)
	s.notify(ctx, hooks.ProductBeforeUpdate, hooks.Payload{Data: productEvent(applyUpdate(before, params)), Context: hc})

	record, err := s.repo.Update(ctx, current.ID, id, params)
	if err != nil {
		return Product{}, mapPersistenceError(err)
	}

	s.notify(ctx, hooks.ProductAfterUpdate, hooks.Payload{Data: productEvent(record), Context: hc})
	return mapProduct(record), nil
}

func (s *service) notify(ctx context.Context, name hooks.NotifyHook, p hooks.Payload) {
	res := s.hooks.Notify(ctx, name, p)
	if res.OK() {
		return
	}
	platformlogging.FromContextOr(ctx, s.logger).Warn("product hook reported failures",
		zap.String("hook", string(name)),
		zap.Int("failures", len(res.Failures())),
	)
}

// hookContext binds the acting user from the request trace to the tenant the
// provider resolved.
func (s *service) hookContext(ctx context.Context, tenantID uuid.UUID) hooks.Context {
	hc := requesttrace.FromContextOrAnonymous(ctx).HookContext()
	hc.TenantID = tenantID
	return hc
}

func applyUpdate(p persistence.Product, params persistence.UpdateProductParams) persistence.Product {
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.PriceCents != nil {
		p.PriceCents = *params.PriceCents
	}
	if params.Stock != nil {
		p.Stock = *params.Stock
	}
	if params.Active != nil {
		p.Active = *params.Active
	}
	return p
}

func validatePrice(fieldErrors FieldErrors, cents int64) {
	switch {
	case cents < 0:
		fieldErrors.add("priceCents", "priceCents must not be negative")
	case cents > maxPriceCents:
		fieldErrors.add("priceCents", fmt.Sprintf("priceCents must not exceed %d", maxPriceCents))
	}
}

func validateName(fieldErrors FieldErrors, name string) {
	switch {
	case name == "":
		fieldErrors.add("name", "name is required")
	case len(name) > maxNameLength:
		fieldErrors.add("name", "name is too long")
	}
}

func productEvent(record persistence.Product) hooks.ProductEvent {
	return hooks.ProductEvent{
		ProductID:  record.ID,
		SKU:        record.SKU,
		Name:       record.Name,
		PriceCents: record.PriceCents,
		Stock:      record.Stock,
		Active:     record.Active,
	}
}

func mapProduct(record persistence.Product) Product {
	return Product{
		ID:         record.ID,
		SKU:        record.SKU,
		Name:       record.Name,
		PriceCents: record.PriceCents,
		Stock:      record.Stock,
		Active:     record.Active,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrProductNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrProductConflict):
		return ErrConflict
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
