package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/domains/orders/be/repo"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
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
	ErrNotFound          = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrTotalUnavailable wraps every failure of the total calculation chain.
	ErrTotalUnavailable = errors.New("order total could not be calculated")
)

const (
	maxLines    = 100
	maxQuantity = 10000
)

// LineInput is one requested product and quantity.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput represents a checkout request.
type CreateInput struct {
	Lines []LineInput
}

// Order is a stored sale.
type Order struct {
	ID        uuid.UUID
	CreatedBy uuid.UUID
	Lines     []hooks.OrderLine
	Totals    hooks.OrderTotals
	CreatedAt time.Time
}

// TenantSource yields the request's tenant. tenant.Provider satisfies it.
type TenantSource interface {
	RequireTenant(ctx context.Context) (tenant.Tenant, error)
}

// Service defines the checkout operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Order, error)
	Get(ctx context.Context, id uuid.UUID) (Order, error)
}

type service struct {
	repo    repo.Repository
	tenants TenantSource
	hooks   *hooks.Registry
	logger  *zap.Logger
}

// New constructs an orders Service.
func New(r repo.Repository, tenants TenantSource, registry *hooks.Registry, logger *zap.Logger) Service {
	if r == nil {
		panic("orders repository is required")
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

// Create prices the requested lines from the catalog, lets extensions adjust
// the totals, and stores the order with its stock decrements. A failed total
// calculation stores nothing.
func (s *service) Create(ctx context.Context, input CreateInput) (Order, error) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return Order{}, auth.ErrUnauthenticated
	}

	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return Order{}, err
	}

	requested, err := mergeLines(input.Lines)
	if err != nil {
		return Order{}, err
	}

	ids := make([]uuid.UUID, 0, len(requested))
	for _, line := range requested {
		ids = append(ids, line.ProductID)
	}
	catalog, err := s.repo.Products(ctx, current.ID, ids)
	if err != nil {
		return Order{}, fmt.Errorf("load order products: %w", err)
	}

	fieldErrors := FieldErrors{}
	lines := make([]hooks.OrderLine, 0, len(requested))
	var subtotal int64
	for i, line := range requested {
		product, found := catalog[line.ProductID]
		if !found || !product.Active {
			fieldErrors.add(fmt.Sprintf("lines[%d].productId", i), "product is not available")
			continue
		}
		lines = append(lines, hooks.OrderLine{
			ProductID:      product.ID,
			SKU:            product.SKU,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
		})
		subtotal += product.PriceCents * int64(line.Quantity)
	}
	if len(fieldErrors) > 0 {
		return Order{}, &ValidationError{Fields: fieldErrors}
	}

	hc := requesttrace.FromContextOrAnonymous(ctx).HookContext()
	hc.TenantID = current.ID
	hc.UserID = uuid.NullUUID{UUID: session.UserID, Valid: true}

	initial := hooks.OrderTotals{SubtotalCents: subtotal, TotalCents: subtotal}
	event := hooks.OrderEvent{Lines: lines, Totals: initial}
	s.notify(ctx, hooks.OrderBeforeCreate, hooks.Payload{Data: event, Context: hc})

	totals, err := hooks.ReduceAs(ctx, s.hooks, hooks.OrderCalculateTotal, initial, hooks.Payload{Data: event, Context: hc})
	if err != nil {
		return Order{}, fmt.Errorf("%w: %w", ErrTotalUnavailable, err)
	}
	if err := checkTotals(totals); err != nil {
		return Order{}, fmt.Errorf("%w: %w", ErrTotalUnavailable, err)
	}

	stored, err := s.repo.Create(ctx, persistence.Order{
		ID:            uuid.New(),
		TenantID:      current.ID,
		CreatedBy:     session.UserID,
		Lines:         toPersistenceLines(lines),
		SubtotalCents: totals.SubtotalCents,
		DiscountCents: totals.DiscountCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrInsufficientStock) {
			return Order{}, fmt.Errorf("%w: %w", ErrInsufficientStock, err)
		}
		return Order{}, fmt.Errorf("store order: %w", err)
	}

	order := mapOrder(stored)
	event.OrderID = order.ID
	event.Totals = order.Totals
	s.notify(ctx, hooks.OrderAfterCreate, hooks.Payload{Data: event, Context: hc})
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	if id == uuid.Nil {
		return Order{}, ErrNotFound
	}

	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return Order{}, err
	}

	stored, err := s.repo.Get(ctx, current.ID, id)
	if err != nil {
		if errors.Is(err, persistence.ErrOrderNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return mapOrder(stored), nil
}

func (s *service) notify(ctx context.Context, name hooks.NotifyHook, p hooks.Payload) {
	res := s.hooks.Notify(ctx, name, p)
	if res.OK() {
		return
	}
	platformlogging.FromContextOr(ctx, s.logger).Warn("order hook reported failures",
		zap.String("hook", string(name)),
		zap.Int("failures", len(res.Failures())),
	)
}

// mergeLines validates the request and folds repeated products into one line,
// keeping first-seen order.
func mergeLines(in []LineInput) ([]LineInput, error) {
	fieldErrors := FieldErrors{}
	switch {
	case len(in) == 0:
		fieldErrors.add("lines", "at least one line is required")
	case len(in) > maxLines:
		fieldErrors.add("lines", fmt.Sprintf("at most %d lines are allowed", maxLines))
	}

	merged := make([]LineInput, 0, len(in))
	index := make(map[uuid.UUID]int, len(in))
	firstSeen := make([]int, 0, len(in))
	for i, line := range in {
		if line.ProductID == uuid.Nil {
			fieldErrors.add(fmt.Sprintf("lines[%d].productId", i), "productId is required")
			continue
		}
		if line.Quantity < 1 || line.Quantity > maxQuantity {
			fieldErrors.add(fmt.Sprintf("lines[%d].quantity", i), fmt.Sprintf("quantity must be between 1 and %d", maxQuantity))
			continue
		}
		if at, seen := index[line.ProductID]; seen {
			merged[at].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
		firstSeen = append(firstSeen, i)
	}
	for at, line := range merged {
		if line.Quantity > maxQuantity {
			fieldErrors.add(fmt.Sprintf("lines[%d].quantity", firstSeen[at]),
				fmt.Sprintf("combined quantity for this product must not exceed %d", maxQuantity))
		}
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}
	return merged, nil
}

func checkTotals(t hooks.OrderTotals) error {
	if t.SubtotalCents < 0 || t.DiscountCents < 0 || t.TaxCents < 0 || t.TotalCents < 0 {
		return errors.New("totals must not be negative")
	}
	if t.TotalCents != t.SubtotalCents-t.DiscountCents+t.TaxCents {
		return fmt.Errorf("total %d does not match subtotal %d - discount %d + tax %d",
			t.TotalCents, t.SubtotalCents, t.DiscountCents, t.TaxCents)
	}
	return nil
}

func toPersistenceLines(lines []hooks.OrderLine) []persistence.OrderLine {
	out := make([]persistence.OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, persistence.OrderLine(l))
	}
	return out
}

func mapOrder(o persistence.Order) Order {
	lines := make([]hooks.OrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, hooks.OrderLine(l))
	}
	return Order{
		ID:        o.ID,
		CreatedBy: o.CreatedBy,
		Lines:     lines,
		Totals: hooks.OrderTotals{
			SubtotalCents: o.SubtotalCents,
			DiscountCents: o.DiscountCents,
			TaxCents:      o.TaxCents,
			TotalCents:    o.TotalCents,
		},
		CreatedAt: o.CreatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
