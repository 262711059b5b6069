package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/requesttrace"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

type mockRepository struct {
	listFn   func(ctx context.Context, tenantID uuid.UUID, params persistence.ListProductsParams) (persistence.ListProductsResult, error)
	getFn    func(ctx context.Context, tenantID, id uuid.UUID) (persistence.Product, error)
	createFn func(ctx context.Context, tenantID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error)
	updateFn func(ctx context.Context, tenantID, id uuid.UUID, params persistence.UpdateProductParams) (persistence.Product, error)
}

func (m *mockRepository) List(ctx context.Context, tenantID uuid.UUID, params persistence.ListProductsParams) (persistence.ListProductsResult, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, tenantID, params)
}

func (m *mockRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (persistence.Product, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, tenantID, id)
}

func (m *mockRepository) Create(ctx context.Context, tenantID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, tenantID, params)
}

func (m *mockRepository) Update(ctx context.Context, tenantID, id uuid.UUID, params persistence.UpdateProductParams) (persistence.Product, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, tenantID, id, params)
}

type staticTenant struct {
	t   tenant.Tenant
	err error
}

func (s staticTenant) RequireTenant(context.Context) (tenant.Tenant, error) {
	return s.t, s.err
}

type observed struct {
	hook    string
	payload hooks.Payload
}

type hookRecorder struct {
	mu    sync.Mutex
	calls []observed
}

func (h *hookRecorder) on(name hooks.NotifyHook, err error) hooks.Binding {
	return hooks.OnNotify(name, func(_ context.Context, p hooks.Payload) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.calls = append(h.calls, observed{hook: string(name), payload: p})
		return err
	})
}

func (h *hookRecorder) hooks() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.calls))
	for _, c := range h.calls {
		names = append(names, c.hook)
	}
	return names
}

func newRegistry(t *testing.T, exts ...hooks.Extension) *hooks.Registry {
	t.Helper()
	reg := hooks.NewRegistry(hooks.WithLogger(zaptest.NewLogger(t)))
	for _, ext := range exts {
		require.NoError(t, reg.Register(ext))
	}
	reg.Seal()
	return reg
}

func cashierCtx(tenantID, userID uuid.UUID) context.Context {
	return requesttrace.IntoContext(context.Background(), requesttrace.AuditInfo{
		ActorKind: requesttrace.ActorKindUser,
		ActorID:   uuid.NullUUID{UUID: userID, Valid: true},
		TenantID:  uuid.NullUUID{UUID: tenantID, Valid: true},
	})
}

func TestCreateNotifiesAroundInsert(t *testing.T) {
	t.Parallel()

	acme := tenant.Tenant{ID: uuid.New(), Slug: "acme", Active: true}
	userID := uuid.New()
	rec := &hookRecorder{}
	failing := errors.New("audit sink down")
	reg := newRegistry(t, hooks.Extension{ID: "observer", Enabled: true, Hooks: []hooks.Binding{
		rec.on(hooks.ProductBeforeCreate, nil),
		rec.on(hooks.ProductAfterCreate, failing),
	}})

	var inserted persistence.CreateProductParams
	repo := &mockRepository{
		createFn: func(_ context.Context, tenantID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
			require.Equal(t, acme.ID, tenantID)
			require.Equal(t, []string{string(hooks.ProductBeforeCreate)}, rec.hooks())
			inserted = params
			return persistence.Product{ID: params.ID, TenantID: tenantID, SKU: params.SKU, Name: params.Name, PriceCents: params.PriceCents, Stock: params.Stock, Active: true}, nil
		},
	}
	svc := New(repo, staticTenant{t: acme}, reg, zaptest.NewLogger(t))

	created, err := svc.Create(cashierCtx(acme.ID, userID), CreateInput{SKU: " COF-1 ", Name: "Coffee", PriceCents: 350, Stock: 12})
	require.NoError(t, err)
	require.Equal(t, "COF-1", created.SKU)
	require.Equal(t, inserted.ID, created.ID)

	require.Equal(t, []string{string(hooks.ProductBeforeCreate), string(hooks.ProductAfterCreate)}, rec.hooks())
	for _, call := range rec.calls {
		require.Equal(t, acme.ID, call.payload.Context.TenantID)
		require.Equal(t, uuid.NullUUID{UUID: userID, Valid: true}, call.payload.Context.UserID)
		event, ok := call.payload.Data.(hooks.ProductEvent)
		require.True(t, ok)
		require.Equal(t, created.ID, event.ProductID)
		require.Equal(t, "COF-1", event.SKU)
	}
}

func TestCreateValidatesBeforeNotifying(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input CreateInput
		field string
	}{
		{name: "missing sku", input: CreateInput{Name: "Tea", PriceCents: 100}, field: "sku"},
		{name: "missing name", input: CreateInput{SKU: "TEA", PriceCents: 100}, field: "name"},
		{name: "negative price", input: CreateInput{SKU: "TEA", Name: "Tea", PriceCents: -1}, field: "priceCents"},
		{name: "price over the cap", input: CreateInput{SKU: "TEA", Name: "Tea", PriceCents: maxPriceCents + 1}, field: "priceCents"},
		{name: "negative stock", input: CreateInput{SKU: "TEA", Name: "Tea", Stock: -3}, field: "stock"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := &hookRecorder{}
			reg := newRegistry(t, hooks.Extension{ID: "observer", Enabled: true, Hooks: []hooks.Binding{
				rec.on(hooks.ProductBeforeCreate, nil),
			}})
			svc := New(&mockRepository{}, staticTenant{t: tenant.Tenant{ID: uuid.New()}}, reg, nil)

			_, err := svc.Create(context.Background(), tc.input)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Contains(t, validationErr.Fields, tc.field)
			require.Empty(t, rec.hooks())
		})
	}
}

func TestCreateMapsConflict(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		createFn: func(context.Context, uuid.UUID, persistence.CreateProductParams) (persistence.Product, error) {
			return persistence.Product{}, persistence.ErrProductConflict
		},
	}
	svc := New(repo, staticTenant{t: tenant.Tenant{ID: uuid.New()}}, newRegistry(t), nil)

	_, err := svc.Create(context.Background(), CreateInput{SKU: "TEA", Name: "Tea", PriceCents: 100})
	require.ErrorIs(t, err, ErrConflict)
}

func TestListAttachesProductCardFragments(t *testing.T) {
	t.Parallel()

	acme := tenant.Tenant{ID: uuid.New(), Slug: "acme"}
	low := persistence.Product{ID: uuid.New(), SKU: "LOW", Name: "Low", Stock: 1, Active: true}
	plenty := persistence.Product{ID: uuid.New(), SKU: "OK", Name: "Plenty", Stock: 50, Active: true}

	reg := newRegistry(t, hooks.Extension{ID: "badges", Enabled: true, Hooks: []hooks.Binding{
		hooks.OnRender(hooks.POSRenderProductCard, func(_ context.Context, p hooks.Payload) ([]hooks.Fragment, error) {
			event := p.Data.(hooks.ProductEvent)
			if event.Stock > 3 {
				return nil, nil
			}
			return []hooks.Fragment{{Kind: "badge", Label: "Low stock"}}, nil
		}),
	}})

	repo := &mockRepository{
		listFn: func(_ context.Context, tenantID uuid.UUID, params persistence.ListProductsParams) (persistence.ListProductsResult, error) {
			require.Equal(t, acme.ID, tenantID)
			require.Equal(t, 200, params.PageSize)
			require.True(t, params.ActiveOnly)
			require.Equal(t, "cof", *params.Search)
			return persistence.ListProductsResult{Products: []persistence.Product{low, plenty}, TotalItems: 2}, nil
		},
	}
	svc := New(repo, staticTenant{t: acme}, reg, nil)

	search := " cof "
	result, err := svc.List(context.Background(), ListOptions{PageSize: 500, Search: &search, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Products, 2)
	require.Equal(t, 1, result.TotalPages)

	require.Len(t, result.Products[0].Fragments, 1)
	require.Equal(t, "badges", result.Products[0].Fragments[0].ExtensionID)
	require.Empty(t, result.Products[1].Fragments)
}

func TestUpdateNotifiesWithProposedState(t *testing.T) {
	t.Parallel()

	acme := tenant.Tenant{ID: uuid.New()}
	existing := persistence.Product{ID: uuid.New(), TenantID: acme.ID, SKU: "TEA", Name: "Tea", PriceCents: 200, Stock: 4, Active: true}

	rec := &hookRecorder{}
	reg := newRegistry(t, hooks.Extension{ID: "observer", Enabled: true, Hooks: []hooks.Binding{
		rec.on(hooks.ProductBeforeUpdate, nil),
		rec.on(hooks.ProductAfterUpdate, nil),
	}})

	repo := &mockRepository{
		getFn: func(_ context.Context, _, id uuid.UUID) (persistence.Product, error) {
			require.Equal(t, existing.ID, id)
			return existing, nil
		},
		updateFn: func(_ context.Context, _, _ uuid.UUID, params persistence.UpdateProductParams) (persistence.Product, error) {
			require.Nil(t, params.Name)
			updated := existing
			updated.PriceCents = *params.PriceCents
			return updated, nil
		},
	}
	svc := New(repo, staticTenant{t: acme}, reg, nil)

	price := int64(250)
	updated, err := svc.Update(context.Background(), existing.ID, UpdateInput{PriceCents: &price})
	require.NoError(t, err)
	require.Equal(t, int64(250), updated.PriceCents)

	require.Equal(t, []string{string(hooks.ProductBeforeUpdate), string(hooks.ProductAfterUpdate)}, rec.hooks())
	before := rec.calls[0].payload.Data.(hooks.ProductEvent)
	require.Equal(t, int64(250), before.PriceCents)
	require.Equal(t, "Tea", before.Name)
}

func TestUpdateErrors(t *testing.T) {
	t.Parallel()

	acme := staticTenant{t: tenant.Tenant{ID: uuid.New()}}

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		svc := New(&mockRepository{}, acme, newRegistry(t), nil)
		_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("price over the cap", func(t *testing.T) {
		t.Parallel()
		svc := New(&mockRepository{}, acme, newRegistry(t), nil)
		price := maxPriceCents + 1
		_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{PriceCents: &price})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Contains(t, validationErr.Fields, "priceCents")
	})

	t.Run("unknown product", func(t *testing.T) {
		t.Parallel()
		repo := &mockRepository{
			getFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.Product, error) {
				return persistence.Product{}, persistence.ErrProductNotFound
			},
		}
		svc := New(repo, acme, newRegistry(t), nil)
		active := false
		_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Active: &active})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing tenant", func(t *testing.T) {
		t.Parallel()
		svc := New(&mockRepository{}, staticTenant{err: tenant.ErrTenantNotFound}, newRegistry(t), nil)
		active := false
		_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Active: &active})
		require.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})
}
