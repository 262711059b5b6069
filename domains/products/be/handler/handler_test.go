package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ruidolp/newposter-sub002/domains/products/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
)

type mockService struct {
	listFn   func(ctx context.Context, opts service.ListOptions) (service.ListResult, error)
	getFn    func(ctx context.Context, id uuid.UUID) (service.Product, error)
	createFn func(ctx context.Context, input service.CreateInput) (service.Product, error)
	updateFn func(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Product, error)
}

func (m *mockService) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, opts)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Product, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (service.Product, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, input)
}

func (m *mockService) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Product, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, id, input)
}

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/products", h.List)
	r.Post("/api/products", h.Create)
	r.Get("/api/products/{productId}", h.Get)
	r.Patch("/api/products/{productId}", h.Update)
	return r
}

func TestListRendersFragments(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		listFn: func(_ context.Context, opts service.ListOptions) (service.ListResult, error) {
			require.Equal(t, 2, opts.Page)
			require.Equal(t, "latte", *opts.Search)
			require.True(t, opts.ActiveOnly)
			return service.ListResult{
				Products: []service.Product{{
					ID:        uuid.New(),
					SKU:       "LAT",
					Name:      "Latte",
					Stock:     2,
					Active:    true,
					Fragments: []hooks.Fragment{{ExtensionID: "low-stock-badge", Kind: "badge", Label: "Low stock"}},
				}},
				Page:       2,
				PageSize:   50,
				TotalItems: 51,
				TotalPages: 2,
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	router(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?page=2&q=latte&activeOnly=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, "low-stock-badge", body.Items[0].Fragments[0].ExtensionID)
	require.Equal(t, 51, body.TotalItems)
}

func TestListRejectsMalformedQuery(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	router(New(&mockService{}, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?page=two&activeOnly=maybe", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Errors, "page")
	require.Contains(t, body.Errors, "activeOnly")
}

func TestCreateReturnsLocation(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{
		createFn: func(_ context.Context, input service.CreateInput) (service.Product, error) {
			require.Equal(t, "TEA", input.SKU)
			require.Equal(t, int64(275), input.PriceCents)
			return service.Product{ID: id, SKU: input.SKU, Name: input.Name, PriceCents: input.PriceCents, Active: true}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"sku":"TEA","name":"Tea","priceCents":275,"stock":3}`))
	rec := httptest.NewRecorder()
	router(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/products/"+id.String(), rec.Header().Get("Location"))
}

func TestUpdatePassesPartialFields(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{
		updateFn: func(_ context.Context, got uuid.UUID, input service.UpdateInput) (service.Product, error) {
			require.Equal(t, id, got)
			require.Nil(t, input.Name)
			require.NotNil(t, input.Active)
			require.False(t, *input.Active)
			return service.Product{ID: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/products/"+id.String(), strings.NewReader(`{"active":false}`))
	rec := httptest.NewRecorder()
	router(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{name: "validation", err: &service.ValidationError{Fields: service.FieldErrors{"sku": {"sku is required"}}}, status: http.StatusBadRequest, typ: problem.TypeValidation},
		{name: "not found", err: service.ErrNotFound, status: http.StatusNotFound, typ: problem.TypeNotFound},
		{name: "conflict", err: service.ErrConflict, status: http.StatusConflict, typ: problem.TypeConflict},
		{name: "unexpected", err: context.DeadlineExceeded, status: http.StatusInternalServerError, typ: problem.TypeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{
				createFn: func(context.Context, service.CreateInput) (service.Product, error) {
					return service.Product{}, tc.err
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"sku":"X","name":"Y"}`))
			rec := httptest.NewRecorder()
			router(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			var details problem.Details
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
			require.Equal(t, tc.typ, details.Type)
		})
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	router(New(&mockService{}, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
