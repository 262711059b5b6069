package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ruidolp/newposter-sub002/domains/orders/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
)

type mockService struct {
	createFn func(ctx context.Context, input service.CreateInput) (service.Order, error)
	getFn    func(ctx context.Context, id uuid.UUID) (service.Order, error)
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (service.Order, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, input)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Order, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/orders", h.Create)
	r.Get("/api/orders/{orderId}", h.Get)
	return r
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	orderID := uuid.New()
	svc := &mockService{
		createFn: func(_ context.Context, input service.CreateInput) (service.Order, error) {
			require.Equal(t, []service.LineInput{{ProductID: productID, Quantity: 2}}, input.Lines)
			return service.Order{
				ID:     orderID,
				Lines:  []hooks.OrderLine{{ProductID: productID, SKU: "COF", Quantity: 2, UnitPriceCents: 350}},
				Totals: hooks.OrderTotals{SubtotalCents: 700, TaxCents: 56, TotalCents: 756},
			}, nil
		},
	}

	body := fmt.Sprintf(`{"lines":[{"productId":%q,"quantity":2}]}`, productID)
	rec := httptest.NewRecorder()
	router(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/orders/"+orderID.String(), rec.Header().Get("Location"))

	var got orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, int64(756), got.Totals.TotalCents)
}

func TestCreateOrderErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{
			name:   "reduction aborted",
			err:    fmt.Errorf("%w: %w", service.ErrTotalUnavailable, &hooks.ReductionError{Hook: string(hooks.OrderCalculateTotal), ExtensionID: "sales-tax", Err: errors.New("rate missing")}),
			status: http.StatusUnprocessableEntity,
			detail: "order total could not be calculated",
		},
		{
			name:   "insufficient stock",
			err:    service.ErrInsufficientStock,
			status: http.StatusConflict,
			detail: "not enough stock for one or more lines",
		},
		{
			name:   "validation",
			err:    &service.ValidationError{Fields: service.FieldErrors{"lines": {"at least one line is required"}}},
			status: http.StatusBadRequest,
			detail: "one or more fields are invalid",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{
				createFn: func(context.Context, service.CreateInput) (service.Order, error) {
					return service.Order{}, tc.err
				},
			}
			rec := httptest.NewRecorder()
			router(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"lines":[]}`)))

			require.Equal(t, tc.status, rec.Code)
			var details problem.Details
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
			require.Equal(t, tc.detail, details.Detail)
			require.NotContains(t, rec.Body.String(), "sales-tax")
		})
	}
}

func TestGetOrderNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		getFn: func(context.Context, uuid.UUID) (service.Order, error) {
			return service.Order{}, service.ErrNotFound
		},
	}
	rec := httptest.NewRecorder()
	router(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
