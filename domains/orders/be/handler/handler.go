package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/domains/orders/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

type operation string

const (
	createOperation operation = "ordersCreate"
	getOperation    operation = "ordersGet"
)

// Handler exposes checkout over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("orders service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type lineRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type createRequest struct {
	Lines []lineRequest `json:"lines"`
}

type orderResponse struct {
	ID        uuid.UUID         `json:"id"`
	CreatedBy uuid.UUID         `json:"createdBy"`
	Lines     []hooks.OrderLine `json:"lines"`
	Totals    hooks.OrderTotals `json:"totals"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Create serves POST /api/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := problem.DecodeJSON(w, r, &body); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	input := service.CreateInput{Lines: make([]service.LineInput, 0, len(body.Lines))}
	for _, l := range body.Lines {
		input.Lines = append(input.Lines, service.LineInput(l))
	}

	order, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/orders/%s", order.ID))
	problem.WriteJSON(w, http.StatusCreated, toResponse(order))
}

// Get serves GET /api/orders/{orderId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, getOperation)
		return
	}

	order, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toResponse(order))
}

func toResponse(o service.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		CreatedBy: o.CreatedBy,
		Lines:     o.Lines,
		Totals:    o.Totals,
		CreatedAt: o.CreatedAt,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	status, title, detail, problemType, fields := classifyError(err)

	logger := platformlogging.FromContextOr(r.Context(), h.logger)
	fieldsForLog := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
		zap.Error(err),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("orders operation failed", fieldsForLog...)
	case status == http.StatusNotFound:
		logger.Info("orders resource not found", fieldsForLog...)
	default:
		logger.Warn("orders request rejected", fieldsForLog...)
	}

	problem.Write(w, problem.New(status, title, detail, problemType, fields))
}

func classifyError(err error) (status int, title, detail, problemType string, fieldErrors service.FieldErrors) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "Validation failed", "one or more fields are invalid", problem.TypeValidation, validationErr.Fields
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthenticated", "authentication required", problem.TypeUnauthenticated, nil
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, "Resource not found", "tenant not found", problem.TypeNotFound, nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Resource not found", "order not found", problem.TypeNotFound, nil
	case errors.Is(err, service.ErrTotalUnavailable), errors.Is(err, hooks.ErrReductionAborted):
		return http.StatusUnprocessableEntity, "Unprocessable order", service.ErrTotalUnavailable.Error(), problem.TypeUnprocessable, nil
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict, "Conflict", "not enough stock for one or more lines", problem.TypeConflict, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", problem.TypeInternal, nil
	}
}
