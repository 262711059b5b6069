package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/domains/products/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

type operation string

const (
	listOperation   operation = "productsList"
	getOperation    operation = "productsGet"
	createOperation operation = "productsCreate"
	updateOperation operation = "productsUpdate"
)

// Handler exposes the catalog over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("products service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type productResponse struct {
	ID         uuid.UUID        `json:"id"`
	SKU        string           `json:"sku"`
	Name       string           `json:"name"`
	PriceCents int64            `json:"priceCents"`
	Stock      int              `json:"stock"`
	Active     bool             `json:"active"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	Fragments  []hooks.Fragment `json:"fragments,omitempty"`
}

type listResponse struct {
	Items      []productResponse `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalItems int               `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
}

type createRequest struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Stock      int    `json:"stock"`
}

type updateRequest struct {
	Name       *string `json:"name"`
	PriceCents *int64  `json:"priceCents"`
	Stock      *int    `json:"stock"`
	Active     *bool   `json:"active"`
}

// List serves GET /api/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := buildListOptions(r)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items := make([]productResponse, 0, len(result.Products))
	for _, p := range result.Products {
		items = append(items, toResponse(p))
	}

	problem.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// Get serves GET /api/products/{productId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, getOperation)
		return
	}

	product, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toResponse(product))
}

// Create serves POST /api/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := problem.DecodeJSON(w, r, &body); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput(body))
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/products/%s", created.ID))
	problem.WriteJSON(w, http.StatusCreated, toResponse(created))
}

// Update serves PATCH /api/products/{productId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, updateOperation)
		return
	}

	var body updateRequest
	if err := problem.DecodeJSON(w, r, &body); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	updated, err := h.svc.Update(r.Context(), id, service.UpdateInput(body))
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toResponse(updated))
}

type listParams struct {
	Page       *int
	PageSize   *int
	Q          *string
	ActiveOnly *bool
}

// buildListOptions binds the optional query parameters the way generated
// oapi-codegen servers do. Bind failures surface as field errors.
func buildListOptions(r *http.Request) (service.ListOptions, error) {
	var params listParams
	query := r.URL.Query()
	fieldErrors := service.FieldErrors{}
	bind := func(name string, dest any) {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			fieldErrors[name] = append(fieldErrors[name], fmt.Sprintf("invalid %s", name))
		}
	}
	bind("page", &params.Page)
	bind("pageSize", &params.PageSize)
	bind("q", &params.Q)
	bind("activeOnly", &params.ActiveOnly)
	if len(fieldErrors) > 0 {
		return service.ListOptions{}, &service.ValidationError{Fields: fieldErrors}
	}

	opts := service.ListOptions{}
	if params.Page != nil {
		opts.Page = *params.Page
	}
	if params.PageSize != nil {
		opts.PageSize = *params.PageSize
	}
	if params.Q != nil && *params.Q != "" {
		opts.Search = params.Q
	}
	if params.ActiveOnly != nil {
		opts.ActiveOnly = *params.ActiveOnly
	}
	return opts, nil
}

func toResponse(p service.Product) productResponse {
	return productResponse{
		ID:         p.ID,
		SKU:        p.SKU,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Stock:      p.Stock,
		Active:     p.Active,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		Fragments:  p.Fragments,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	problem.Write(w, h.problemForError(r.Context(), err, op))
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) problem.Details {
	status, title, detail, problemType, fields := classifyError(err)

	logger := platformlogging.FromContextOr(ctx, h.logger)
	fieldsForLog := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
		zap.Error(err),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("products operation failed", fieldsForLog...)
	case status == http.StatusNotFound:
		logger.Info("products resource not found", fieldsForLog...)
	default:
		logger.Warn("products request rejected", fieldsForLog...)
	}

	return problem.New(status, title, detail, problemType, fields)
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
		return http.StatusNotFound, "Resource not found", "product not found", problem.TypeNotFound, nil
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "Conflict", "a product with this sku already exists", problem.TypeConflict, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", problem.TypeInternal, nil
	}
}
