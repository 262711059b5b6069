package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/domains/tenants/be/service"
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// Handler wires the tenants service to HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type publicTenant struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type tenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type listResponse struct {
	Items      []tenantResponse `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalItems int              `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
}

type createRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	Plan string `json:"plan"`
}

type updateRequest struct {
	Name   *string `json:"name"`
	Plan   *string `json:"plan"`
	Active *bool   `json:"active"`
}

// GetPublic serves GET /api/tenant/{slug}.
func (h *Handler) GetPublic(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetPublic(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	problem.WriteJSON(w, http.StatusOK, publicTenant{Slug: t.Slug, Name: t.Name})
}

// List serves GET /api/superadmin/tenants.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.List(r.Context(), buildListOptions(r))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	items := make([]tenantResponse, 0, len(result.Tenants))
	for _, t := range result.Tenants {
		items = append(items, toResponse(t))
	}
	problem.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// Create serves POST /api/superadmin/tenants.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := problem.DecodeJSON(w, r, &body); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput(body))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/superadmin/tenants/%s", created.ID))
	problem.WriteJSON(w, http.StatusCreated, toResponse(created))
}

// Update serves PATCH /api/superadmin/tenants/{tenantId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantId"))
	if err != nil {
		h.writeError(r.Context(), w, service.ErrNotFound)
		return
	}

	var body updateRequest
	if err := problem.DecodeJSON(w, r, &body); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	updated, err := h.svc.Update(r.Context(), id, service.UpdateInput(body))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	platformlogging.FromContextOr(r.Context(), h.logger).Info("tenant updated",
		zap.String("tenant_id", updated.ID.String()),
		zap.Bool("active", updated.Active),
	)
	problem.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func buildListOptions(r *http.Request) service.ListOptions {
	q := r.URL.Query()
	opts := service.ListOptions{}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		opts.Page = v
	}
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil {
		opts.PageSize = v
	}
	if v, err := strconv.ParseBool(q.Get("active")); err == nil {
		opts.Active = &v
	}
	return opts
}

func toResponse(t tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID,
		Slug:      t.Slug,
		Name:      t.Name,
		Plan:      t.Plan,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		validationErr *service.ValidationError
		details       problem.Details
	)
	switch {
	case errors.As(err, &validationErr):
		details = problem.New(http.StatusBadRequest, "Validation failed", "one or more fields are invalid", problem.TypeValidation, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		details = problem.New(http.StatusNotFound, "Resource not found", "tenant not found", problem.TypeNotFound, nil)
	case errors.Is(err, service.ErrConflictSlug):
		details = problem.New(http.StatusConflict, "Conflict", "tenant slug already exists", problem.TypeConflict, nil)
	default:
		platformlogging.FromContextOr(ctx, h.logger).Error("tenants operation failed", zap.Error(err))
		details = problem.New(http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", problem.TypeInternal, nil)
	}
	problem.Write(w, details)
}
