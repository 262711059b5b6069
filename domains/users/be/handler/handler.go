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

	"github.com/ruidolp/newposter-sub002/domains/users/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

type operation string

const (
	listOperation   operation = "usersList"
	getOperation    operation = "usersGet"
	meOperation     operation = "usersMe"
	createOperation operation = "usersCreate"
)

// Handler exposes the users service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("users service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      auth.Role `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type listResponse struct {
	Items      []userResponse `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalItems int            `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
}

type createRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// List serves GET /api/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.List(r.Context(), buildListOptions(r))
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items := make([]userResponse, 0, len(result.Users))
	for _, u := range result.Users {
		items = append(items, toResponse(u))
	}

	problem.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// Get serves GET /api/users/{userId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, getOperation)
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toResponse(user))
}

// Me serves GET /api/users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context())
	if err != nil {
		h.writeError(w, r, err, meOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, toResponse(user))
}

// Create serves POST /api/users.
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

	w.Header().Set("Location", fmt.Sprintf("/api/users/%s", created.ID))
	problem.WriteJSON(w, http.StatusCreated, toResponse(created))
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
	if v := q.Get("email"); v != "" {
		opts.Email = &v
	}
	if v := q.Get("role"); v != "" {
		opts.Role = &v
	}
	if v := q.Get("sort"); v != "" {
		opts.Sort = &v
	}
	return opts
}

func toResponse(u service.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	problem.Write(w, h.problemForError(r.Context(), err, op))
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) problem.Details {
	status, title, detail, problemType, fields := classifyError(err)

	logger := h.loggerFrom(ctx)
	fieldsForLog := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
		zap.Error(err),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("users operation failed", fieldsForLog...)
	case status == http.StatusNotFound:
		logger.Info("users resource not found", fieldsForLog...)
	default:
		logger.Warn("users request rejected", fieldsForLog...)
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
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden", "insufficient permissions", problem.TypeForbidden, nil
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, "Resource not found", "tenant not found", problem.TypeNotFound, nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Resource not found", "user not found", problem.TypeNotFound, nil
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "Conflict", "user conflict", problem.TypeConflict, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", problem.TypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
