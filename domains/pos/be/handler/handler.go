package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
	"github.com/ruidolp/newposter-sub002/platform/go/requesttrace"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// Renderer collects presentation fragments. *hooks.Registry satisfies it.
type Renderer interface {
	Render(ctx context.Context, name hooks.RenderHook, p hooks.Payload) ([]hooks.Fragment, hooks.Result)
}

// TenantSource yields the request's tenant. tenant.Provider satisfies it.
type TenantSource interface {
	RequireTenant(ctx context.Context) (tenant.Tenant, error)
}

// Handler serves the POS screen's extension points.
type Handler struct {
	renderer Renderer
	tenants  TenantSource
	logger   *zap.Logger
}

// New constructs a Handler instance.
func New(renderer Renderer, tenants TenantSource, logger *zap.Logger) *Handler {
	if renderer == nil {
		panic("renderer is required")
	}
	if tenants == nil {
		panic("tenant source is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{renderer: renderer, tenants: tenants, logger: logger}
}

type actionsResponse struct {
	Items []hooks.Fragment `json:"items"`
}

// Actions serves GET /api/pos/actions. Failing extensions are left out of the
// response.
func (h *Handler) Actions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := platformlogging.FromContextOr(ctx, h.logger)

	current, err := h.tenants.RequireTenant(ctx)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			problem.NotFound(w, "tenant not found")
			return
		}
		logger.Error("pos actions tenant lookup failed", zap.Error(err))
		problem.Write(w, problem.New(http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", problem.TypeInternal, nil))
		return
	}

	hc := requesttrace.FromContextOrAnonymous(ctx).HookContext()
	hc.TenantID = current.ID
	if session, ok := auth.SessionFromContext(ctx); ok {
		hc.UserID.UUID, hc.UserID.Valid = session.UserID, true
	}

	fragments, res := h.renderer.Render(ctx, hooks.POSRenderActions, hooks.Payload{Context: hc})
	if failed := res.Failures(); len(failed) > 0 {
		logger.Warn("pos actions rendered partially", zap.Int("failures", len(failed)))
	}
	if fragments == nil {
		fragments = []hooks.Fragment{}
	}
	problem.WriteJSON(w, http.StatusOK, actionsResponse{Items: fragments})
}
