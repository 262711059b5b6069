package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/domains/auth/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

type operation string

const (
	loginOperation           operation = "authLogin"
	superadminLoginOperation operation = "superadminLogin"
	meOperation              operation = "authMe"
)

// invalidCredentialsDetail is the only message a failed login ever produces.
const invalidCredentialsDetail = "invalid email or password"

// Handler serves login, logout and identity endpoints for both planes.
type Handler struct {
	svc    service.Service
	codecs auth.Codecs
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, codecs auth.Codecs, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("auth service is required")
	}
	if codecs.Session == nil || codecs.Superadmin == nil {
		panic("token codecs are required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, codecs: codecs, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      meBody    `json:"user"`
}

type meBody struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"fullName,omitempty"`
	Role       auth.Role `json:"role"`
	TenantID   uuid.UUID `json:"tenantId"`
	TenantSlug string    `json:"tenantSlug"`
}

type superadminSessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	AdminID   uuid.UUID `json:"adminId"`
	Email     string    `json:"email"`
}

// Login serves POST /api/auth/login on a tenant-bound route.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := problem.DecodeJSON(w, r, &body); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	session, err := h.svc.Login(r.Context(), service.Credentials(body))
	if err != nil {
		h.writeError(w, r, err, loginOperation)
		return
	}

	http.SetCookie(w, h.codecs.Session.Cookie(session.Token, session.ExpiresAt))
	problem.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User: meBody{
			ID:         session.Principal.UserID,
			Email:      session.Email,
			FullName:   session.FullName,
			Role:       session.Principal.Role,
			TenantID:   session.Principal.TenantID,
			TenantSlug: session.Principal.TenantSlug,
		},
	})
}

// Logout serves POST /api/auth/logout. It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.codecs.Session.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

// Me serves GET /api/auth/me behind RequireRole.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthenticated, meOperation)
		return
	}
	problem.WriteJSON(w, http.StatusOK, meBody{
		ID:         session.UserID,
		Role:       session.Role,
		TenantID:   session.TenantID,
		TenantSlug: session.TenantSlug,
	})
}

// SuperadminLogin serves POST /api/superadmin/login.
func (h *Handler) SuperadminLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := problem.DecodeJSON(w, r, &body); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	session, err := h.svc.SuperadminLogin(r.Context(), service.Credentials(body))
	if err != nil {
		h.writeError(w, r, err, superadminLoginOperation)
		return
	}

	http.SetCookie(w, h.codecs.Superadmin.Cookie(session.Token, session.ExpiresAt))
	problem.WriteJSON(w, http.StatusOK, superadminSessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		AdminID:   session.Principal.AdminID,
		Email:     session.Email,
	})
}

// SuperadminLogout serves POST /api/superadmin/logout.
func (h *Handler) SuperadminLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.codecs.Superadmin.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	status, title, detail, problemType := classifyError(err)

	logger := platformlogging.FromContextOr(r.Context(), h.logger)
	fields := []zap.Field{zap.String("operation", string(op)), zap.Int("status", status)}
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("auth operation failed", append(fields, zap.Error(err))...)
	case errors.Is(err, auth.ErrInvalidCredentials):
		// The reason stays out of the log as well as the response.
		logger.Info("login rejected", fields...)
	default:
		logger.Warn("auth request rejected", append(fields, zap.Error(err))...)
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="pos"`)
	}
	problem.Write(w, problem.New(status, title, detail, problemType, nil))
}

func classifyError(err error) (status int, title, detail, problemType string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Unauthenticated", invalidCredentialsDetail, problem.TypeUnauthenticated
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthenticated", "authentication required", problem.TypeUnauthenticated
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, "Resource not found", "tenant not found", problem.TypeNotFound
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", problem.TypeInternal
	}
}

