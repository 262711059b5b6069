package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ruidolp/newposter-sub002/domains/auth/be/service"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
)

type mockService struct {
	loginFn           func(ctx context.Context, creds service.Credentials) (service.Session, error)
	superadminLoginFn func(ctx context.Context, creds service.Credentials) (service.SuperadminSession, error)
}

func (m *mockService) Login(ctx context.Context, creds service.Credentials) (service.Session, error) {
	if m.loginFn == nil {
		panic("loginFn not configured")
	}
	return m.loginFn(ctx, creds)
}

func (m *mockService) SuperadminLogin(ctx context.Context, creds service.Credentials) (service.SuperadminSession, error) {
	if m.superadminLoginFn == nil {
		panic("superadminLoginFn not configured")
	}
	return m.superadminLoginFn(ctx, creds)
}

func newCodecs(t *testing.T) auth.Codecs {
	t.Helper()
	codecs, err := auth.NewCodecs(
		auth.CodecConfig{Secret: []byte(strings.Repeat("s", 32))},
		auth.CodecConfig{Secret: []byte(strings.Repeat("a", 32))},
	)
	require.NoError(t, err)
	return codecs
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	t.Parallel()

	principal := auth.TenantPrincipal{UserID: uuid.New(), TenantID: uuid.New(), TenantSlug: "acme", Role: auth.RoleAdmin}
	svc := &mockService{
		loginFn: func(ctx context.Context, creds service.Credentials) (service.Session, error) {
			require.Equal(t, "admin@acme.test", creds.Email)
			return service.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour), Principal: principal, Email: creds.Email}, nil
		},
	}
	h := New(svc, newCodecs(t), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"admin@acme.test","password":"pw"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := cookieNamed(rec, auth.DefaultSessionCookie)
	require.NotNil(t, cookie)
	require.Equal(t, "tok", cookie.Value)
	require.True(t, cookie.HttpOnly)

	var body sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, principal.UserID, body.User.ID)
	require.Equal(t, "acme", body.User.TenantSlug)
}

func TestLoginFailureIsGeneric(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		loginFn: func(context.Context, service.Credentials) (service.Session, error) {
			return service.Session{}, auth.ErrInvalidCredentials
		},
	}
	h := New(svc, newCodecs(t), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"x@acme.test","password":"pw"}`)))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body problem.Details
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, invalidCredentialsDetail, body.Detail)
	require.Nil(t, cookieNamed(rec, auth.DefaultSessionCookie))
}

func TestLogoutClearsCookies(t *testing.T) {
	t.Parallel()

	h := New(&mockService{}, newCodecs(t), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookie := cookieNamed(rec, auth.DefaultSessionCookie)
	require.NotNil(t, cookie)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)

	rec = httptest.NewRecorder()
	h.SuperadminLogout(rec, httptest.NewRequest(http.MethodPost, "/api/superadmin/logout", nil))
	require.NotNil(t, cookieNamed(rec, auth.DefaultSuperadminCookie))
}

func TestMeRequiresSession(t *testing.T) {
	t.Parallel()

	h := New(&mockService{}, newCodecs(t), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	principal := auth.TenantPrincipal{UserID: uuid.New(), TenantID: uuid.New(), TenantSlug: "acme", Role: auth.RoleStaff}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), principal))

	rec = httptest.NewRecorder()
	h.Me(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"role":"STAFF"`)
}

func TestSuperadminLoginSetsSuperadminCookie(t *testing.T) {
	t.Parallel()

	adminID := uuid.New()
	svc := &mockService{
		superadminLoginFn: func(context.Context, service.Credentials) (service.SuperadminSession, error) {
			return service.SuperadminSession{Token: "sa", ExpiresAt: time.Now().Add(time.Hour), Principal: auth.SuperadminPrincipal{AdminID: adminID}}, nil
		},
	}
	h := New(svc, newCodecs(t), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.SuperadminLogin(rec, httptest.NewRequest(http.MethodPost, "/api/superadmin/login", strings.NewReader(`{"email":"root@x.test","password":"pw"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, cookieNamed(rec, auth.DefaultSuperadminCookie))
	require.Nil(t, cookieNamed(rec, auth.DefaultSessionCookie))
}
