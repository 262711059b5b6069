package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/problem"
)

// Security scheme names used by the API contract.
const (
	SchemeBearer           = "bearerAuth"
	SchemeSessionCookie    = "sessionCookie"
	SchemeSuperadminCookie = "superadminCookie"
)

// SpecValidatorConfig adapts the contract to the running configuration.
type SpecValidatorConfig struct {
	SessionCookie    string
	SuperadminCookie string
	Logger           *zap.Logger
}

// SpecValidator rejects requests that do not match the OpenAPI contract
// before any handler runs. It only checks that credentials are present; the
// auth guard still verifies them.
func SpecValidator(spec *openapi3.T, cfg SpecValidatorConfig) func(http.Handler) http.Handler {
	if spec == nil {
		panic("spec validator: spec is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	renameCookieScheme(spec, SchemeSessionCookie, cfg.SessionCookie)
	renameCookieScheme(spec, SchemeSuperadminCookie, cfg.SuperadminCookie)

	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: ValidateAuthenticationViaSwagger,
		},
		ErrorHandler: contractErrorHandler(logger),
	})
}

// ValidateAuthenticationViaSwagger accepts a security alternative when its
// credential is present: a bearer Authorization header or the named cookie.
func ValidateAuthenticationViaSwagger(_ context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil || input.RequestValidationInput == nil || input.SecurityScheme == nil {
		return errors.New("no security scheme in validation input")
	}
	r := input.RequestValidationInput.Request
	if r == nil {
		return errors.New("no request in validation input")
	}

	scheme := input.SecurityScheme
	switch {
	case scheme.Type == "http" && strings.EqualFold(scheme.Scheme, "bearer"):
		authz := r.Header.Get("Authorization")
		const prefix = "bearer "
		if len(authz) <= len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
			return errors.New("missing or invalid Authorization header")
		}
	case scheme.Type == "apiKey" && scheme.In == "cookie":
		c, err := r.Cookie(scheme.Name)
		if err != nil || c.Value == "" {
			return fmt.Errorf("missing %s cookie", scheme.Name)
		}
	default:
		return fmt.Errorf("unsupported security scheme %q", input.SecuritySchemeName)
	}
	return nil
}

func renameCookieScheme(spec *openapi3.T, name, cookie string) {
	if cookie == "" {
		return
	}
	if ref, ok := spec.Components.SecuritySchemes[name]; ok && ref.Value != nil {
		ref.Value.Name = cookie
	}
}

// contractErrorHandler maps validator rejections onto problem details.
// Authentication messages are dropped so they never hint at token state.
func contractErrorHandler(logger *zap.Logger) oapimiddleware.ErrorHandler {
	return func(w http.ResponseWriter, message string, statusCode int) {
		logger.Debug("request rejected by api contract", zap.Int("status", statusCode), zap.String("reason", message))

		switch statusCode {
		case http.StatusUnauthorized:
			problem.Unauthenticated(w)
		case http.StatusNotFound:
			problem.NotFound(w, "resource not found")
		case http.StatusBadRequest:
			problem.Write(w, problem.New(http.StatusBadRequest, "Validation failed", message, problem.TypeValidation, nil))
		default:
			problem.Write(w, problem.New(statusCode, http.StatusText(statusCode), "request rejected", "", nil))
		}
	}
}
