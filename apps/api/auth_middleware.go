package main

import (
	"net/http"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	platformmiddleware "github.com/ruidolp/newposter-sub002/platform/go/middleware"
)

type middlewares = []func(http.Handler) http.Handler

// gates builds the per-route middleware chains. Every chain stamps the request
// trace after authentication so the principal is recorded.
type gates struct {
	guard *auth.Guard
}

func (g gates) role(min auth.Role) middlewares {
	return middlewares{auth.RequireRole(g.guard, min), platformmiddleware.RequestTrace}
}

func (g gates) superadmin() middlewares {
	return middlewares{auth.RequireSuperadmin(g.guard), platformmiddleware.RequestTrace}
}

func (g gates) public() middlewares {
	return middlewares{platformmiddleware.RequestTrace}
}
