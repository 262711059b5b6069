package handler

import (
	"net/http"

	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
)

// Lister reports the registered extensions. *hooks.Registry satisfies it.
type Lister interface {
	Extensions() []hooks.Descriptor
}

// Handler exposes extension introspection.
type Handler struct {
	lister Lister
}

// New constructs a Handler instance.
func New(lister Lister) *Handler {
	if lister == nil {
		panic("extension lister is required")
	}
	return &Handler{lister: lister}
}

type listResponse struct {
	Items []hooks.Descriptor `json:"items"`
}

// List serves GET /api/extensions.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	problem.WriteJSON(w, http.StatusOK, listResponse{Items: h.lister.Extensions()})
}
