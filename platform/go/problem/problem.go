// Package problem renders RFC 7807 problem+json responses shared by every HTTP handler.
package problem

import (
	"encoding/json"
	"net/http"
)

const contentType = "application/problem+json"

// Problem type URIs.
const (
	TypeValidation      = "https://newposter.dev/problems/validation-error"
	TypeUnauthenticated = "https://newposter.dev/problems/unauthenticated"
	TypeForbidden       = "https://newposter.dev/problems/forbidden"
	TypeNotFound        = "https://newposter.dev/problems/not-found"
	TypeConflict        = "https://newposter.dev/problems/conflict"
	TypeUnprocessable   = "https://newposter.dev/problems/unprocessable"
	TypeInternal        = "https://newposter.dev/problems/internal-error"
)

// Details is the problem+json body.
type Details struct {
	Type   string              `json:"type,omitempty"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// New builds Details, copying field errors so callers can reuse their maps.
func New(status int, title, detail, problemType string, fieldErrors map[string][]string) Details {
	d := Details{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}
	if len(fieldErrors) > 0 {
		d.Errors = make(map[string][]string, len(fieldErrors))
		for field, messages := range fieldErrors {
			d.Errors[field] = append([]string(nil), messages...)
		}
	}
	return d
}

// Write sends the problem with its own status code.
func Write(w http.ResponseWriter, d Details) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(d.Status)
	_ = json.NewEncoder(w).Encode(d)
}

// Unauthenticated writes the generic 401 body.
func Unauthenticated(w http.ResponseWriter) {
	Write(w, New(http.StatusUnauthorized, "Unauthenticated", "authentication required", TypeUnauthenticated, nil))
}

// Forbidden writes the generic 403 body.
func Forbidden(w http.ResponseWriter) {
	Write(w, New(http.StatusForbidden, "Forbidden", "insufficient permissions", TypeForbidden, nil))
}

// NotFound writes a 404 body with the given detail.
func NotFound(w http.ResponseWriter, detail string) {
	Write(w, New(http.StatusNotFound, "Resource not found", detail, TypeNotFound, nil))
}

// WriteJSON sends a plain JSON success body.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
