// Package tenant binds every request to exactly one active tenant: a pure slug
// resolver over host, path and cookies, and a provider that loads the tenant
// behind that slug from storage.
package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTenantNotFound is returned for unknown and deactivated slugs alike.
	ErrTenantNotFound = errors.New("tenant: not found")
	// ErrInvalidSlug marks a value that can never name a tenant.
	ErrInvalidSlug = errors.New("tenant: invalid slug")
)

// Slugs double as subdomain labels, so they follow DNS label rules on top of
// the lowercase-and-hyphens pattern.
const maxSlugLength = 63

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Tenant is one business account.
type Tenant struct {
	ID        uuid.UUID       `json:"id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Active    bool            `json:"active"`
	Plan      string          `json:"plan"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NormalizeSlug lowercases and trims input and reports ErrInvalidSlug when the
// result cannot be a subdomain label.
func NormalizeSlug(input string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(input))
	switch {
	case slug == "":
		return "", fmt.Errorf("%w: slug is required", ErrInvalidSlug)
	case len(slug) > maxSlugLength:
		return "", fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidSlug, input, maxSlugLength)
	case !slugPattern.MatchString(slug):
		return "", fmt.Errorf("%w: %q must be lowercase letters, digits and single hyphens", ErrInvalidSlug, input)
	}
	return slug, nil
}

// candidateSlug is the resolver's view of NormalizeSlug: anything invalid
// simply does not match.
func candidateSlug(raw string) (string, bool) {
	slug, err := NormalizeSlug(raw)
	return slug, err == nil
}
