// Package devtoken mints signed tokens for local and CI tooling with the same
// codecs the API verifies against.
package devtoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
)

// SessionParams captures the raw claims for a tenant session token. All
// fields are required; nothing is read from the environment so output stays
// deterministic for a given clock.
type SessionParams struct {
	UserID     string
	TenantID   string
	TenantSlug string
	Role       string
}

// Token is a minted token with its cookie name.
type Token struct {
	Value      string
	CookieName string
	ExpiresAt  time.Time
}

// BuildSessionToken validates params and signs a session token.
func BuildSessionToken(codec *auth.Codec[auth.TenantPrincipal], p SessionParams) (Token, error) {
	if codec == nil {
		return Token{}, errors.New("session codec is required")
	}

	userID, err := uuid.Parse(strings.TrimSpace(p.UserID))
	if err != nil {
		return Token{}, fmt.Errorf("userID: %w", err)
	}
	tenantID, err := uuid.Parse(strings.TrimSpace(p.TenantID))
	if err != nil {
		return Token{}, fmt.Errorf("tenantID: %w", err)
	}
	if strings.TrimSpace(p.TenantSlug) == "" {
		return Token{}, errors.New("tenantSlug is required")
	}
	role, err := auth.ParseRole(p.Role)
	if err != nil {
		return Token{}, err
	}

	value, expiresAt, err := codec.Issue(auth.TenantPrincipal{
		UserID:     userID,
		Role:       role,
		TenantID:   tenantID,
		TenantSlug: strings.TrimSpace(p.TenantSlug),
	})
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, CookieName: codec.CookieName(), ExpiresAt: expiresAt}, nil
}

// BuildSuperadminToken signs a superadmin token for adminID.
func BuildSuperadminToken(codec *auth.Codec[auth.SuperadminPrincipal], adminID string) (Token, error) {
	if codec == nil {
		return Token{}, errors.New("superadmin codec is required")
	}

	id, err := uuid.Parse(strings.TrimSpace(adminID))
	if err != nil {
		return Token{}, fmt.Errorf("adminID: %w", err)
	}

	value, expiresAt, err := codec.Issue(auth.SuperadminPrincipal{AdminID: id})
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, CookieName: codec.CookieName(), ExpiresAt: expiresAt}, nil
}
