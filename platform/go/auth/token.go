package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultSessionCookie    = "pos_session"
	DefaultSuperadminCookie = "sa_token"
	DefaultSessionTTL       = 12 * time.Hour
	DefaultSuperadminTTL    = 2 * time.Hour

	sessionAudience    = "newposter-session"
	superadminAudience = "newposter-superadmin"
	defaultIssuer      = "newposter"
	minSecretLength    = 32
)

// CodecConfig parameterizes one token family.
type CodecConfig struct {
	Secret     []byte
	TTL        time.Duration
	CookieName string
	Audience   string
	Issuer     string
	// Secure marks the cookie secure; set outside local development.
	Secure bool
}

// Codec issues and verifies HS256 tokens that carry a payload of type P under the "data" claim.
type Codec[P any] struct {
	cfg    CodecConfig
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption customizes a Codec.
type CodecOption func(*codecOptions)

type codecOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests and token minting tools.
func WithClock(now func() time.Time) CodecOption {
	return func(o *codecOptions) {
		if now != nil {
			o.now = now
		}
	}
}

type tokenClaims[P any] struct {
	Data P `json:"data"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg and builds a Codec.
func NewCodec[P any](cfg CodecConfig, opts ...CodecOption) (*Codec[P], error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecretLength)
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if cfg.CookieName == "" {
		return nil, errors.New("token cookie name is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("token audience is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}

	o := codecOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Codec[P]{
		cfg: cfg,
		now: o.now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(cfg.Audience),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(o.now),
		),
	}, nil
}

// CookieName returns the cookie that carries this family's tokens.
func (c *Codec[P]) CookieName() string {
	return c.cfg.CookieName
}

// TTL returns the token lifetime.
func (c *Codec[P]) TTL() time.Duration {
	return c.cfg.TTL
}

// Issue signs payload with an absolute expiry of now+TTL.
func (c *Codec[P]) Issue(payload P) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.cfg.TTL)

	claims := tokenClaims[P]{
		Data: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.cfg.Issuer,
			Audience:  jwt.ClaimStrings{c.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature, algorithm, audience, issuer and expiry. Any failure is ErrInvalidToken.
func (c *Codec[P]) Verify(token string) (P, error) {
	var zero P
	if token == "" {
		return zero, ErrInvalidToken
	}

	claims := &tokenClaims[P]{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.cfg.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return zero, ErrInvalidToken
	}
	return claims.Data, nil
}

// Cookie wraps a token issued by this codec.
func (c *Codec[P]) Cookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(c.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires this family's cookie.
func (c *Codec[P]) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Codecs holds both token families.
type Codecs struct {
	Session    *Codec[TenantPrincipal]
	Superadmin *Codec[SuperadminPrincipal]
}

// NewCodecs builds both families and refuses configurations where one family
// could be mistaken for the other.
func NewCodecs(session, superadmin CodecConfig, opts ...CodecOption) (Codecs, error) {
	if session.CookieName == "" {
		session.CookieName = DefaultSessionCookie
	}
	if session.TTL == 0 {
		session.TTL = DefaultSessionTTL
	}
	if session.Audience == "" {
		session.Audience = sessionAudience
	}
	if superadmin.CookieName == "" {
		superadmin.CookieName = DefaultSuperadminCookie
	}
	if superadmin.TTL == 0 {
		superadmin.TTL = DefaultSuperadminTTL
	}
	if superadmin.Audience == "" {
		superadmin.Audience = superadminAudience
	}

	switch {
	case string(session.Secret) == string(superadmin.Secret):
		return Codecs{}, errors.New("session and superadmin secrets must differ")
	case session.CookieName == superadmin.CookieName:
		return Codecs{}, errors.New("session and superadmin cookie names must differ")
	case session.Audience == superadmin.Audience:
		return Codecs{}, errors.New("session and superadmin audiences must differ")
	}

	sessionCodec, err := NewCodec[TenantPrincipal](session, opts...)
	if err != nil {
		return Codecs{}, fmt.Errorf("session codec: %w", err)
	}
	superadminCodec, err := NewCodec[SuperadminPrincipal](superadmin, opts...)
	if err != nil {
		return Codecs{}, fmt.Errorf("superadmin codec: %w", err)
	}

	return Codecs{Session: sessionCodec, Superadmin: superadminCodec}, nil
}
