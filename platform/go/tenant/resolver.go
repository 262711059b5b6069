package tenant

import (
	"fmt"
	"net"
	"path"
	"strings"
)

// Source names the strategy that produced a slug decision.
type Source string

const (
	SourceHost      Source = "host"
	SourceLoginPath Source = "login_path"
	SourceStorePath Source = "store_path"
	SourceCookie    Source = "cookie"
	SourceDefault   Source = "default"
)

// FromPath reports whether the slug was taken from an explicit tenant link.
func (s Source) FromPath() bool {
	return s == SourceLoginPath || s == SourceStorePath
}

const (
	DefaultCookieName  = "tenant_slug"
	DefaultAssetPrefix = "/_assets/"
	defaultLoopback    = "localhost"
)

var staticExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".map": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".svg": {}, ".ico": {}, ".webp": {}, ".woff": {}, ".woff2": {}, ".ttf": {}, ".txt": {},
}

// ResolverConfig tunes slug resolution.
type ResolverConfig struct {
	// DefaultSlug is returned when no strategy matches. Required.
	DefaultSlug string
	// CookieName holds the fallback slug written after path-based resolution.
	CookieName string
	// AssetPrefix marks internal asset paths that skip resolution.
	AssetPrefix string
	// LoopbackHost is the bare development host ("localhost").
	LoopbackHost string
}

// Decision is the outcome of one resolution.
type Decision struct {
	Slug   string
	Source Source
}

// Resolver maps request metadata to a tenant slug. It holds no state beyond its config.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver validates the config and fills defaults.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	def, err := NormalizeSlug(cfg.DefaultSlug)
	if err != nil {
		return nil, fmt.Errorf("tenant resolver: default slug: %w", err)
	}
	cfg.DefaultSlug = def

	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.AssetPrefix == "" {
		cfg.AssetPrefix = DefaultAssetPrefix
	}
	if cfg.LoopbackHost == "" {
		cfg.LoopbackHost = defaultLoopback
	}
	cfg.LoopbackHost = strings.ToLower(cfg.LoopbackHost)

	return &Resolver{cfg: cfg}, nil
}

// CookieName returns the fallback cookie name.
func (r *Resolver) CookieName() string {
	return r.cfg.CookieName
}

// Resolve returns the slug for the request. It never fails.
func (r *Resolver) Resolve(host, urlPath string, cookies map[string]string) string {
	return r.Decide(host, urlPath, cookies).Slug
}

// Decide applies the strategies in precedence order: login path, host
// subdomain, storefront path, fallback cookie, default. A storefront path
// never overrides the tenant its subdomain names.
func (r *Resolver) Decide(host, urlPath string, cookies map[string]string) Decision {
	if slug, ok := pathSlug(urlPath, "login"); ok {
		return Decision{Slug: slug, Source: SourceLoginPath}
	}
	if slug, ok := r.hostSlug(host); ok {
		return Decision{Slug: slug, Source: SourceHost}
	}
	if slug, ok := pathSlug(urlPath, "store"); ok {
		return Decision{Slug: slug, Source: SourceStorePath}
	}
	if raw, ok := cookies[r.cfg.CookieName]; ok {
		if slug, ok := candidateSlug(raw); ok {
			return Decision{Slug: slug, Source: SourceCookie}
		}
	}
	return Decision{Slug: r.cfg.DefaultSlug, Source: SourceDefault}
}

// IsStaticAsset reports whether the path bypasses resolution.
func (r *Resolver) IsStaticAsset(urlPath string) bool {
	if strings.HasPrefix(urlPath, r.cfg.AssetPrefix) {
		return true
	}
	_, ok := staticExtensions[strings.ToLower(path.Ext(urlPath))]
	return ok
}

func (r *Resolver) hostSlug(host string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(host))
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	h = strings.TrimSuffix(strings.Trim(h, "[]"), ".")
	if h == "" || net.ParseIP(h) != nil {
		return "", false
	}

	labels := strings.Split(h, ".")
	hasSubdomain := len(labels) >= 3 || (len(labels) == 2 && labels[1] == r.cfg.LoopbackHost)
	if !hasSubdomain {
		return "", false
	}

	sub := labels[0]
	if sub == "www" || sub == r.cfg.LoopbackHost {
		return "", false
	}
	return candidateSlug(sub)
}

// pathSlug matches /<prefix>/<slug>[/...].
func pathSlug(urlPath, prefix string) (string, bool) {
	segments := strings.Split(strings.Trim(urlPath, "/"), "/")
	if len(segments) < 2 || segments[0] != prefix {
		return "", false
	}
	return candidateSlug(segments[1])
}
