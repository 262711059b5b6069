package hooks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/logging"
)

type entry struct {
	extensionID string
	binding     Binding
}

// Registry holds the handlers of every enabled extension in registration
// order. It is filled during startup, sealed, and then only read.
type Registry struct {
	mu         sync.RWMutex
	sealed     bool
	extensions []Descriptor
	handlers   map[string][]entry
	logger     *zap.Logger
	metrics    *Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the fallback logger used when the dispatch context has none.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records dispatch metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string][]entry),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds every binding of ext. Disabled extensions are ignored.
func (r *Registry) Register(ext Extension) error {
	if !ext.Enabled {
		return nil
	}
	if ext.ID == "" {
		return errors.New("hooks: extension id is required")
	}
	for i, b := range ext.Hooks {
		if err := b.validate(); err != nil {
			return fmt.Errorf("hooks: extension %s binding %d: %w", ext.ID, i, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	for _, d := range r.extensions {
		if d.ID == ext.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateExtension, ext.ID)
		}
	}

	desc := Descriptor{ID: ext.ID, Name: ext.Name, Version: ext.Version, Hooks: make([]string, 0, len(ext.Hooks))}
	for _, b := range ext.Hooks {
		r.handlers[b.name] = append(r.handlers[b.name], entry{extensionID: ext.ID, binding: b})
		desc.Hooks = append(desc.Hooks, b.name)
	}
	r.extensions = append(r.extensions, desc)
	return nil
}

// Seal rejects further registrations.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed = true
}

// Extensions lists registered extensions in registration order.
func (r *Registry) Extensions() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, len(r.extensions))
	for i, d := range r.extensions {
		d.Hooks = append([]string(nil), d.Hooks...)
		out[i] = d
	}
	return out
}

// HandlerCount returns how many handlers are bound to name.
func (r *Registry) HandlerCount(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handlers[name])
}

func (r *Registry) snapshot(name string) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.handlers[name]
}

func (b Binding) validate() error {
	if b.name == "" {
		return errors.New("hook name is required")
	}
	switch b.category {
	case CategoryNotify:
		if b.notify == nil {
			return errors.New("notify handler is nil")
		}
	case CategoryReduce:
		if b.reduce == nil {
			return errors.New("reduce handler is nil")
		}
	case CategoryRender:
		if b.render == nil {
			return errors.New("render handler is nil")
		}
	default:
		return errors.New("binding must be built with OnNotify, OnReduce or OnRender")
	}
	return nil
}

// invoke runs one handler, turning errors and panics into *ExtensionError.
func (r *Registry) invoke(ctx context.Context, category Category, hook string, e entry, call func() error) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		if err != nil {
			err = &ExtensionError{ExtensionID: e.extensionID, Hook: hook, Err: err}
		}
		r.metrics.observe(category, hook, e.extensionID, time.Since(start), err)
	}()
	return call()
}

func (r *Registry) loggerFrom(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, r.logger)
}
