package hooks

import (
	"context"

	"github.com/google/uuid"
)

// Context identifies who triggered a dispatch.
type Context struct {
	TenantID uuid.UUID
	UserID   uuid.NullUUID
}

// Payload is handed to every handler of one dispatch. It is passed by value,
// so handlers cannot change the Context seen by later handlers.
type Payload struct {
	Data    any
	Context Context
}

// Fragment is one presentation element contributed by an extension.
type Fragment struct {
	ExtensionID string            `json:"extensionId"`
	Kind        string            `json:"kind"`
	Label       string            `json:"label"`
	Action      string            `json:"action,omitempty"`
	Tone        string            `json:"tone,omitempty"`
	Props       map[string]string `json:"props,omitempty"`
}

// NotifyFunc observes an event.
type NotifyFunc func(ctx context.Context, p Payload) error

// ReduceFunc receives the previous handler's value and returns the next one.
type ReduceFunc func(ctx context.Context, acc any, p Payload) (any, error)

// RenderFunc contributes fragments.
type RenderFunc func(ctx context.Context, p Payload) ([]Fragment, error)

// Binding ties one handler to one hook.
type Binding struct {
	category Category
	name     string
	notify   NotifyFunc
	reduce   ReduceFunc
	render   RenderFunc
}

// OnNotify binds fn to a notify hook.
func OnNotify(name NotifyHook, fn NotifyFunc) Binding {
	return Binding{category: CategoryNotify, name: string(name), notify: fn}
}

// OnReduce binds fn to a reduce hook.
func OnReduce(name ReduceHook, fn ReduceFunc) Binding {
	return Binding{category: CategoryReduce, name: string(name), reduce: fn}
}

// OnRender binds fn to a render hook.
func OnRender(name RenderHook, fn RenderFunc) Binding {
	return Binding{category: CategoryRender, name: string(name), render: fn}
}

// Hook returns the bound hook name.
func (b Binding) Hook() string {
	return b.name
}

// Extension is a named bundle of bindings.
type Extension struct {
	ID      string
	Name    string
	Version string
	Enabled bool
	Hooks   []Binding
}

// Descriptor describes a registered extension.
type Descriptor struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Hooks   []string `json:"hooks"`
}
