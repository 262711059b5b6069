package hooks

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Outcome is the result of one handler in a notify or render dispatch.
type Outcome struct {
	ExtensionID string
	Fragments   []Fragment
	// Err is nil on success and an *ExtensionError otherwise.
	Err error
}

// Result collects the outcomes of one dispatch in handler order.
type Result struct {
	Hook     string
	Outcomes []Outcome
	// Abandoned is the context error when the dispatch stopped early.
	Abandoned error
}

// Failures returns the failed outcomes.
func (r Result) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// OK reports whether every handler ran and succeeded.
func (r Result) OK() bool {
	return r.Abandoned == nil && len(r.Failures()) == 0
}

// Notify runs every handler bound to name in registration order. A failing
// handler does not stop the others; its failure is logged and recorded.
func (r *Registry) Notify(ctx context.Context, name NotifyHook, p Payload) Result {
	hook := string(name)
	res := Result{Hook: hook}

	for _, e := range r.snapshot(hook) {
		if err := ctx.Err(); err != nil {
			res.Abandoned = err
			break
		}

		err := r.invoke(ctx, CategoryNotify, hook, e, func() error {
			return e.binding.notify(ctx, p)
		})
		if err != nil {
			r.loggerFrom(ctx).Warn("extension notify handler failed",
				zap.String("hook", hook),
				zap.String("extension_id", e.extensionID),
				zap.Error(err),
			)
		}
		res.Outcomes = append(res.Outcomes, Outcome{ExtensionID: e.extensionID, Err: err})
	}
	return res
}

// Render collects fragments from every handler bound to name. Failures are
// isolated like Notify.
func (r *Registry) Render(ctx context.Context, name RenderHook, p Payload) ([]Fragment, Result) {
	hook := string(name)
	res := Result{Hook: hook}
	var fragments []Fragment

	for _, e := range r.snapshot(hook) {
		if err := ctx.Err(); err != nil {
			res.Abandoned = err
			break
		}

		var produced []Fragment
		err := r.invoke(ctx, CategoryRender, hook, e, func() error {
			var callErr error
			produced, callErr = e.binding.render(ctx, p)
			return callErr
		})
		if err != nil {
			r.loggerFrom(ctx).Warn("extension render handler failed",
				zap.String("hook", hook),
				zap.String("extension_id", e.extensionID),
				zap.Error(err),
			)
			res.Outcomes = append(res.Outcomes, Outcome{ExtensionID: e.extensionID, Err: err})
			continue
		}

		// Handlers may hand back shared slices; stamp copies only.
		owned := make([]Fragment, 0, len(produced))
		for _, f := range produced {
			f.ExtensionID = e.extensionID
			owned = append(owned, f)
		}
		fragments = append(fragments, owned...)
		res.Outcomes = append(res.Outcomes, Outcome{ExtensionID: e.extensionID, Fragments: owned})
	}
	return fragments, res
}

// Reduce threads initial through every handler bound to name. The first
// failure aborts the chain with a *ReductionError and no value.
func (r *Registry) Reduce(ctx context.Context, name ReduceHook, initial any, p Payload) (any, error) {
	return r.reduce(ctx, name, initial, p, nil)
}

// ReduceAs is Reduce with the value type fixed to T. A handler returning any
// other type aborts the chain.
func ReduceAs[T any](ctx context.Context, r *Registry, name ReduceHook, initial T, p Payload) (T, error) {
	var zero T
	out, err := r.reduce(ctx, name, initial, p, func(v any) error {
		if _, ok := v.(T); !ok {
			return fmt.Errorf("handler returned %T, want %s", v, reflect.TypeFor[T]())
		}
		return nil
	})
	if err != nil {
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

func (r *Registry) reduce(ctx context.Context, name ReduceHook, initial any, p Payload, check func(any) error) (any, error) {
	hook := string(name)
	acc := initial

	for _, e := range r.snapshot(hook) {
		if err := ctx.Err(); err != nil {
			return nil, &ReductionError{Hook: hook, Err: err}
		}

		var next any
		err := r.invoke(ctx, CategoryReduce, hook, e, func() error {
			var callErr error
			next, callErr = e.binding.reduce(ctx, acc, p)
			if callErr == nil && check != nil {
				callErr = check(next)
			}
			return callErr
		})
		if err != nil {
			r.loggerFrom(ctx).Error("extension reduce handler failed",
				zap.String("hook", hook),
				zap.String("extension_id", e.extensionID),
				zap.Error(err),
			)
			return nil, &ReductionError{Hook: hook, ExtensionID: e.extensionID, Err: err}
		}
		acc = next
	}
	return acc, nil
}
