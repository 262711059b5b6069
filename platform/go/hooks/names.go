// Package hooks lets optional extensions observe and adjust product and order
// lifecycle events. Hook names are typed by category so a handler can only be
// bound to hooks whose dispatch contract matches its signature.
package hooks

// NotifyHook names an observe-only extension point. Handler failures are
// recorded and never abort the operation.
type NotifyHook string

// ReduceHook names a compute extension point. Handlers are chained and any
// failure aborts the operation.
type ReduceHook string

// RenderHook names a presentation extension point returning UI fragments.
type RenderHook string

const (
	ProductBeforeCreate NotifyHook = "product.beforeCreate"
	ProductAfterCreate  NotifyHook = "product.afterCreate"
	ProductBeforeUpdate NotifyHook = "product.beforeUpdate"
	ProductAfterUpdate  NotifyHook = "product.afterUpdate"
	OrderBeforeCreate   NotifyHook = "order.beforeCreate"
	OrderAfterCreate    NotifyHook = "order.afterCreate"

	OrderCalculateTotal ReduceHook = "order.calculateTotal"

	POSRenderActions     RenderHook = "pos.renderActions"
	POSRenderProductCard RenderHook = "pos.renderProductCard"
)

// Category groups hooks by dispatch contract.
type Category string

const (
	CategoryNotify Category = "notify"
	CategoryReduce Category = "reduce"
	CategoryRender Category = "render"
)

var knownHooks = map[string]Category{
	string(ProductBeforeCreate):  CategoryNotify,
	string(ProductAfterCreate):   CategoryNotify,
	string(ProductBeforeUpdate):  CategoryNotify,
	string(ProductAfterUpdate):   CategoryNotify,
	string(OrderBeforeCreate):    CategoryNotify,
	string(OrderAfterCreate):     CategoryNotify,
	string(OrderCalculateTotal):  CategoryReduce,
	string(POSRenderActions):     CategoryRender,
	string(POSRenderProductCard): CategoryRender,
}

// CategoryOf reports the category of a known hook name.
func CategoryOf(name string) (Category, bool) {
	c, ok := knownHooks[name]
	return c, ok
}
