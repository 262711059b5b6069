package hooks

import "github.com/google/uuid"

// OrderTotals is the value threaded through order.calculateTotal. Amounts are
// in minor currency units.
type OrderTotals struct {
	SubtotalCents int64 `json:"subtotalCents"`
	DiscountCents int64 `json:"discountCents"`
	TaxCents      int64 `json:"taxCents"`
	TotalCents    int64 `json:"totalCents"`
}

// OrderLine is one line of an order event.
type OrderLine struct {
	ProductID      uuid.UUID `json:"productId"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
}

// OrderEvent is the Data of order hooks. OrderID is zero before the order is stored.
type OrderEvent struct {
	OrderID uuid.UUID   `json:"orderId"`
	Lines   []OrderLine `json:"lines"`
	Totals  OrderTotals `json:"totals"`
}

// ProductEvent is the Data of product hooks and pos.renderProductCard.
type ProductEvent struct {
	ProductID  uuid.UUID `json:"productId"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Stock      int       `json:"stock"`
	Active     bool      `json:"active"`
}
