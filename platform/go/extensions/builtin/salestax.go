package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ruidolp/newposter-sub002/platform/go/extensions"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
)

const SalesTaxID = "sales-tax"

var salesTaxSchema = []byte(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["rateBasisPoints"],
  "properties": {
    "rateBasisPoints": { "type": "integer", "minimum": 0, "maximum": 10000 }
  }
}`)

type salesTaxConfig struct {
	RateBasisPoints int64 `json:"rateBasisPoints"`
}

// SalesTax adds a flat tax to the discounted total. Rounds half up.
func SalesTax() extensions.Factory {
	return extensions.Factory{
		ID:           SalesTaxID,
		Name:         "Sales tax",
		Version:      "1.0.0",
		ConfigSchema: salesTaxSchema,
		Build: func(raw json.RawMessage, _ extensions.Deps) ([]hooks.Binding, error) {
			var cfg salesTaxConfig
			if err := decodeConfig(raw, &cfg); err != nil {
				return nil, err
			}
			if cfg.RateBasisPoints < 0 || cfg.RateBasisPoints > 10000 {
				return nil, fmt.Errorf("rateBasisPoints %d out of range", cfg.RateBasisPoints)
			}
			return []hooks.Binding{
				hooks.OnReduce(hooks.OrderCalculateTotal, applySalesTax(cfg.RateBasisPoints)),
			}, nil
		},
	}
}

func applySalesTax(bps int64) hooks.ReduceFunc {
	return func(_ context.Context, acc any, _ hooks.Payload) (any, error) {
		totals, ok := acc.(hooks.OrderTotals)
		if !ok {
			return nil, fmt.Errorf("unexpected totals type %T", acc)
		}
		if totals.TotalCents < 0 {
			return nil, errors.New("negative order total")
		}

		// Split the total so total*bps cannot overflow.
		whole, rest := totals.TotalCents/10000, totals.TotalCents%10000
		tax := whole*bps + (rest*bps+5000)/10000
		if tax > math.MaxInt64-totals.TotalCents {
			return nil, errors.New("order total overflows with tax")
		}
		totals.TaxCents += tax
		totals.TotalCents += tax
		return totals, nil
	}
}
