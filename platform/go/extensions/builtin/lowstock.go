package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ruidolp/newposter-sub002/platform/go/extensions"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
)

const (
	LowStockBadgeID       = "low-stock-badge"
	defaultStockThreshold = 5
)

var lowStockSchema = []byte(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "threshold": { "type": "integer", "minimum": 0 }
  }
}`)

type lowStockConfig struct {
	Threshold int `json:"threshold"`
}

// LowStockBadge marks product cards whose stock is at or below the threshold.
func LowStockBadge() extensions.Factory {
	return extensions.Factory{
		ID:           LowStockBadgeID,
		Name:         "Low stock badge",
		Version:      "1.0.0",
		ConfigSchema: lowStockSchema,
		Build: func(raw json.RawMessage, _ extensions.Deps) ([]hooks.Binding, error) {
			cfg := lowStockConfig{Threshold: defaultStockThreshold}
			if err := decodeConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return []hooks.Binding{
				hooks.OnRender(hooks.POSRenderProductCard, stockBadge(cfg.Threshold)),
			}, nil
		},
	}
}

func stockBadge(threshold int) hooks.RenderFunc {
	return func(_ context.Context, p hooks.Payload) ([]hooks.Fragment, error) {
		product, ok := p.Data.(hooks.ProductEvent)
		if !ok {
			return nil, fmt.Errorf("unexpected product type %T", p.Data)
		}

		switch {
		case product.Stock <= 0:
			return []hooks.Fragment{{Kind: "badge", Label: "Out of stock", Tone: "danger"}}, nil
		case product.Stock <= threshold:
			return []hooks.Fragment{{
				Kind:  "badge",
				Label: "Low stock",
				Tone:  "warning",
				Props: map[string]string{"stock": strconv.Itoa(product.Stock)},
			}}, nil
		default:
			return nil, nil
		}
	}
}
