package builtin

import (
	"context"
	"encoding/json"

	"github.com/ruidolp/newposter-sub002/platform/go/extensions"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
)

const QuickActionsID = "pos-quick-actions"

var quickActionsSchema = []byte(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["label", "action"],
        "properties": {
          "label": { "type": "string", "minLength": 1 },
          "action": { "type": "string", "minLength": 1 },
          "tone": { "type": "string", "enum": ["neutral", "primary", "warning", "danger"] }
        }
      }
    }
  }
}`)

type quickAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	Tone   string `json:"tone"`
}

type quickActionsConfig struct {
	Actions []quickAction `json:"actions"`
}

var defaultQuickActions = []quickAction{
	{Label: "Open cash drawer", Action: "drawer.open", Tone: "neutral"},
	{Label: "Park sale", Action: "sale.park", Tone: "primary"},
}

// QuickActions adds configurable buttons to the POS action bar.
func QuickActions() extensions.Factory {
	return extensions.Factory{
		ID:           QuickActionsID,
		Name:         "POS quick actions",
		Version:      "1.0.0",
		ConfigSchema: quickActionsSchema,
		Build: func(raw json.RawMessage, _ extensions.Deps) ([]hooks.Binding, error) {
			var cfg quickActionsConfig
			if err := decodeConfig(raw, &cfg); err != nil {
				return nil, err
			}

			actions := cfg.Actions
			if actions == nil {
				actions = defaultQuickActions
			}
			return []hooks.Binding{
				hooks.OnRender(hooks.POSRenderActions, func(context.Context, hooks.Payload) ([]hooks.Fragment, error) {
					fragments := make([]hooks.Fragment, 0, len(actions))
					for _, a := range actions {
						fragments = append(fragments, hooks.Fragment{Kind: "button", Label: a.Label, Action: a.Action, Tone: a.Tone})
					}
					return fragments, nil
				}),
			}, nil
		},
	}
}
