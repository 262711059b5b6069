package extensions

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
)

// Load builds every manifest entry from the catalog, registers it and seals
// the registry. Disabled entries are validated but contribute no handlers.
func Load(reg *hooks.Registry, catalog Catalog, manifest Manifest, v *SchemaValidator, deps Deps) error {
	if reg == nil {
		return fmt.Errorf("extensions: registry is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, entry := range manifest.Extensions {
		factory, ok := catalog[entry.ID]
		if !ok {
			return fmt.Errorf("extensions: unknown extension %q", entry.ID)
		}

		if len(factory.ConfigSchema) > 0 {
			if err := v.Validate(entry.ID+"/config", factory.ConfigSchema, entry.Config); err != nil {
				return fmt.Errorf("extensions: %s config: %w", entry.ID, err)
			}
		}

		bindings, err := factory.Build(entry.Config, deps)
		if err != nil {
			return fmt.Errorf("extensions: build %s: %w", entry.ID, err)
		}

		if err := reg.Register(hooks.Extension{
			ID:      factory.ID,
			Name:    factory.Name,
			Version: factory.Version,
			Enabled: entry.Enabled,
			Hooks:   bindings,
		}); err != nil {
			return fmt.Errorf("extensions: register %s: %w", entry.ID, err)
		}

		deps.Logger.Info("extension loaded",
			zap.String("extension_id", entry.ID),
			zap.Bool("enabled", entry.Enabled),
			zap.Int("hooks", len(bindings)),
		)
	}

	reg.Seal()
	return nil
}
