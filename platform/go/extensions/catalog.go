package extensions

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
)

// Deps are shared collaborators handed to factories.
type Deps struct {
	Logger *zap.Logger
}

// Factory builds the bindings of one extension from its config.
type Factory struct {
	ID      string
	Name    string
	Version string
	// ConfigSchema is a JSON Schema for Entry.Config.
	ConfigSchema []byte
	Build        func(config json.RawMessage, deps Deps) ([]hooks.Binding, error)
}

// Catalog indexes factories by ID.
type Catalog map[string]Factory

// NewCatalog indexes factories and rejects duplicates.
func NewCatalog(factories ...Factory) (Catalog, error) {
	c := make(Catalog, len(factories))
	for _, f := range factories {
		if f.ID == "" || f.Build == nil {
			return nil, fmt.Errorf("extension factory %q is incomplete", f.ID)
		}
		if _, dup := c[f.ID]; dup {
			return nil, fmt.Errorf("extension factory %q registered twice", f.ID)
		}
		c[f.ID] = f
	}
	return c, nil
}
