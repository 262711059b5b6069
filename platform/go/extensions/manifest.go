// Package extensions builds the hook registry from a JSON manifest that
// enables and configures extensions from a catalog of factories.
package extensions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed manifest.schema.json
var manifestSchema []byte

// Entry enables or disables one catalog extension.
type Entry struct {
	ID      string          `json:"id"`
	Enabled bool            `json:"enabled"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Manifest lists extensions in registration order.
type Manifest struct {
	Extensions []Entry `json:"extensions"`
}

// ParseManifest validates raw against the manifest schema and decodes it.
func ParseManifest(v *SchemaValidator, raw []byte) (Manifest, error) {
	if err := v.Validate("manifest", manifestSchema, raw); err != nil {
		return Manifest{}, err
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// LoadManifestFile reads and parses a manifest file.
func LoadManifestFile(v *SchemaValidator, path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return ParseManifest(v, raw)
}
