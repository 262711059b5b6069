// Package builtin ships the extensions available to every deployment.
package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/ruidolp/newposter-sub002/platform/go/extensions"
)

// Catalog returns all built-in factories.
func Catalog() extensions.Catalog {
	c, err := extensions.NewCatalog(AuditLog(), SalesTax(), QuickActions(), LowStockBadge())
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultManifest is used when no manifest file is configured.
func DefaultManifest() extensions.Manifest {
	return extensions.Manifest{Extensions: []extensions.Entry{
		{ID: AuditLogID, Enabled: true},
		{ID: LowStockBadgeID, Enabled: true},
		{ID: QuickActionsID, Enabled: false},
		{ID: SalesTaxID, Enabled: false},
	}}
}

func decodeConfig(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
