package builtin

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ruidolp/newposter-sub002/platform/go/extensions"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
	"github.com/ruidolp/newposter-sub002/platform/go/logging"
)

const AuditLogID = "audit-log"

var auditLogSchema = []byte(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "includePayload": { "type": "boolean" }
  }
}`)

type auditLogConfig struct {
	IncludePayload bool `json:"includePayload"`
}

// AuditLog writes one structured log entry per product and order event.
func AuditLog() extensions.Factory {
	return extensions.Factory{
		ID:           AuditLogID,
		Name:         "Audit log",
		Version:      "1.0.0",
		ConfigSchema: auditLogSchema,
		Build: func(raw json.RawMessage, deps extensions.Deps) ([]hooks.Binding, error) {
			var cfg auditLogConfig
			if err := decodeConfig(raw, &cfg); err != nil {
				return nil, err
			}

			events := []hooks.NotifyHook{
				hooks.ProductBeforeCreate, hooks.ProductAfterCreate,
				hooks.ProductBeforeUpdate, hooks.ProductAfterUpdate,
				hooks.OrderBeforeCreate, hooks.OrderAfterCreate,
			}
			bindings := make([]hooks.Binding, 0, len(events))
			for _, name := range events {
				bindings = append(bindings, hooks.OnNotify(name, auditHandler(name, cfg, deps.Logger)))
			}
			return bindings, nil
		},
	}
}

func auditHandler(name hooks.NotifyHook, cfg auditLogConfig, fallback *zap.Logger) hooks.NotifyFunc {
	return func(ctx context.Context, p hooks.Payload) error {
		fields := []zap.Field{
			zap.String("hook", string(name)),
			zap.String("tenant_id", p.Context.TenantID.String()),
		}
		if p.Context.UserID.Valid {
			fields = append(fields, zap.String("user_id", p.Context.UserID.UUID.String()))
		}
		if cfg.IncludePayload {
			fields = append(fields, zap.Any("data", p.Data))
		}

		logging.FromContextOr(ctx, fallback).Info("audit event", fields...)
		return nil
	}
}
