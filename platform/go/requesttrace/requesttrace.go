package requesttrace

import (
	"context"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/hooks"
)

type contextKey string

const ctxAuditInfo contextKey = "NEWPOSTER_REQUEST_TRACE"

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser       ActorKind = "user"
	ActorKindSuperadmin ActorKind = "superadmin"
	ActorKindAnonymous  ActorKind = "anonymous"
	ActorKindSystem     ActorKind = "system"
)

// AuditInfo captures request-scoped metadata for traceability and for the
// context handed to extensions. ActorID is set for users and superadmins.
// TenantID is set whenever the request is bound to a tenant.
type AuditInfo struct {
	ActorKind ActorKind
	ActorID   uuid.NullUUID
	TenantID  uuid.NullUUID
	RequestID string
}

func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, ctxAuditInfo, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	audit, ok := ctx.Value(ctxAuditInfo).(AuditInfo)
	return audit, ok
}

// FromContextOrAnonymous returns the AuditInfo stored on the context, or an anonymous record when absent.
func FromContextOrAnonymous(ctx context.Context) AuditInfo {
	if audit, ok := FromContext(ctx); ok {
		return audit
	}
	return Anonymous("")
}

// FromPrincipal builds an AuditInfo for an authenticated caller. A nil
// principal yields an anonymous record bound to tenantID.
func FromPrincipal(p auth.Principal, tenantID uuid.NullUUID, requestID string) AuditInfo {
	switch v := p.(type) {
	case auth.TenantPrincipal:
		return AuditInfo{
			ActorKind: ActorKindUser,
			ActorID:   uuid.NullUUID{UUID: v.UserID, Valid: true},
			TenantID:  uuid.NullUUID{UUID: v.TenantID, Valid: true},
			RequestID: requestID,
		}
	case auth.SuperadminPrincipal:
		return AuditInfo{
			ActorKind: ActorKindSuperadmin,
			ActorID:   uuid.NullUUID{UUID: v.AdminID, Valid: true},
			TenantID:  tenantID,
			RequestID: requestID,
		}
	default:
		audit := Anonymous(requestID)
		audit.TenantID = tenantID
		return audit
	}
}

// Anonymous builds an AuditInfo for unauthenticated requests such as login.
func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

// System builds an AuditInfo for CLI and background operations.
func System(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindSystem, RequestID: requestID}
}

// HookContext converts the audit record into the context extensions see.
// Only tenant users are exposed as the acting user.
func (a AuditInfo) HookContext() hooks.Context {
	hc := hooks.Context{TenantID: a.TenantID.UUID}
	if a.ActorKind == ActorKindUser {
		hc.UserID = a.ActorID
	}
	return hc
}
