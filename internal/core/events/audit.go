package events

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/hospital-management/internal"
)

var auditedTypes = map[string]bool{
	EventTypeRoleUpserted:       true,
	EventTypeUserRegistered:     true,
	EventTypeUserRolesAssigned:  true,
	EventTypeUserBranchAssigned: true,
}

// RegisterAuditLog writes every access-control mutation to the audit log stream,
// tagged with the acting principal and branch when the publisher had them.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	audit := logger.With("component", "audit")
	bus.Subscribe(AllEvents, func(ctx context.Context, event Event) error {
		if !auditedTypes[event.EventType()] {
			return nil
		}

		attrs := []any{
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload(),
		}
		if p, ok := internal.PrincipalFromContext(ctx); ok {
			attrs = append(attrs, "actor_user_id", p.UserID)
		}
		if branch := internal.BranchIDFromContext(ctx); branch != "" {
			attrs = append(attrs, "branch_id", branch)
		}
		audit.InfoContext(ctx, "access control change", attrs...)
		return nil
	})
}
