package weightticket

import (
	"context"
	"strconv"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/audit"
)

// EntityType is the audit entity type of weight tickets.
const EntityType = "weight_ticket"

// RegisterAudit records ticket creation, edits and status changes.
func RegisterAudit(hooks *domain.HookRegistry[*WeightTicket], rec audit.Recorder) {
	hooks.On(domain.AfterCreate, auditHook(rec, audit.ActionCreate))
	hooks.On(domain.AfterUpdate, auditHook(rec, audit.ActionUpdate))
	hooks.On(domain.AfterTransition, auditHook(rec, audit.ActionTransition))
}

func auditHook(rec audit.Recorder, action audit.Action) domain.Hook[*WeightTicket] {
	return func(ctx context.Context, t *WeightTicket) error {
		return rec.LogChange(ctx, EntityType, strconv.FormatInt(t.ID, 10), action, snapshot(t))
	}
}

func snapshot(t *WeightTicket) map[string]any {
	changes := map[string]any{
		"status":  t.Status,
		"lines":   t.Lines,
		"version": t.Version,
	}
	if t.CancellationReason != "" {
		changes["cancellationReason"] = t.CancellationReason
	}
	if t.InvoiceID != nil {
		changes["invoiceId"] = *t.InvoiceID
	}
	if t.TransportID != nil {
		changes["transportId"] = t.TransportID.String()
	}
	return changes
}
