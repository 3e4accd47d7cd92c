package wastestream

import (
	"context"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/audit"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
)

// EntityType is the audit entity type of waste streams.
const EntityType = "waste_stream"

// RegisterAudit records every create, edit, status change and delete of a stream.
func RegisterAudit(hooks *domain.HookRegistry[*WasteStream], rec audit.Recorder) {
	hooks.On(domain.AfterCreate, auditHook(rec, audit.ActionCreate))
	hooks.On(domain.AfterUpdate, auditHook(rec, audit.ActionUpdate))
	hooks.On(domain.AfterTransition, auditHook(rec, audit.ActionTransition))
	hooks.On(domain.AfterDelete, auditHook(rec, audit.ActionDelete))
}

func auditHook(rec audit.Recorder, action audit.Action) domain.Hook[*WasteStream] {
	return func(ctx context.Context, ws *WasteStream) error {
		return rec.LogChange(ctx, EntityType, string(ws.Number), action, snapshot(ws))
	}
}

func snapshot(ws *WasteStream) map[string]any {
	return map[string]any{
		"status":         ws.Status,
		"version":        ws.Version,
		"wasteType":      ws.WasteType,
		"collectionType": ws.CollectionType,
		"pickupLocation": location.Flatten(ws.PickupLocation),
		"delivery":       ws.Delivery,
	}
}
