package service

import (
	"context"
	"errors"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Helpers over the overlay store. Absence of an overlay row means the entity
// was never archived and therefore counts as active.

// isActive reports whether the entity's overlay, if any, still marks it
// active.
func isActive(ctx context.Context, overlays repository.OverlayRepository, id primitive.ObjectID) (bool, error) {
	overlay, err := overlays.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return overlay.Active, nil
}

// inactiveSet returns the subset of ids whose overlay marks them inactive.
func inactiveSet(ctx context.Context, overlays repository.OverlayRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	inactive := make(map[primitive.ObjectID]bool)
	if len(ids) == 0 {
		return inactive, nil
	}
	found, err := overlays.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, overlay := range found {
		if !overlay.Active {
			inactive[id] = true
		}
	}
	return inactive, nil
}

// activeSlots filters slots through the overlay store, preserving the input
// order. Feeding it the repository's (order, id) listing therefore yields
// the session's active view in its canonical order.
func activeSlots(ctx context.Context, overlays repository.OverlayRepository, slots []domain.PrescriptionSlot) ([]domain.PrescriptionSlot, error) {
	ids := make([]primitive.ObjectID, len(slots))
	for i, slot := range slots {
		ids[i] = slot.ID
	}
	inactive, err := inactiveSet(ctx, overlays, ids)
	if err != nil {
		return nil, err
	}
	active := make([]domain.PrescriptionSlot, 0, len(slots))
	for _, slot := range slots {
		if !inactive[slot.ID] {
			active = append(active, slot)
		}
	}
	return active, nil
}

// activeSessions filters sessions through the overlay store, preserving the
// input order.
func activeSessions(ctx context.Context, overlays repository.OverlayRepository, sessions []domain.TrainingSession) ([]domain.TrainingSession, error) {
	ids := make([]primitive.ObjectID, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	inactive, err := inactiveSet(ctx, overlays, ids)
	if err != nil {
		return nil, err
	}
	active := make([]domain.TrainingSession, 0, len(sessions))
	for _, session := range sessions {
		if !inactive[session.ID] {
			active = append(active, session)
		}
	}
	return active, nil
}

// cloneParams copies a schema-free parameter payload so a snapshot or a
// copied slot can never alias the source map.
func cloneParams(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	clone := make(map[string]interface{}, len(params))
	for key, value := range params {
		clone[key] = value
	}
	return clone
}
