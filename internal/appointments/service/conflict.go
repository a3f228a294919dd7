package service

import (
	"context"
	"errors"

	appointmentserrors "clinic/internal/appointments/errors"
	mongotx "clinic/pkg/db/mongo"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"
	"clinic/pkg/validation"
)

// HasConflict reports whether a pending or confirmed appointment other than
// excludeID occupies slot. Only the calendar day of slot.Date is compared.
// Completed, cancelled and no-show appointments never block a slot.
func (s *appointmentService) HasConflict(ctx context.Context, slot model.Slot, excludeID string) (bool, error) {
	if slot.DoctorID == "" || !validation.ValidHHMM(slot.Time) {
		return false, apperrors.Validation("Invalid slot", slotDetails(slot))
	}

	taken, err := s.repo.ExistsActive(ctx, slot, excludeID)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrInvalidID) {
			return false, apperrors.InvalidInput("Invalid appointment ID format")
		}
		s.cfg.Log.Error("Failed to check slot conflict", "slot", slot.Key(), "error", err)
		return false, mongotx.StorageError("Failed to check slot availability", err)
	}
	return taken, nil
}
