package validator

import (
	"fmt"
	"slices"

	"clinic/pkg/logger"
	"clinic/pkg/model"
	"clinic/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type AppointmentValidator struct {
	validate  *validator.Validate
	slotTimes []string
	logger    *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger, slotTimes []string) *AppointmentValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize appointment validator", "error", err)
	}

	log.Info("Appointment validator initialized successfully", "slot_times", len(slotTimes))

	return &AppointmentValidator{
		validate:  v,
		slotTimes: slotTimes,
		logger:    log,
	}
}

func (v *AppointmentValidator) ValidateRequest(req *model.AppointmentRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	return v.validateSlotTime("appointment_time", req.AppointmentTime)
}

func (v *AppointmentValidator) ValidateUpdate(update *model.AppointmentUpdate) error {
	if err := validation.Struct(v.validate, update); err != nil {
		return err
	}
	if update.AppointmentTime != nil {
		return v.validateSlotTime("appointment_time", *update.AppointmentTime)
	}
	return nil
}

func (v *AppointmentValidator) ValidateStatus(update *model.StatusUpdate) error {
	return validation.Struct(v.validate, update)
}

// validateSlotTime rejects times outside the offered grid. An empty grid
// accepts any HH:MM.
func (v *AppointmentValidator) validateSlotTime(field, hhmm string) error {
	if len(v.slotTimes) == 0 || slices.Contains(v.slotTimes, hhmm) {
		return nil
	}
	return validation.ValidationErrors{{
		Field:   field,
		Message: fmt.Sprintf("%s %s is not an offered slot", field, hhmm),
	}}
}
