package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "clinic/internal/appointments/errors"
	"clinic/internal/appointments/lifecycle"
	"clinic/internal/appointments/repository"
	"clinic/internal/appointments/validator"
	"clinic/internal/notifications"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"
	"clinic/pkg/sanitizer"
	"clinic/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

// DoctorDirectory resolves the doctor a booking refers to.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Doctor, error)
}

// ServiceCatalog resolves the optional clinic service of a booking.
type ServiceCatalog interface {
	GetByID(ctx context.Context, id string) (*model.Service, error)
}

// PatientResolver finds or creates the patient behind a booking.
type PatientResolver interface {
	Upsert(ctx context.Context, identity model.PatientIdentity) (*model.Patient, error)
}

type AppointmentService interface {
	Create(ctx context.Context, req *model.AppointmentRequest, actor model.Actor) (*model.Appointment, error)
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	GetForDoctor(ctx context.Context, doctorID, id string) (*model.Appointment, error)
	HasConflict(ctx context.Context, slot model.Slot, excludeID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, update *model.StatusUpdate, actor model.Actor) (*model.Appointment, error)
	Update(ctx context.Context, id string, update *model.AppointmentUpdate, actor model.Actor) (*model.Appointment, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.AppointmentFilter, page model.Page) ([]*model.Appointment, int64, error)
	ListForDoctor(ctx context.Context, doctorID string, filter model.AppointmentFilter, page model.Page) ([]*model.Appointment, int64, error)
	DoctorSchedule(ctx context.Context, doctorID string, date time.Time) ([]*model.Appointment, error)
	ListByDateRange(ctx context.Context, start, end time.Time, doctorID string) ([]*model.Appointment, error)
	RecordReminder(ctx context.Context, id string, reminder model.Reminder) (bool, error)
}

type appointmentService struct {
	repo      repository.AppointmentRepository
	locker    repository.SlotLocker
	doctors   DoctorDirectory
	catalog   ServiceCatalog
	patients  PatientResolver
	notifier  notifications.Notifier
	validator *validator.AppointmentValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	locker repository.SlotLocker,
	doctors DoctorDirectory,
	catalog ServiceCatalog,
	patients PatientResolver,
	notifier notifications.Notifier,
	validator *validator.AppointmentValidator,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:      repo,
		locker:    locker,
		doctors:   doctors,
		catalog:   catalog,
		patients:  patients,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *appointmentService) Create(ctx context.Context, req *model.AppointmentRequest, actor model.Actor) (*model.Appointment, error) {
	s.sanitizeRequest(req)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	status, allowed := lifecycle.InitialStatus(actor, req.Status)
	if !allowed {
		return nil, apperrors.Forbidden(fmt.Sprintf("%s may not book an appointment as %s", actor.Role, req.Status))
	}

	date := model.StartOfDay(req.AppointmentDate.Time)
	if err := s.checkNotPast(date); err != nil {
		return nil, err
	}

	doctor, err := s.bookableDoctor(ctx, req.DoctorID, date, req.AppointmentTime)
	if err != nil {
		return nil, err
	}

	appointment := s.buildAppointment(req, doctor, date, status, actor)
	if req.ServiceID != "" {
		if err := s.applyService(ctx, appointment, req.ServiceID, req.Duration == 0); err != nil {
			return nil, err
		}
	}

	slot := appointment.Slot()
	if conflict, err := s.HasConflict(ctx, slot, ""); err != nil {
		return nil, err
	} else if conflict {
		return nil, conflictError(slot)
	}

	err = s.withSlotLock(ctx, slot, func(lockCtx context.Context) error {
		return s.repo.ExecuteTransaction(lockCtx, func(sessCtx mongo.SessionContext) error {
			if err := s.ensureSlotFree(sessCtx, slot, ""); err != nil {
				return err
			}
			return s.repo.Create(sessCtx, appointment)
		})
	})
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrSlotTaken) {
			s.cfg.Log.Warn("Slot taken by a concurrent booking", "slot", slot.Key())
			return nil, conflictError(slot)
		}
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Failed to create appointment", "slot", slot.Key(), "error", err)
		return nil, mongotx.StorageError("Failed to create appointment", err)
	}

	s.cfg.Log.Info("Appointment created successfully",
		"id", appointment.ID,
		"doctor_id", appointment.DoctorID,
		"date", date.Format(model.DateLayout),
		"time", appointment.AppointmentTime,
		"status", appointment.Status,
		"created_by", appointment.CreatedBy,
	)

	if _, err := s.patients.Upsert(ctx, req.Patient.Identity()); err != nil {
		s.cfg.Log.Warn("Failed to upsert patient for appointment",
			"appointment_id", appointment.ID,
			"email", appointment.PatientEmail,
			"error", err,
		)
	}

	s.notify(ctx, notifications.EventCreated, appointment)
	return appointment, nil
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapFindError(id, err)
	}
	return appointment, nil
}

// GetForDoctor hides other doctors' appointments behind NotFound.
func (s *appointmentService) GetForDoctor(ctx context.Context, doctorID, id string) (*model.Appointment, error) {
	appointment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.DoctorID != doctorID {
		return nil, apperrors.NotFoundWithID("Appointment", id)
	}
	return appointment, nil
}

func (s *appointmentService) UpdateStatus(ctx context.Context, id string, update *model.StatusUpdate, actor model.Actor) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	if err := s.validator.ValidateStatus(update); err != nil {
		return nil, validationError("Invalid status update", err)
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapFindError(id, err)
	}

	if !lifecycle.CanActorTransition(actor, current, update.Status) {
		s.cfg.Log.Warn("Status update denied",
			"id", id,
			"actor_role", actor.Role,
			"actor_id", actor.ID,
			"doctor_id", current.DoctorID,
		)
		return nil, apperrors.Forbidden("You are not allowed to update this appointment")
	}

	if !lifecycle.CanTransition(current.Status, update.Status) {
		return nil, apperrors.InvalidTransition(current.Status, update.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, update.Status, update.Notes)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrStatusChanged) {
			return nil, s.lostRace(ctx, id, update.Status)
		}
		s.cfg.Log.Error("Failed to update appointment status", "id", id, "error", err)
		return nil, mongotx.StorageError("Failed to update appointment status", err)
	}

	s.cfg.Log.Info("Appointment status updated",
		"id", id,
		"from", current.Status,
		"to", updated.Status,
		"actor_role", actor.Role,
	)

	s.notify(ctx, notifications.EventStatusChanged, updated)
	return updated, nil
}

func (s *appointmentService) Update(ctx context.Context, id string, update *model.AppointmentUpdate, actor model.Actor) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	if update.Patient != nil {
		sanitizePatient(update.Patient)
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Appointment update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapFindError(id, err)
	}

	if !lifecycle.CanActorEdit(actor, existing) {
		return nil, apperrors.Forbidden("You are not allowed to edit this appointment")
	}

	target := existing.Status
	if update.Status != nil {
		target = *update.Status
	}
	if model.IsTerminalStatus(existing.Status) {
		return nil, apperrors.InvalidTransition(existing.Status, target)
	}
	if target != existing.Status && !lifecycle.CanTransition(existing.Status, target) {
		return nil, apperrors.InvalidTransition(existing.Status, target)
	}

	merged, err := s.merge(ctx, existing, update)
	if err != nil {
		return nil, err
	}

	oldSlot, newSlot := existing.Slot(), merged.Slot()
	moved := oldSlot.Key() != newSlot.Key()

	write := func(ctx context.Context) error {
		return s.repo.Update(ctx, merged, existing.Status)
	}
	if moved && merged.SlotActive {
		if conflict, err := s.HasConflict(ctx, newSlot, id); err != nil {
			return nil, err
		} else if conflict {
			return nil, conflictError(newSlot)
		}

		write = func(ctx context.Context) error {
			return s.withSlotLock(ctx, newSlot, func(lockCtx context.Context) error {
				return s.repo.ExecuteTransaction(lockCtx, func(sessCtx mongo.SessionContext) error {
					if err := s.ensureSlotFree(sessCtx, newSlot, id); err != nil {
						return err
					}
					return s.repo.Update(sessCtx, merged, existing.Status)
				})
			})
		}
	}

	if err := write(ctx); err != nil {
		switch {
		case errors.Is(err, appointmentserrors.ErrSlotTaken):
			return nil, conflictError(newSlot)
		case errors.Is(err, appointmentserrors.ErrStatusChanged):
			return nil, s.lostRace(ctx, id, target)
		case apperrors.IsAppError(err):
			return nil, err
		}
		s.cfg.Log.Error("Failed to update appointment", "id", id, "error", err)
		return nil, mongotx.StorageError("Failed to update appointment", err)
	}

	s.cfg.Log.Info("Appointment updated successfully",
		"id", id,
		"rescheduled", moved,
		"status", merged.Status,
	)

	switch {
	case moved:
		s.notify(ctx, notifications.EventRescheduled, merged)
	case merged.Status != existing.Status:
		s.notify(ctx, notifications.EventStatusChanged, merged)
	}
	return merged, nil
}

func (s *appointmentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapFindError(id, err)
	}

	s.cfg.Log.Info("Appointment deleted successfully", "id", id)
	return nil
}

func (s *appointmentService) RecordReminder(ctx context.Context, id string, reminder model.Reminder) (bool, error) {
	added, err := s.repo.AppendReminder(ctx, id, reminder)
	if err != nil {
		return false, s.mapFindError(id, err)
	}
	return added, nil
}

// --- Helpers ---

func (s *appointmentService) sanitizeRequest(req *model.AppointmentRequest) {
	sanitizePatient(&req.Patient)
	req.Reason = sanitizer.TrimAndNormalize(req.Reason)
	req.Notes = sanitizer.TrimAndNormalize(req.Notes)
	req.Symptoms = sanitizer.NormalizeTexts(req.Symptoms)
	req.Priority = sanitizer.NormalizeLabel(req.Priority)
	req.Status = sanitizer.NormalizeLabel(req.Status)
}

func sanitizePatient(p *model.PatientInput) {
	p.FirstName = sanitizer.NormalizeName(p.FirstName)
	p.LastName = sanitizer.NormalizeName(p.LastName)
	p.Email = sanitizer.NormalizeEmail(p.Email)
	p.Phone = sanitizer.NormalizePhone(p.Phone)
	p.Address = sanitizer.TrimAndNormalize(p.Address)
	if p.EmergencyContact != nil {
		p.EmergencyContact.Name = sanitizer.NormalizeName(p.EmergencyContact.Name)
		p.EmergencyContact.Phone = sanitizer.NormalizePhone(p.EmergencyContact.Phone)
		p.EmergencyContact.Relationship = sanitizer.TrimAndNormalize(p.EmergencyContact.Relationship)
	}
}

func (s *appointmentService) validateRequest(req *model.AppointmentRequest) error {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Appointment validation failed", "error", err)
		return validationError("Appointment validation failed", err)
	}
	return nil
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func (s *appointmentService) checkNotPast(date time.Time) error {
	if date.Before(model.StartOfDay(s.now())) {
		return apperrors.Validation("Appointment date cannot be in the past", map[string]any{
			"appointment_date": date.Format(model.DateLayout),
		})
	}
	return nil
}

// bookableDoctor loads the doctor and checks they are active and work at hhmm
// on date.
func (s *appointmentService) bookableDoctor(ctx context.Context, doctorID string, date time.Time, hhmm string) (*model.Doctor, error) {
	doctor, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsActive() {
		return nil, apperrors.Validation("Doctor is inactive", map[string]any{"doctor_id": doctorID})
	}
	if !doctor.Offers(date, hhmm) {
		return nil, apperrors.Validation("Doctor is not available at the requested time", map[string]any{
			"doctor_id": doctorID,
			"date":      date.Format(model.DateLayout),
			"time":      hhmm,
		})
	}
	return doctor, nil
}

func (s *appointmentService) applyService(ctx context.Context, appointment *model.Appointment, serviceID string, useServiceDuration bool) error {
	svc, err := s.catalog.GetByID(ctx, serviceID)
	if err != nil {
		return err
	}
	if svc.Status == model.ServiceStatusInactive {
		return apperrors.Validation("Service is inactive", map[string]any{"service_id": serviceID})
	}
	appointment.ServiceID = svc.ID
	appointment.ServiceName = svc.Name
	if useServiceDuration && svc.DurationMinutes > 0 {
		appointment.Duration = svc.DurationMinutes
	}
	return nil
}

// buildAppointment copies the patient identity and the doctor's
// specialization onto the record. Later edits to either source never flow
// back into it.
func (s *appointmentService) buildAppointment(req *model.AppointmentRequest, doctor *model.Doctor, date time.Time, status string, actor model.Actor) *model.Appointment {
	appointment := &model.Appointment{
		DoctorID:             doctor.ID,
		DoctorSpecialization: doctor.Specialization,
		AppointmentDate:      date,
		AppointmentTime:      req.AppointmentTime,
		Duration:             req.Duration,
		Reason:               req.Reason,
		Symptoms:             req.Symptoms,
		Notes:                req.Notes,
		Priority:             req.Priority,
		CreatedBy:            actor.Role,
		Payment:              model.Payment{Amount: doctor.ConsultationFee, Status: "pending"},
	}
	appointment.SetStatus(status)
	applyPatient(appointment, &req.Patient)

	if appointment.Duration == 0 {
		appointment.Duration = s.cfg.DefaultAppointmentDurationMin
	}
	if appointment.Priority == "" {
		appointment.Priority = model.PriorityMedium
	}
	if appointment.CreatedBy == "" {
		appointment.CreatedBy = model.RolePatient
	}
	if req.FollowUp != nil {
		appointment.FollowUp = &model.FollowUp{
			Required: req.FollowUp.Required,
			Date:     req.FollowUp.Date,
			Notes:    req.FollowUp.Notes,
		}
	}
	if req.Payment != nil {
		appointment.Payment = *req.Payment
		if appointment.Payment.Status == "" {
			appointment.Payment.Status = "pending"
		}
	}
	return appointment
}

func applyPatient(appointment *model.Appointment, p *model.PatientInput) {
	appointment.Patient = model.PatientSnapshot{
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		Phone:            p.Phone,
		DateOfBirth:      p.DateOfBirth,
		Gender:           p.Gender,
		Address:          p.Address,
		EmergencyContact: p.EmergencyContact,
	}
	appointment.PatientName = p.FirstName + " " + p.LastName
	appointment.PatientEmail = p.Email
	appointment.PatientPhone = p.Phone
}

func (s *appointmentService) merge(ctx context.Context, existing *model.Appointment, update *model.AppointmentUpdate) (*model.Appointment, error) {
	merged := *existing

	if update.Patient != nil {
		applyPatient(&merged, update.Patient)
	}
	if update.DoctorID != nil {
		merged.DoctorID = *update.DoctorID
	}
	if update.AppointmentDate != nil {
		merged.AppointmentDate = model.StartOfDay(update.AppointmentDate.Time)
		if err := s.checkNotPast(merged.AppointmentDate); err != nil {
			return nil, err
		}
	}
	if update.AppointmentTime != nil {
		merged.AppointmentTime = *update.AppointmentTime
	}
	if update.Duration != nil {
		merged.Duration = *update.Duration
	}
	if update.Status != nil {
		merged.SetStatus(*update.Status)
	}
	if update.Reason != nil {
		merged.Reason = sanitizer.TrimAndNormalize(*update.Reason)
	}
	if update.Symptoms != nil {
		merged.Symptoms = sanitizer.NormalizeTexts(update.Symptoms)
	}
	if update.Notes != nil {
		merged.Notes = sanitizer.TrimAndNormalize(*update.Notes)
	}
	if update.Priority != nil {
		merged.Priority = *update.Priority
	}
	if update.FollowUp != nil {
		merged.FollowUp = &model.FollowUp{
			Required: update.FollowUp.Required,
			Date:     update.FollowUp.Date,
			Notes:    update.FollowUp.Notes,
		}
	}
	if update.Payment != nil {
		merged.Payment = *update.Payment
	}

	if update.MovesSlot() {
		doctor, err := s.bookableDoctor(ctx, merged.DoctorID, merged.AppointmentDate, merged.AppointmentTime)
		if err != nil {
			return nil, err
		}
		if update.DoctorID != nil {
			merged.DoctorSpecialization = doctor.Specialization
		}
	}

	return &merged, nil
}

func (s *appointmentService) withSlotLock(ctx context.Context, slot model.Slot, fn func(ctx context.Context) error) error {
	err := s.locker.WithSlotLock(ctx, slot, fn)
	if errors.Is(err, appointmentserrors.ErrLockNotAcquired) {
		s.cfg.Log.Warn("Slot is locked by another request", "slot", slot.Key())
		return apperrors.Conflict("This time slot is currently being booked by another request. Please try again.").
			WithDetails(slotDetails(slot))
	}
	return err
}

// ensureSlotFree repeats the conflict check while the slot lock is held.
func (s *appointmentService) ensureSlotFree(ctx context.Context, slot model.Slot, excludeID string) error {
	taken, err := s.repo.ExistsActive(ctx, slot, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return appointmentserrors.ErrSlotTaken
	}
	return nil
}

// lostRace re-reads an appointment whose conditional write matched nothing
// and reports the status it moved to.
func (s *appointmentService) lostRace(ctx context.Context, id, requested string) error {
	latest, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapFindError(id, err)
	}
	s.cfg.Log.Warn("Concurrent status change detected", "id", id, "current", latest.Status, "requested", requested)
	return apperrors.InvalidTransition(latest.Status, requested)
}

func (s *appointmentService) mapFindError(id string, err error) error {
	switch {
	case errors.Is(err, appointmentserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Appointment", id)
	case errors.Is(err, appointmentserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid appointment ID format")
	}
	s.cfg.Log.Error("Appointment storage failure", "id", id, "error", err)
	return mongotx.StorageError("Failed to access appointment", err)
}

func (s *appointmentService) notify(ctx context.Context, event string, appointment *model.Appointment) {
	channel := notifications.ChannelFor(appointment)
	if err := s.notifier.Notify(ctx, event, appointment, channel); err != nil {
		s.cfg.Log.Warn("Failed to send appointment notification",
			"event", event,
			"appointment_id", appointment.ID,
			"channel", channel,
			"error", err,
		)
	}
}

func conflictError(slot model.Slot) error {
	return apperrors.Conflict("Slot already booked").WithDetails(slotDetails(slot))
}

func slotDetails(slot model.Slot) map[string]any {
	return map[string]any{
		"doctor_id": slot.DoctorID,
		"date":      model.StartOfDay(slot.Date).Format(model.DateLayout),
		"time":      slot.Time,
	}
}
