package service

import (
	"context"
	"errors"
	"sync"
	"time"

	patientserrors "clinic/internal/patients/errors"
	"clinic/internal/patients/repository"
	"clinic/internal/patients/validator"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"
	"clinic/pkg/sanitizer"
	"clinic/pkg/validation"
)

// maxUpsertAttempts bounds the update/insert loop when two bookings register
// the same new email at once.
const maxUpsertAttempts = 3

type PatientService interface {
	Upsert(ctx context.Context, identity model.PatientIdentity) (*model.Patient, error)
	GetByID(ctx context.Context, id string) (*model.Patient, error)
	GetByEmail(ctx context.Context, email string) (*model.Patient, error)
	List(ctx context.Context, filter model.PatientFilter, page model.Page) ([]*model.Patient, int64, error)
	AddVisit(ctx context.Context, id string, visit *model.Visit) (*model.Patient, error)
}

type patientService struct {
	repo      repository.PatientRepository
	validator *validator.PatientValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewPatientService(repo repository.PatientRepository, validator *validator.PatientValidator, cfg *config.Config) PatientService {
	return &patientService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Upsert finds the patient by email and overwrites their personal and
// contact details, or registers a new patient. The last write wins.
func (s *patientService) Upsert(ctx context.Context, identity model.PatientIdentity) (*model.Patient, error) {
	identity.Email = sanitizer.NormalizeEmail(identity.Email)
	if err := s.validator.ValidateEmail(identity.Email); err != nil {
		return nil, apperrors.Validation("A valid patient email is required", map[string]any{"email": identity.Email})
	}

	existing, err := s.repo.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil && existing.HasIdentity(identity):
		s.cfg.Log.Debug("Patient details unchanged", "id", existing.ID, "email", identity.Email)
		return existing, nil
	case err != nil && !errors.Is(err, patientserrors.ErrNotFound):
		s.cfg.Log.Error("Failed to look up patient", "email", identity.Email, "error", err)
		return nil, mongotx.StorageError("Failed to look up patient", err)
	}

	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		patient, err := s.repo.UpdateIdentity(ctx, identity)
		if err == nil {
			s.cfg.Log.Debug("Patient details refreshed", "id", patient.ID, "email", identity.Email)
			return patient, nil
		}
		if !errors.Is(err, patientserrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to update patient", "email", identity.Email, "error", err)
			return nil, mongotx.StorageError("Failed to update patient", err)
		}

		patient = s.newPatient(identity)
		err = s.repo.Create(ctx, patient)
		if err == nil {
			s.cfg.Log.Info("Patient registered", "id", patient.ID, "email", identity.Email)
			return patient, nil
		}
		if !errors.Is(err, patientserrors.ErrEmailTaken) {
			s.cfg.Log.Error("Failed to create patient", "email", identity.Email, "error", err)
			return nil, mongotx.StorageError("Failed to create patient", err)
		}

		s.cfg.Log.Warn("Patient registered concurrently, retrying as update",
			"email", identity.Email,
			"attempt", attempt,
		)
	}

	return nil, apperrors.Conflict("Patient record is being modified concurrently. Please try again.")
}

func (s *patientService) newPatient(identity model.PatientIdentity) *model.Patient {
	return &model.Patient{
		PersonalInfo: model.PersonalInfo{
			FirstName:   identity.FirstName,
			LastName:    identity.LastName,
			Email:       identity.Email,
			Phone:       identity.Phone,
			DateOfBirth: identity.DateOfBirth,
			Gender:      identity.Gender,
		},
		ContactInfo: model.ContactInfo{
			Address:          identity.Address,
			EmergencyContact: identity.EmergencyContact,
		},
		VisitHistory:     []model.Visit{},
		Status:           model.PatientStatusActive,
		RegistrationDate: s.now().UTC(),
	}
}

func (s *patientService) GetByID(ctx context.Context, id string) (*model.Patient, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Patient ID cannot be empty")
	}

	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(id, err)
	}
	return patient, nil
}

func (s *patientService) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("Patient email cannot be empty")
	}

	patient, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.mapError(email, err)
	}
	return patient, nil
}

func (s *patientService) List(ctx context.Context, filter model.PatientFilter, page model.Page) ([]*model.Patient, int64, error) {
	filter.Search = sanitizer.TrimAndNormalize(filter.Search)
	filter.Status = sanitizer.NormalizeLabel(filter.Status)
	_, limit, offset := config.NormalizePage(page.Page, page.Limit)

	var count int64
	var patients []*model.Patient
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
	}()

	go func() {
		defer wg.Done()
		patients, errFind = s.repo.List(ctx, filter, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count patients", "error", errCount)
		return nil, 0, mongotx.StorageError("Failed to count patients", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list patients", "error", errFind)
		return nil, 0, mongotx.StorageError("Failed to retrieve patients", errFind)
	}
	return patients, count, nil
}

// AddVisit records a completed visit. The date defaults to now.
func (s *patientService) AddVisit(ctx context.Context, id string, visit *model.Visit) (*model.Patient, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Patient ID cannot be empty")
	}
	if visit.Date.IsZero() {
		visit.Date = s.now().UTC()
	}
	visit.Diagnosis = sanitizer.TrimAndNormalize(visit.Diagnosis)
	visit.Treatment = sanitizer.TrimAndNormalize(visit.Treatment)
	visit.Notes = sanitizer.TrimAndNormalize(visit.Notes)
	visit.Prescriptions = sanitizer.NormalizeTexts(visit.Prescriptions)

	if err := s.validator.ValidateVisit(visit); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Invalid visit", verrs.Details())
		}
		return nil, apperrors.Validation("Invalid visit", map[string]any{"error": err.Error()})
	}

	patient, err := s.repo.AddVisit(ctx, id, *visit)
	if err != nil {
		return nil, s.mapError(id, err)
	}

	s.cfg.Log.Info("Visit recorded",
		"patient_id", id,
		"appointment_id", visit.AppointmentID,
		"total_visits", patient.TotalVisits,
	)
	return patient, nil
}

func (s *patientService) mapError(key string, err error) error {
	switch {
	case errors.Is(err, patientserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Patient", key)
	case errors.Is(err, patientserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid patient ID format")
	}
	s.cfg.Log.Error("Patient storage failure", "key", key, "error", err)
	return mongotx.StorageError("Failed to access patient", err)
}
