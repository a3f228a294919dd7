package service

import (
	"context"
	"errors"
	"sync"

	doctorserrors "clinic/internal/doctors/errors"
	"clinic/internal/doctors/repository"
	"clinic/internal/doctors/validator"
	"clinic/pkg/auth"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"
	"clinic/pkg/sanitizer"
	"clinic/pkg/validation"
)

type DoctorService interface {
	Create(ctx context.Context, req *model.DoctorRequest) (*model.Doctor, error)
	GetByID(ctx context.Context, id string) (*model.Doctor, error)
	List(ctx context.Context, filter model.DoctorFilter, page model.Page) ([]*model.Doctor, int64, error)
	Update(ctx context.Context, id string, update *model.DoctorUpdate) (*model.Doctor, error)
	Deactivate(ctx context.Context, id string) error
	Specializations(ctx context.Context) ([]string, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
}

type doctorService struct {
	repo      repository.DoctorRepository
	validator *validator.DoctorValidator
	tokens    *auth.TokenManager
	cfg       *config.Config
}

func NewDoctorService(
	repo repository.DoctorRepository,
	validator *validator.DoctorValidator,
	tokens *auth.TokenManager,
	cfg *config.Config,
) DoctorService {
	return &doctorService{
		repo:      repo,
		validator: validator,
		tokens:    tokens,
		cfg:       cfg,
	}
}

func (s *doctorService) Create(ctx context.Context, req *model.DoctorRequest) (*model.Doctor, error) {
	s.sanitizeRequest(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Doctor validation failed", "email", req.Email, "error", err)
		return nil, validationError("Doctor validation failed", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	doctor := &model.Doctor{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		PasswordHash:    hash,
		Specialization:  req.Specialization,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		Phone:           req.Phone,
		ConsultationFee: req.ConsultationFee,
		AvailableDays:   req.AvailableDays,
		AvailableHours:  req.AvailableHours,
		Bio:             req.Bio,
		ImageURL:        req.ImageURL,
		Status:          model.DoctorStatusActive,
		Role:            model.RoleDoctor,
	}
	if len(doctor.AvailableDays) == 0 {
		doctor.AvailableDays = append([]string(nil), model.DefaultAvailableDays...)
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		if errors.Is(err, doctorserrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("A doctor with this email already exists").
				WithDetails(map[string]any{"email": req.Email})
		}
		s.cfg.Log.Error("Failed to create doctor", "email", req.Email, "error", err)
		return nil, mongotx.StorageError("Failed to create doctor", err)
	}

	s.cfg.Log.Info("Doctor created successfully",
		"id", doctor.ID,
		"email", doctor.Email,
		"specialization", doctor.Specialization,
	)
	return doctor, nil
}

// GetByID returns the doctor whatever their status. Callers decide what an
// inactive doctor means for them.
func (s *doctorService) GetByID(ctx context.Context, id string) (*model.Doctor, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	doctor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(id, err)
	}
	return doctor, nil
}

func (s *doctorService) List(ctx context.Context, filter model.DoctorFilter, page model.Page) ([]*model.Doctor, int64, error) {
	filter.Search = sanitizer.TrimAndNormalize(filter.Search)
	filter.Specialization = sanitizer.TrimAndNormalize(filter.Specialization)
	filter.Status = sanitizer.NormalizeLabel(filter.Status)
	_, limit, offset := config.NormalizePage(page.Page, page.Limit)

	var count int64
	var doctors []*model.Doctor
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
	}()

	go func() {
		defer wg.Done()
		doctors, errFind = s.repo.List(ctx, filter, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count doctors", "error", errCount)
		return nil, 0, mongotx.StorageError("Failed to count doctors", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list doctors", "limit", limit, "offset", offset, "error", errFind)
		return nil, 0, mongotx.StorageError("Failed to retrieve doctors", errFind)
	}
	return doctors, count, nil
}

func (s *doctorService) Update(ctx context.Context, id string, update *model.DoctorUpdate) (*model.Doctor, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	s.sanitizeUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Doctor update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(id, err)
	}

	merged := mergeDoctor(existing, update)
	if err := s.repo.Update(ctx, merged); err != nil {
		return nil, s.mapError(id, err)
	}

	s.cfg.Log.Info("Doctor updated successfully", "id", id, "status", merged.Status)
	return merged, nil
}

// Deactivate is a soft delete. Existing appointments keep their doctor id
// and the doctor can no longer be booked or log in.
func (s *doctorService) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	if err := s.repo.SetStatus(ctx, id, model.DoctorStatusInactive); err != nil {
		return s.mapError(id, err)
	}

	s.cfg.Log.Info("Doctor deactivated", "id", id)
	return nil
}

func (s *doctorService) Specializations(ctx context.Context) ([]string, error) {
	specializations, err := s.repo.Specializations(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list specializations", "error", err)
		return nil, mongotx.StorageError("Failed to list specializations", err)
	}
	return specializations, nil
}

// Login checks the password and issues a doctor token. Unknown email and
// wrong password produce the same error.
func (s *doctorService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, validationError("Invalid login request", err)
	}

	doctor, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, doctorserrors.ErrNotFound) {
			s.cfg.Log.Warn("Login for unknown doctor", "email", req.Email)
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		s.cfg.Log.Error("Failed to load doctor for login", "email", req.Email, "error", err)
		return nil, mongotx.StorageError("Failed to log in", err)
	}

	ok, err := auth.CheckPassword(doctor.PasswordHash, req.Password)
	if err != nil {
		s.cfg.Log.Error("Failed to verify password", "doctor_id", doctor.ID, "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}
	if !ok {
		s.cfg.Log.Warn("Wrong password for doctor", "doctor_id", doctor.ID)
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if !doctor.IsActive() {
		s.cfg.Log.Warn("Inactive doctor tried to log in", "doctor_id", doctor.ID)
		return nil, apperrors.Forbidden("Doctor account is inactive")
	}

	token, expiresAt, err := s.tokens.Issue(model.Actor{
		ID:    doctor.ID,
		Role:  model.RoleDoctor,
		Email: doctor.Email,
		Name:  doctor.FullName(),
	})
	if err != nil {
		s.cfg.Log.Error("Failed to issue token", "doctor_id", doctor.ID, "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	s.cfg.Log.Info("Doctor logged in", "doctor_id", doctor.ID)
	doctor.PasswordHash = ""
	return &model.LoginResponse{Token: token, ExpiresAt: expiresAt, Doctor: doctor}, nil
}

// --- Helpers ---

func (s *doctorService) sanitizeRequest(req *model.DoctorRequest) {
	req.FirstName = sanitizer.NormalizeName(req.FirstName)
	req.LastName = sanitizer.NormalizeName(req.LastName)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.Specialization = sanitizer.TrimAndNormalize(req.Specialization)
	req.Qualification = sanitizer.TrimAndNormalize(req.Qualification)
	req.Phone = sanitizer.NormalizePhone(req.Phone)
	req.AvailableDays = sanitizer.NormalizeLabels(req.AvailableDays)
	req.Bio = sanitizer.TrimAndNormalize(req.Bio)
	req.ImageURL = sanitizer.NormalizeURL(req.ImageURL)
}

func (s *doctorService) sanitizeUpdate(update *model.DoctorUpdate) {
	trim := func(p *string, fn func(string) string) {
		if p != nil {
			*p = fn(*p)
		}
	}
	trim(update.FirstName, sanitizer.NormalizeName)
	trim(update.LastName, sanitizer.NormalizeName)
	trim(update.Specialization, sanitizer.TrimAndNormalize)
	trim(update.Qualification, sanitizer.TrimAndNormalize)
	trim(update.Phone, sanitizer.NormalizePhone)
	trim(update.Bio, sanitizer.TrimAndNormalize)
	trim(update.ImageURL, sanitizer.NormalizeURL)
	trim(update.Status, sanitizer.NormalizeLabel)
	if update.AvailableDays != nil {
		update.AvailableDays = sanitizer.NormalizeLabels(update.AvailableDays)
	}
}

func mergeDoctor(existing *model.Doctor, update *model.DoctorUpdate) *model.Doctor {
	merged := *existing
	if update.FirstName != nil {
		merged.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		merged.LastName = *update.LastName
	}
	if update.Specialization != nil {
		merged.Specialization = *update.Specialization
	}
	if update.Qualification != nil {
		merged.Qualification = *update.Qualification
	}
	if update.ExperienceYears != nil {
		merged.ExperienceYears = *update.ExperienceYears
	}
	if update.Phone != nil {
		merged.Phone = *update.Phone
	}
	if update.ConsultationFee != nil {
		merged.ConsultationFee = *update.ConsultationFee
	}
	if update.AvailableDays != nil {
		merged.AvailableDays = update.AvailableDays
	}
	if update.AvailableHours != nil {
		merged.AvailableHours = update.AvailableHours
	}
	if update.Bio != nil {
		merged.Bio = *update.Bio
	}
	if update.ImageURL != nil {
		merged.ImageURL = *update.ImageURL
	}
	if update.Status != nil {
		merged.Status = *update.Status
	}
	return &merged
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func (s *doctorService) mapError(id string, err error) error {
	switch {
	case errors.Is(err, doctorserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Doctor", id)
	case errors.Is(err, doctorserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid doctor ID format")
	}
	s.cfg.Log.Error("Doctor storage failure", "id", id, "error", err)
	return mongotx.StorageError("Failed to access doctor", err)
}
