package service

import (
	"context"
	"errors"

	catalogerrors "clinic/internal/catalog/errors"
	"clinic/internal/catalog/repository"
	"clinic/internal/catalog/validator"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"
	"clinic/pkg/sanitizer"
	"clinic/pkg/validation"
)

type CatalogService interface {
	Create(ctx context.Context, svc *model.Service) (*model.Service, error)
	GetByID(ctx context.Context, id string) (*model.Service, error)
	List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error)
	Categories(ctx context.Context) ([]string, error)
}

type catalogService struct {
	repo      repository.ServiceRepository
	validator *validator.ServiceValidator
	cfg       *config.Config
}

func NewCatalogService(repo repository.ServiceRepository, validator *validator.ServiceValidator, cfg *config.Config) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *catalogService) Create(ctx context.Context, svc *model.Service) (*model.Service, error) {
	svc.Name = sanitizer.TrimAndNormalize(svc.Name)
	svc.Description = sanitizer.TrimAndNormalize(svc.Description)
	svc.Category = sanitizer.TrimAndNormalize(svc.Category)
	svc.Features = sanitizer.NormalizeTexts(svc.Features)
	svc.ImageURL = sanitizer.NormalizeURL(svc.ImageURL)
	svc.Status = sanitizer.NormalizeLabel(svc.Status)
	if svc.Status == "" {
		svc.Status = model.ServiceStatusActive
	}

	if err := s.validator.Validate(svc); err != nil {
		s.cfg.Log.Warn("Clinic service validation failed", "name", svc.Name, "error", err)
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Clinic service validation failed", verrs.Details())
		}
		return nil, apperrors.Validation("Clinic service validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		if errors.Is(err, catalogerrors.ErrNameTaken) {
			return nil, apperrors.Conflict("A clinic service with this name already exists").
				WithDetails(map[string]any{"name": svc.Name})
		}
		s.cfg.Log.Error("Failed to create clinic service", "name", svc.Name, "error", err)
		return nil, mongotx.StorageError("Failed to create clinic service", err)
	}

	s.cfg.Log.Info("Clinic service created", "id", svc.ID, "name", svc.Name)
	return svc, nil
}

// GetByID returns the service whatever its status, so it also resolves
// the catalog entry referenced by a booking.
func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, catalogerrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Service", id)
		case errors.Is(err, catalogerrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		s.cfg.Log.Error("Failed to get clinic service", "id", id, "error", err)
		return nil, mongotx.StorageError("Failed to retrieve clinic service", err)
	}
	return svc, nil
}

func (s *catalogService) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	filter.Status = sanitizer.NormalizeLabel(filter.Status)
	filter.Category = sanitizer.TrimAndNormalize(filter.Category)

	services, err := s.repo.List(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list clinic services", "error", err)
		return nil, mongotx.StorageError("Failed to retrieve clinic services", err)
	}
	return services, nil
}

func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list service categories", "error", err)
		return nil, mongotx.StorageError("Failed to retrieve service categories", err)
	}
	return categories, nil
}
