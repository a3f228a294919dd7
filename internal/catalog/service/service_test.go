package service

import (
	"context"
	"errors"
	"testing"

	catalogerrors "clinic/internal/catalog/errors"
	"clinic/internal/catalog/validator"
	"clinic/pkg/config"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/logger"
	"clinic/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockServiceRepository struct {
	services   map[string]*model.Service
	lastFilter model.ServiceFilter
	err        error
}

func (m *mockServiceRepository) Create(_ context.Context, svc *model.Service) error {
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.services {
		if existing.Name == svc.Name {
			return catalogerrors.ErrNameTaken
		}
	}
	svc.ID = primitive.NewObjectID().Hex()
	m.services[svc.ID] = svc
	return nil
}

func (m *mockServiceRepository) FindByID(_ context.Context, id string) (*model.Service, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, catalogerrors.ErrInvalidID
	}
	svc, ok := m.services[id]
	if !ok {
		return nil, catalogerrors.ErrNotFound
	}
	return svc, nil
}

func (m *mockServiceRepository) List(_ context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	out := []*model.Service{}
	for _, svc := range m.services {
		out = append(out, svc)
	}
	return out, nil
}

func (m *mockServiceRepository) Categories(context.Context) ([]string, error) {
	return []string{"Diagnostics"}, m.err
}

func newTestService(repo *mockServiceRepository) CatalogService {
	cfg := &config.Config{Log: logger.Discard()}
	return NewCatalogService(repo, validator.NewServiceValidator(cfg.Log), cfg)
}

func TestCreate(t *testing.T) {
	repo := &mockServiceRepository{services: map[string]*model.Service{}}
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), &model.Service{
		Name:            "  ECG   screening ",
		DurationMinutes: 45,
		Price:           80,
		Features:        []string{" rest ECG ", "rest ECG", ""},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Name != "ECG screening" || created.Status != model.ServiceStatusActive {
		t.Errorf("created = %+v", created)
	}
	if len(created.Features) != 1 {
		t.Errorf("features = %v, want deduplicated", created.Features)
	}

	_, err = svc.Create(context.Background(), &model.Service{Name: "ECG screening", DurationMinutes: 30})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("duplicate name error = %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(&mockServiceRepository{services: map[string]*model.Service{}})

	tests := []struct {
		name string
		in   model.Service
	}{
		{"missing name", model.Service{DurationMinutes: 30}},
		{"too short", model.Service{Name: "X-ray", DurationMinutes: 2}},
		{"negative price", model.Service{Name: "X-ray", DurationMinutes: 30, Price: -1}},
		{"bad status", model.Service{Name: "X-ray", DurationMinutes: 30, Status: "archived"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			_, err := svc.Create(context.Background(), &in)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("error = %v, want validation", err)
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	id := primitive.NewObjectID().Hex()
	repo := &mockServiceRepository{services: map[string]*model.Service{
		id: {ID: id, Name: "ECG", Status: model.ServiceStatusInactive},
	}}
	svc := newTestService(repo)

	got, err := svc.GetByID(context.Background(), id)
	if err != nil || got.Name != "ECG" {
		t.Fatalf("GetByID() = %v, %v", got, err)
	}

	tests := []struct {
		id   string
		code string
	}{
		{"", apperrors.CodeInvalidInput},
		{"bad", apperrors.CodeInvalidInput},
		{primitive.NewObjectID().Hex(), apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		if _, err := svc.GetByID(context.Background(), tt.id); !apperrors.HasCode(err, tt.code) {
			t.Errorf("GetByID(%q) error = %v, want %s", tt.id, err, tt.code)
		}
	}

	repo.err = errors.New("boom")
	if _, err := svc.GetByID(context.Background(), id); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("storage error = %v", err)
	}
}

func TestList_NormalizesFilter(t *testing.T) {
	repo := &mockServiceRepository{services: map[string]*model.Service{}}
	svc := newTestService(repo)

	if _, err := svc.List(context.Background(), model.ServiceFilter{Status: " ACTIVE ", Category: " Diagnostics  "}); err != nil {
		t.Fatal(err)
	}
	if repo.lastFilter.Status != "active" || repo.lastFilter.Category != "Diagnostics" {
		t.Errorf("filter = %+v", repo.lastFilter)
	}
}
