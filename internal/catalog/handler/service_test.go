package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "clinic/pkg/errors"
	"clinic/pkg/logger"
	"clinic/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockCatalogService struct {
	created    *model.Service
	lastFilter model.ServiceFilter
}

func (m *mockCatalogService) Create(_ context.Context, svc *model.Service) (*model.Service, error) {
	m.created = svc
	svc.ID = "s1"
	return svc, nil
}

func (m *mockCatalogService) GetByID(_ context.Context, id string) (*model.Service, error) {
	if id != "s1" {
		return nil, apperrors.NotFoundWithID("Service", id)
	}
	return &model.Service{ID: "s1", Name: "ECG"}, nil
}

func (m *mockCatalogService) List(_ context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	m.lastFilter = filter
	return []*model.Service{{ID: "s1"}}, nil
}

func (m *mockCatalogService) Categories(context.Context) ([]string, error) {
	return []string{"Diagnostics"}, nil
}

func newRouter(svc *mockCatalogService, staffAuth func(httprouter.Handle) httprouter.Handle) *httprouter.Router {
	router := httprouter.New()
	NewCatalogHandler(svc, staffAuth, logger.Discard()).RegisterRoutes(router)
	return router
}

func allow(next httprouter.Handle) httprouter.Handle { return next }

func deny(httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusUnauthorized)
	}
}

func TestGetAll_DefaultsToActive(t *testing.T) {
	svc := &mockCatalogService{}
	router := newRouter(svc, deny)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services?category=Lab", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.lastFilter.Status != model.ServiceStatusActive || svc.lastFilter.Category != "Lab" {
		t.Errorf("filter = %+v", svc.lastFilter)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services?status=inactive", nil))
	if svc.lastFilter.Status != "inactive" {
		t.Errorf("explicit status ignored: %+v", svc.lastFilter)
	}
}

func TestGetByID(t *testing.T) {
	router := newRouter(&mockCatalogService{}, deny)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services/id/s1", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services/id/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}
}

func TestCreate_StaffOnly(t *testing.T) {
	body := `{"name":"ECG","duration_minutes":45,"price":80}`

	rec := httptest.NewRecorder()
	newRouter(&mockCatalogService{}, deny).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create status = %d, want 401", rec.Code)
	}

	svc := &mockCatalogService{}
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newRouter(svc, allow).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.created == nil || svc.created.DurationMinutes != 45 {
		t.Errorf("created = %+v", svc.created)
	}
}
