package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	doctorserrors "clinic/internal/doctors/errors"
	"clinic/internal/doctors/validator"
	"clinic/pkg/auth"
	"clinic/pkg/config"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/logger"
	"clinic/pkg/model"
	"clinic/pkg/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockDoctorRepository struct {
	mu      sync.Mutex
	byID    map[string]*model.Doctor
	err     error
	lastFil model.DoctorFilter
}

func newMockDoctorRepository() *mockDoctorRepository {
	return &mockDoctorRepository{byID: map[string]*model.Doctor{}}
}

func (m *mockDoctorRepository) Create(_ context.Context, d *model.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.byID {
		if existing.Email == d.Email {
			return doctorserrors.ErrEmailTaken
		}
	}
	d.ID = primitive.NewObjectID().Hex()
	stored := *d
	m.byID[d.ID] = &stored
	return nil
}

func (m *mockDoctorRepository) FindByID(_ context.Context, id string) (*model.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, doctorserrors.ErrInvalidID
	}
	d, ok := m.byID[id]
	if !ok {
		return nil, doctorserrors.ErrNotFound
	}
	out := *d
	out.PasswordHash = ""
	return &out, nil
}

func (m *mockDoctorRepository) FindByEmail(_ context.Context, email string) (*model.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, d := range m.byID {
		if d.Email == email {
			out := *d
			return &out, nil
		}
	}
	return nil, doctorserrors.ErrNotFound
}

func (m *mockDoctorRepository) List(_ context.Context, filter model.DoctorFilter, limit int, offset int64) ([]*model.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFil = filter
	if m.err != nil {
		return nil, m.err
	}
	out := []*model.Doctor{}
	for _, d := range m.byID {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	if int(offset) >= len(out) {
		return []*model.Doctor{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockDoctorRepository) Count(_ context.Context, filter model.DoctorFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, d := range m.byID {
		if filter.Status == "" || d.Status == filter.Status {
			n++
		}
	}
	return n, nil
}

func (m *mockDoctorRepository) Update(_ context.Context, d *model.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[d.ID]
	if !ok {
		return doctorserrors.ErrNotFound
	}
	stored := *d
	stored.PasswordHash = existing.PasswordHash
	m.byID[d.ID] = &stored
	return nil
}

func (m *mockDoctorRepository) SetStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !primitive.IsValidObjectID(id) {
		return doctorserrors.ErrInvalidID
	}
	d, ok := m.byID[id]
	if !ok {
		return doctorserrors.ErrNotFound
	}
	d.Status = status
	return nil
}

func (m *mockDoctorRepository) Specializations(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	seen := map[string]bool{}
	var out []string
	for _, d := range m.byID {
		if d.IsActive() && !seen[d.Specialization] {
			seen[d.Specialization] = true
			out = append(out, d.Specialization)
		}
	}
	sort.Strings(out)
	return out, nil
}

const testSecret = "test-secret"

func newTestService(repo *mockDoctorRepository, secret string) *doctorService {
	cfg := &config.Config{Log: logger.Discard()}
	tokens := auth.NewTokenManager(secret, time.Hour, "clinic-test")
	return NewDoctorService(repo, validator.NewDoctorValidator(cfg.Log), tokens, cfg).(*doctorService)
}

func doctorRequest(email string) *model.DoctorRequest {
	return &model.DoctorRequest{
		FirstName:       "gregory",
		LastName:        "house",
		Email:           email,
		Password:        "vicodin1",
		Specialization:  "Diagnostics",
		ExperienceYears: 20,
		ConsultationFee: 300,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperrors.AsAppError(err).Code; got != code {
		t.Fatalf("error code = %s (%v), want %s", got, err, code)
	}
}

func TestCreate(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, testSecret)

	doctor, err := svc.Create(context.Background(), doctorRequest(" House@Clinic.com "))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doctor.Email != "house@clinic.com" {
		t.Errorf("email = %q, want lower-cased", doctor.Email)
	}
	if doctor.Status != model.DoctorStatusActive || doctor.Role != model.RoleDoctor {
		t.Errorf("status/role = %s/%s", doctor.Status, doctor.Role)
	}
	if len(doctor.AvailableDays) != len(model.DefaultAvailableDays) {
		t.Errorf("available days = %v, want defaults", doctor.AvailableDays)
	}
	stored := repo.byID[doctor.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "vicodin1" {
		t.Errorf("password must be stored hashed, got %q", stored.PasswordHash)
	}
	if ok, _ := auth.CheckPassword(stored.PasswordHash, "vicodin1"); !ok {
		t.Error("stored hash does not match the password")
	}
}

func TestCreate_Errors(t *testing.T) {
	t.Run("duplicate email", func(t *testing.T) {
		svc := newTestService(newMockDoctorRepository(), testSecret)
		if _, err := svc.Create(context.Background(), doctorRequest("a@clinic.com")); err != nil {
			t.Fatal(err)
		}
		_, err := svc.Create(context.Background(), doctorRequest("A@clinic.com"))
		assertCode(t, err, apperrors.CodeConflict)
	})

	t.Run("validation", func(t *testing.T) {
		svc := newTestService(newMockDoctorRepository(), testSecret)
		req := doctorRequest("not-an-email")
		req.Password = "123"
		_, err := svc.Create(context.Background(), req)
		assertCode(t, err, apperrors.CodeValidation)
		errs, _ := apperrors.AsAppError(err).Details["errors"].([]validation.ValidationError)
		fields := map[string]bool{}
		for _, e := range errs {
			fields[e.Field] = true
		}
		if !fields["email"] || !fields["password"] {
			t.Errorf("details should name email and password: %v", errs)
		}
	})

	t.Run("bad weekday", func(t *testing.T) {
		svc := newTestService(newMockDoctorRepository(), testSecret)
		req := doctorRequest("a@clinic.com")
		req.AvailableDays = []string{"someday"}
		_, err := svc.Create(context.Background(), req)
		assertCode(t, err, apperrors.CodeValidation)
	})

	t.Run("storage", func(t *testing.T) {
		repo := newMockDoctorRepository()
		repo.err = errors.New("boom")
		svc := newTestService(repo, testSecret)
		_, err := svc.Create(context.Background(), doctorRequest("a@clinic.com"))
		assertCode(t, err, apperrors.CodeInternal)
	})
}

func TestGetByID(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, testSecret)
	created, _ := svc.Create(context.Background(), doctorRequest("a@clinic.com"))
	_ = svc.Deactivate(context.Background(), created.ID)

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("inactive doctors are still resolvable: %v", err)
	}
	if got.IsActive() {
		t.Error("doctor should be inactive")
	}

	_, err = svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = svc.GetByID(context.Background(), "nope")
	assertCode(t, err, apperrors.CodeInvalidInput)
	_, err = svc.GetByID(context.Background(), "")
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestUpdate(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, testSecret)
	created, _ := svc.Create(context.Background(), doctorRequest("a@clinic.com"))

	fee := 450.0
	spec := "  Nephrology "
	updated, err := svc.Update(context.Background(), created.ID, &model.DoctorUpdate{
		ConsultationFee: &fee,
		Specialization:  &spec,
		AvailableHours: map[string][]model.TimeRange{
			"monday": {{Start: "09:00", End: "12:00"}},
		},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ConsultationFee != 450 || updated.Specialization != "Nephrology" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.FirstName != created.FirstName {
		t.Error("fields not in the update must be kept")
	}

	bad := map[string][]model.TimeRange{"monday": {{Start: "12:00", End: "09:00"}}}
	_, err = svc.Update(context.Background(), created.ID, &model.DoctorUpdate{AvailableHours: bad})
	assertCode(t, err, apperrors.CodeValidation)

	status := "retired"
	_, err = svc.Update(context.Background(), created.ID, &model.DoctorUpdate{Status: &status})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = svc.Update(context.Background(), primitive.NewObjectID().Hex(), &model.DoctorUpdate{ConsultationFee: &fee})
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestList_ForwardsFilterAndPages(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, testSecret)
	for _, email := range []string{"a@c.com", "b@c.com", "c@c.com"} {
		if _, err := svc.Create(context.Background(), doctorRequest(email)); err != nil {
			t.Fatal(err)
		}
	}

	doctors, total, err := svc.List(context.Background(),
		model.DoctorFilter{Specialization: " Diagnostics ", Status: " Active "},
		model.Page{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 || len(doctors) != 1 {
		t.Errorf("total = %d, page size = %d", total, len(doctors))
	}
	if repo.lastFil.Specialization != "Diagnostics" || repo.lastFil.Status != "active" {
		t.Errorf("filter not normalized: %+v", repo.lastFil)
	}

	repo.err = errors.New("db down")
	_, _, err = svc.List(context.Background(), model.DoctorFilter{}, model.Page{})
	assertCode(t, err, apperrors.CodeInternal)
}

func TestSpecializations(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, testSecret)
	for i, spec := range []string{"Neurology", "Cardiology", "Neurology"} {
		req := doctorRequest(strings.Repeat("x", i+1) + "@c.com")
		req.Specialization = spec
		if _, err := svc.Create(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}

	got, err := svc.Specializations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "Cardiology,Neurology" {
		t.Errorf("specializations = %v", got)
	}
}

func TestLogin(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, testSecret)
	created, _ := svc.Create(context.Background(), doctorRequest("house@clinic.com"))

	resp, err := svc.Login(context.Background(), &model.LoginRequest{Email: "HOUSE@clinic.com", Password: "vicodin1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Doctor.ID != created.ID || resp.Doctor.PasswordHash != "" {
		t.Errorf("login doctor = %+v", resp.Doctor)
	}

	claims, err := auth.NewTokenManager(testSecret, time.Hour, "clinic-test").Parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if actor := claims.Actor(); actor.ID != created.ID || actor.Role != model.RoleDoctor {
		t.Errorf("token actor = %+v", actor)
	}
}

func TestLogin_Rejections(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, testSecret)
	active, _ := svc.Create(context.Background(), doctorRequest("active@clinic.com"))
	inactive, _ := svc.Create(context.Background(), doctorRequest("inactive@clinic.com"))
	_ = svc.Deactivate(context.Background(), inactive.ID)
	_ = active

	tests := []struct {
		name     string
		req      model.LoginRequest
		wantCode string
	}{
		{"wrong password", model.LoginRequest{Email: "active@clinic.com", Password: "nope"}, apperrors.CodeUnauthorized},
		{"unknown email", model.LoginRequest{Email: "ghost@clinic.com", Password: "vicodin1"}, apperrors.CodeUnauthorized},
		{"inactive", model.LoginRequest{Email: "inactive@clinic.com", Password: "vicodin1"}, apperrors.CodeForbidden},
		{"missing password", model.LoginRequest{Email: "active@clinic.com"}, apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Login(context.Background(), &req)
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestLogin_NoSecret(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, "")
	if _, err := svc.Create(context.Background(), doctorRequest("a@clinic.com")); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Login(context.Background(), &model.LoginRequest{Email: "a@clinic.com", Password: "vicodin1"})
	assertCode(t, err, apperrors.CodeInternal)
}

func TestDeactivate(t *testing.T) {
	repo := newMockDoctorRepository()
	svc := newTestService(repo, testSecret)
	created, _ := svc.Create(context.Background(), doctorRequest("a@clinic.com"))

	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if repo.byID[created.ID].Status != model.DoctorStatusInactive {
		t.Error("doctor should be soft deleted")
	}
	assertCode(t, svc.Deactivate(context.Background(), primitive.NewObjectID().Hex()), apperrors.CodeNotFound)
}
