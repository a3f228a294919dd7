package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	catalogrepo "clinic/internal/catalog/repository"
	catalogservice "clinic/internal/catalog/service"
	catalogvalidator "clinic/internal/catalog/validator"
	doctorsrepo "clinic/internal/doctors/repository"
	doctorsservice "clinic/internal/doctors/service"
	doctorsvalidator "clinic/internal/doctors/validator"
	patientsrepo "clinic/internal/patients/repository"
	patientsservice "clinic/internal/patients/service"
	patientsvalidator "clinic/internal/patients/validator"
	"clinic/pkg/auth"
	"clinic/pkg/config"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"

	"github.com/brianvoe/gofakeit/v7"
)

const JobName = "clinic-seed"

// DefaultDoctorPassword lets seeded doctors log in on a development stack.
const DefaultDoctorPassword = "doctor123"

var specializations = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var catalog = []model.Service{
	{Name: "General Consultation", DurationMinutes: 30, Price: 50, Category: "Consultation"},
	{Name: "Follow-up Visit", DurationMinutes: 15, Price: 30, Category: "Consultation"},
	{Name: "ECG", DurationMinutes: 45, Price: 80, Category: "Diagnostics", Features: []string{"12-lead ECG", "Cardiologist review"}},
	{Name: "Blood Panel", DurationMinutes: 20, Price: 60, Category: "Laboratory"},
	{Name: "Skin Check", DurationMinutes: 30, Price: 70, Category: "Dermatology"},
	{Name: "Vaccination", DurationMinutes: 15, Price: 25, Category: "Preventive"},
}

func main() {
	doctors := flag.Int("doctors", 20, "number of doctors to create")
	patients := flag.Int("patients", 200, "number of patients to create")
	flag.Parse()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	gofakeit.Seed(time.Now().UnixNano())

	seedCatalog(ctx, cfg)
	seedDoctors(ctx, cfg, *doctors)
	seedPatients(ctx, cfg, *patients)

	cfg.Log.Info("Seed complete")
}

func seedCatalog(ctx context.Context, cfg *config.Config) {
	svc := catalogservice.NewCatalogService(
		catalogrepo.NewMongoServiceRepository(cfg),
		catalogvalidator.NewServiceValidator(cfg.Log),
		cfg,
	)

	created := 0
	for _, entry := range catalog {
		entry := entry
		if _, err := svc.Create(ctx, &entry); err != nil {
			if apperrors.HasCode(err, apperrors.CodeConflict) {
				continue
			}
			cfg.Log.Fatal("Failed to seed clinic service", "name", entry.Name, "error", err)
		}
		created++
	}
	cfg.Log.Info("Clinic services seeded", "created", created)
}

func seedDoctors(ctx context.Context, cfg *config.Config, count int) {
	svc := doctorsservice.NewDoctorService(
		doctorsrepo.NewMongoDoctorRepository(cfg),
		doctorsvalidator.NewDoctorValidator(cfg.Log),
		auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry, JobName),
		cfg,
	)

	created := 0
	for i := 0; i < count; i++ {
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		req := &model.DoctorRequest{
			FirstName:       first,
			LastName:        last,
			Email:           fmt.Sprintf("%s.%s.%d@clinic.test", strings.ToLower(first), strings.ToLower(last), i),
			Password:        DefaultDoctorPassword,
			Specialization:  specializations[gofakeit.Number(0, len(specializations)-1)],
			Qualification:   "MD",
			ExperienceYears: gofakeit.Number(1, 35),
			Phone:           fakePhone(),
			ConsultationFee: float64(gofakeit.Number(40, 300)),
			Bio:             gofakeit.Sentence(12),
		}
		if _, err := svc.Create(ctx, req); err != nil {
			if apperrors.HasCode(err, apperrors.CodeConflict) {
				continue
			}
			cfg.Log.Fatal("Failed to seed doctor", "email", req.Email, "error", err)
		}
		created++
	}
	cfg.Log.Info("Doctors seeded", "created", created, "password", DefaultDoctorPassword)
}

func seedPatients(ctx context.Context, cfg *config.Config, count int) {
	svc := patientsservice.NewPatientService(
		patientsrepo.NewMongoPatientRepository(cfg),
		patientsvalidator.NewPatientValidator(cfg.Log),
		cfg,
	)

	for i := 0; i < count; i++ {
		identity := model.PatientIdentity{
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Email:     fmt.Sprintf("patient%d.%s", i, gofakeit.Email()),
			Phone:     fakePhone(),
			Address:   gofakeit.Street() + ", " + gofakeit.City(),
		}
		if _, err := svc.Upsert(ctx, identity); err != nil {
			cfg.Log.Fatal("Failed to seed patient", "email", identity.Email, "error", err)
		}
	}
	cfg.Log.Info("Patients seeded", "count", count)
}

func fakePhone() string {
	return fmt.Sprintf("+1%d%07d", gofakeit.Number(201, 989), gofakeit.Number(0, 9999999))
}
