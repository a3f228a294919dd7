//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	appointmentserrors "clinic/internal/appointments/errors"
	"clinic/internal/appointments/repository"
	mongoMigration "clinic/internal/migrations/mongo"
	"clinic/pkg/client"
	"clinic/pkg/config"
	"clinic/pkg/logger"
	"clinic/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectionTimeout = 10 * time.Second

// newMongoConfig connects to MONGO_URI, migrates a throwaway database and
// drops it when the test ends.
func newMongoConfig(t *testing.T) *config.Config {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = config.DefaultMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		t.Skipf("MongoDB not reachable at %s: %v", uri, err)
	}

	dbName := fmt.Sprintf("clinic_it_%d", time.Now().UnixNano())
	cfg := &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		SlotLockTTL:       5 * time.Second,
		Log:               logger.Discard(),
		Client:            &client.Client{Mongo: mc},
	}

	if err := mongoMigration.RunMigration(ctx, mc.Database(dbName), cfg.Log); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		defer cancel()
		if err := mc.Database(dbName).Drop(ctx); err != nil {
			t.Logf("warning: failed to drop %s: %v", dbName, err)
		}
		_ = mc.Disconnect(ctx)
	})
	return cfg
}

func appointmentAt(doctorID string, day time.Time, hhmm string) *model.Appointment {
	a := &model.Appointment{
		Patient:         model.PatientSnapshot{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com"},
		PatientName:     "Ada Lovelace",
		PatientEmail:    "a@x.com",
		DoctorID:        doctorID,
		AppointmentDate: day,
		AppointmentTime: hhmm,
		Duration:        30,
		Reason:          "Annual check-up",
		Priority:        model.PriorityMedium,
		CreatedBy:       model.RolePatient,
	}
	a.SetStatus(model.StatusPending)
	return a
}

func TestSlotIndex_OneActiveAppointmentPerSlot(t *testing.T) {
	cfg := newMongoConfig(t)
	repo := repository.NewMongoAppointmentRepository(cfg)
	ctx := context.Background()

	doctorID := primitive.NewObjectID().Hex()
	day := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)

	const writers = 10
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Create(ctx, appointmentAt(doctorID, day, "09:00"))
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, appointmentserrors.ErrSlotTaken):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("created = %d, want exactly 1", created)
	}
}

func TestSlotIndex_CancelledFreesSlot(t *testing.T) {
	cfg := newMongoConfig(t)
	repo := repository.NewMongoAppointmentRepository(cfg)
	ctx := context.Background()

	doctorID := primitive.NewObjectID().Hex()
	day := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)

	first := appointmentAt(doctorID, day, "10:00")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpdateStatus(ctx, first.ID, model.StatusPending, model.StatusCancelled, ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	taken, err := repo.ExistsActive(ctx, first.Slot(), "")
	if err != nil || taken {
		t.Fatalf("ExistsActive() = %v, %v; cancelled appointments must not hold the slot", taken, err)
	}
	if err := repo.Create(ctx, appointmentAt(doctorID, day, "10:00")); err != nil {
		t.Errorf("rebooking a cancelled slot failed: %v", err)
	}

	if _, err := repo.UpdateStatus(ctx, first.ID, model.StatusPending, model.StatusConfirmed, ""); !errors.Is(err, appointmentserrors.ErrStatusChanged) {
		t.Errorf("stale transition error = %v, want ErrStatusChanged", err)
	}
}

func TestMongoSlotLocker_Exclusive(t *testing.T) {
	cfg := newMongoConfig(t)
	locker := repository.NewMongoSlotLocker(cfg)
	slot := model.Slot{
		DoctorID: primitive.NewObjectID().Hex(),
		Date:     time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC),
		Time:     "11:00",
	}

	err := locker.WithSlotLock(context.Background(), slot, func(ctx context.Context) error {
		inner := locker.WithSlotLock(ctx, slot, func(context.Context) error { return nil })
		if !errors.Is(inner, appointmentserrors.ErrLockNotAcquired) {
			t.Errorf("nested lock error = %v, want ErrLockNotAcquired", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSlotLock() error = %v", err)
	}

	if err := locker.WithSlotLock(context.Background(), slot, func(context.Context) error { return nil }); err != nil {
		t.Errorf("lock not released: %v", err)
	}
}
