package mongo

import (
	"context"
	"fmt"

	appointmentsrepo "clinic/internal/appointments/repository"
	catalogrepo "clinic/internal/catalog/repository"
	doctorsrepo "clinic/internal/doctors/repository"
	"clinic/internal/migrations/mongo/validators"
	patientsrepo "clinic/internal/patients/repository"
	"clinic/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SlotIndexName names the index that closes the double-booking race: at most
// one slot-holding appointment per doctor, day and time.
const SlotIndexName = "uniq_active_slot"

var (
	AppointmentsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "doctor_id", Value: 1},
				{Key: "appointment_date", Value: 1},
				{Key: "appointment_time", Value: 1},
			},
			Options: options.Index().
				SetName(SlotIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slot_active": true}),
		},
		{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "appointment_date", Value: 1}}},
		{Keys: bson.D{{Key: "patient_email", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "appointment_date", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	PatientsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "personal_info.email", Value: 1}},
			Options: options.Index().SetName("uniq_patient_email").SetUnique(true),
		},
		{Keys: bson.D{{Key: "personal_info.phone", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	DoctorsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_doctor_email").SetUnique(true),
		},
		{Keys: bson.D{{Key: "specialization", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}},
	}

	ServicesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("uniq_service_name").SetUnique(true),
		},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}},
	}

	SlotLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the clinic owns, in creation order.
func Collections() []collectionDef {
	return []collectionDef{
		{Name: doctorsrepo.CollectionName, Indexes: DoctorsIndexes, Validator: validators.DoctorValidator},
		{Name: patientsrepo.CollectionName, Indexes: PatientsIndexes, Validator: validators.PatientValidator},
		{Name: catalogrepo.CollectionName, Indexes: ServicesIndexes, Validator: validators.ServiceValidator},
		{Name: appointmentsrepo.CollectionName, Indexes: AppointmentsIndexes, Validator: validators.AppointmentValidator},
		{Name: appointmentsrepo.LockCollectionName, Indexes: SlotLocksIndexes, Validator: validators.SlotLockValidator},
	}
}

// RunMigration creates or updates every collection with its validator and
// indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", db.Name())
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
