package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	patientserrors "clinic/internal/patients/errors"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	"clinic/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Patients"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	FindByID(ctx context.Context, id string) (*model.Patient, error)
	FindByEmail(ctx context.Context, email string) (*model.Patient, error)
	UpdateIdentity(ctx context.Context, identity model.PatientIdentity) (*model.Patient, error)
	List(ctx context.Context, filter model.PatientFilter, limit int, offset int64) ([]*model.Patient, error)
	Count(ctx context.Context, filter model.PatientFilter) (int64, error)
	AddVisit(ctx context.Context, id string, visit model.Visit) (*model.Patient, error)
}

type mongoPatientRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPatientRepository(cfg *config.Config) PatientRepository {
	return &mongoPatientRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoPatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	patient.ID = ""
	patient.CreatedAt = now
	patient.UpdatedAt = now
	if patient.RegistrationDate.IsZero() {
		patient.RegistrationDate = now
	}
	if patient.VisitHistory == nil {
		patient.VisitHistory = []model.Visit{}
	}

	result, err := r.collection.InsertOne(ctx, patient)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return patientserrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		patient.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPatientRepository) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", patientserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoPatientRepository) FindByEmail(ctx context.Context, email string) (*model.Patient, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"personal_info.email": email})
}

func (r *mongoPatientRepository) findOne(ctx context.Context, filter bson.M) (*model.Patient, error) {
	var patient model.Patient
	if err := r.collection.FindOne(ctx, filter).Decode(&patient); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, patientserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}
	return &patient, nil
}

// UpdateIdentity replaces the personal and contact fields of the patient
// registered under identity.Email. Fields left empty in identity are removed,
// never kept from the stored record. Medical info and visits are untouched.
func (r *mongoPatientRepository) UpdateIdentity(ctx context.Context, identity model.PatientIdentity) (*model.Patient, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := identityUpdate(identity, time.Now().UTC().Truncate(time.Millisecond))

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var patient model.Patient
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"personal_info.email": identity.Email}, update, opts).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, patientserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return &patient, nil
}

func (r *mongoPatientRepository) List(ctx context.Context, filter model.PatientFilter, limit int, offset int64) ([]*model.Patient, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"visit_history": 0})

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find patients: %w", err)
	}
	defer cursor.Close(ctx)

	patients := []*model.Patient{}
	if err = cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("failed to decode patients: %w", err)
	}
	return patients, nil
}

func (r *mongoPatientRepository) Count(ctx context.Context, filter model.PatientFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

// AddVisit appends visit to the history, bumps total_visits and moves
// last_visit forward in one update.
func (r *mongoPatientRepository) AddVisit(ctx context.Context, id string, visit model.Visit) (*model.Patient, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", patientserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$push": bson.M{"visit_history": visit},
		"$inc":  bson.M{"total_visits": 1},
		"$max":  bson.M{"last_visit": visit.Date},
		"$set":  bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var patient model.Patient
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, patientserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to add visit: %w", err)
	}
	return &patient, nil
}

func identityUpdate(identity model.PatientIdentity, now time.Time) bson.M {
	set := bson.M{
		"personal_info.first_name": identity.FirstName,
		"personal_info.last_name":  identity.LastName,
		"personal_info.phone":      identity.Phone,
		"updated_at":               now,
	}
	unset := bson.M{}

	optional := []struct {
		field string
		value any
		empty bool
	}{
		{"personal_info.date_of_birth", identity.DateOfBirth, identity.DateOfBirth == nil},
		{"personal_info.gender", identity.Gender, identity.Gender == ""},
		{"contact_info.address", identity.Address, identity.Address == ""},
		{"contact_info.emergency_contact", identity.EmergencyContact, identity.EmergencyContact == nil},
	}
	for _, f := range optional {
		if f.empty {
			unset[f.field] = ""
		} else {
			set[f.field] = f.value
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func buildFilter(filter model.PatientFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"personal_info.first_name": pattern},
			bson.M{"personal_info.last_name": pattern},
			bson.M{"personal_info.email": pattern},
			bson.M{"personal_info.phone": pattern},
		}
	}
	return query
}
