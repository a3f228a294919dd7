package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	doctorserrors "clinic/internal/doctors/errors"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	"clinic/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Doctors"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.Doctor) error
	FindByID(ctx context.Context, id string) (*model.Doctor, error)
	FindByEmail(ctx context.Context, email string) (*model.Doctor, error)
	List(ctx context.Context, filter model.DoctorFilter, limit int, offset int64) ([]*model.Doctor, error)
	Count(ctx context.Context, filter model.DoctorFilter) (int64, error)
	Update(ctx context.Context, doctor *model.Doctor) error
	SetStatus(ctx context.Context, id, status string) error
	Specializations(ctx context.Context) ([]string, error)
}

type mongoDoctorRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoDoctorRepository(cfg *config.Config) DoctorRepository {
	return &mongoDoctorRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoDoctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doctor.ID = ""
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, doctor)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return doctorserrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		doctor.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDoctorRepository) FindByID(ctx context.Context, id string) (*model.Doctor, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// FindByEmail returns the doctor including the password hash.
func (r *mongoDoctorRepository) FindByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoDoctorRepository) findOne(ctx context.Context, filter bson.M) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.collection.FindOne(ctx, filter).Decode(&doctor); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, doctorserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}
	return &doctor, nil
}

func (r *mongoDoctorRepository) List(ctx context.Context, filter model.DoctorFilter, limit int, offset int64) ([]*model.Doctor, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"password": 0})

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find doctors: %w", err)
	}
	defer cursor.Close(ctx)

	doctors := []*model.Doctor{}
	if err = cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return doctors, nil
}

func (r *mongoDoctorRepository) Count(ctx context.Context, filter model.DoctorFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return count, nil
}

// Update rewrites the profile fields. Email and password are not editable
// here.
func (r *mongoDoctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(doctor.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, doctor.ID)
	}

	doctor.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"first_name":       doctor.FirstName,
			"last_name":        doctor.LastName,
			"specialization":   doctor.Specialization,
			"qualification":    doctor.Qualification,
			"experience_years": doctor.ExperienceYears,
			"phone":            doctor.Phone,
			"consultation_fee": doctor.ConsultationFee,
			"available_days":   doctor.AvailableDays,
			"available_hours":  doctor.AvailableHours,
			"bio":              doctor.Bio,
			"image_url":        doctor.ImageURL,
			"status":           doctor.Status,
			"updated_at":       doctor.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if result.MatchedCount == 0 {
		return doctorserrors.ErrNotFound
	}
	return nil
}

func (r *mongoDoctorRepository) SetStatus(ctx context.Context, id, status string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", doctorserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	})
	if err != nil {
		return fmt.Errorf("failed to update doctor status: %w", err)
	}
	if result.MatchedCount == 0 {
		return doctorserrors.ErrNotFound
	}
	return nil
}

// Specializations lists the distinct specializations of active doctors,
// sorted by name.
func (r *mongoDoctorRepository) Specializations(ctx context.Context) ([]string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, "specialization", bson.M{"status": model.DoctorStatusActive})
	if err != nil {
		return nil, fmt.Errorf("failed to list specializations: %w", err)
	}

	specializations := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			specializations = append(specializations, s)
		}
	}
	sort.Strings(specializations)
	return specializations, nil
}

func buildFilter(filter model.DoctorFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Specialization != "" {
		query["specialization"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.Specialization) + "$", Options: "i"}
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"first_name": pattern},
			bson.M{"last_name": pattern},
			bson.M{"specialization": pattern},
		}
	}
	return query
}
