package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	appointmentserrors "clinic/internal/appointments/errors"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	"clinic/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Appointments"
)

type SortOrder int

const (
	// SortNewestFirst orders by date then time, descending. Used by staff views.
	SortNewestFirst SortOrder = iota
	// SortOldestFirst orders by date then time, ascending. Used by doctor views.
	SortOldestFirst
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	ExistsActive(ctx context.Context, slot model.Slot, excludeID string) (bool, error)
	List(ctx context.Context, filter model.AppointmentFilter, order SortOrder, limit int, offset int64) ([]*model.Appointment, error)
	Count(ctx context.Context, filter model.AppointmentFilter) (int64, error)
	ListByDateRange(ctx context.Context, start, end time.Time, doctorID string) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id, from, to, notes string) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment, expectedStatus string) error
	Delete(ctx context.Context, id string) error
	AppendReminder(ctx context.Context, id string, reminder model.Reminder) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	appointment.ID = ""
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	appointment.SetStatus(appointment.Status)

	result, err := r.collection.InsertOne(ctx, appointment)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return appointmentserrors.ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appointment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	var appointment model.Appointment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &appointment, nil
}

// ExistsActive reports whether a pending or confirmed appointment holds slot.
func (r *mongoAppointmentRepository) ExistsActive(ctx context.Context, slot model.Slot, excludeID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	day := model.StartOfDay(slot.Date)
	filter := bson.M{
		"doctor_id":        slot.DoctorID,
		"appointment_date": bson.M{"$gte": day, "$lt": day.Add(24 * time.Hour)},
		"appointment_time": slot.Time,
		"status":           bson.M{"$in": model.ActiveStatuses},
	}
	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return false, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return count > 0, nil
}

func (r *mongoAppointmentRepository) List(ctx context.Context, filter model.AppointmentFilter, order SortOrder, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(sortFor(order)).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := []*model.Appointment{}
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	return appointments, nil
}

func (r *mongoAppointmentRepository) Count(ctx context.Context, filter model.AppointmentFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// ListByDateRange returns appointments whose day falls in [start, end],
// both ends inclusive at day granularity, oldest first.
func (r *mongoAppointmentRepository) ListByDateRange(ctx context.Context, start, end time.Time, doctorID string) ([]*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"appointment_date": bson.M{
			"$gte": model.StartOfDay(start),
			"$lt":  model.StartOfDay(end).Add(24 * time.Hour),
		},
	}
	if doctorID != "" {
		filter["doctor_id"] = doctorID
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sortFor(SortOldestFirst)))
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments by date range: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := []*model.Appointment{}
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

// UpdateStatus moves the appointment from one status to another only if it
// is still in from. ErrStatusChanged means no document matched both.
func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id, from, to, notes string) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":      to,
		"slot_active": model.IsActiveStatus(to),
		"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
	}
	if notes != "" {
		set["notes"] = notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Appointment
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID, "status": from}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrStatusChanged
		}
		if mongotx.IsDuplicateKey(err) {
			return nil, appointmentserrors.ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	return &updated, nil
}

// Update rewrites the editable fields of appointment, provided its stored
// status is still expectedStatus.
func (r *mongoAppointmentRepository) Update(ctx context.Context, appointment *model.Appointment, expectedStatus string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(appointment.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, appointment.ID)
	}

	appointment.SetStatus(appointment.Status)
	appointment.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	update := bson.M{
		"$set": bson.M{
			"patient":               appointment.Patient,
			"patient_name":          appointment.PatientName,
			"patient_email":         appointment.PatientEmail,
			"patient_phone":         appointment.PatientPhone,
			"doctor_id":             appointment.DoctorID,
			"doctor_specialization": appointment.DoctorSpecialization,
			"appointment_date":      appointment.AppointmentDate,
			"appointment_time":      appointment.AppointmentTime,
			"duration":              appointment.Duration,
			"status":                appointment.Status,
			"slot_active":           appointment.SlotActive,
			"reason":                appointment.Reason,
			"symptoms":              appointment.Symptoms,
			"notes":                 appointment.Notes,
			"priority":              appointment.Priority,
			"follow_up":             appointment.FollowUp,
			"payment":               appointment.Payment,
			"updated_at":            appointment.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "status": expectedStatus}, update)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return appointmentserrors.ErrSlotTaken
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if result.MatchedCount == 0 {
		return appointmentserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoAppointmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if result.DeletedCount == 0 {
		return appointmentserrors.ErrNotFound
	}
	return nil
}

// AppendReminder pushes reminder unless one with the same event id is already
// recorded. It reports whether a reminder was added.
func (r *mongoAppointmentRepository) AppendReminder(ctx context.Context, id string, reminder model.Reminder) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	if reminder.EventID != "" {
		filter["reminders.event_id"] = bson.M{"$ne": reminder.EventID}
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"reminders": reminder}})
	if err != nil {
		return false, fmt.Errorf("failed to append reminder: %w", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check appointment: %w", err)
	}
	if count == 0 {
		return false, appointmentserrors.ErrNotFound
	}
	return false, nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func buildFilter(f model.AppointmentFilter) bson.M {
	filter := bson.M{}

	switch {
	case f.Status != "":
		filter["status"] = f.Status
	case f.ActiveOnly:
		filter["status"] = bson.M{"$in": model.ActiveStatuses}
	}
	if f.DoctorID != "" {
		filter["doctor_id"] = f.DoctorID
	}
	if f.Date != nil {
		day := model.StartOfDay(*f.Date)
		filter["appointment_date"] = bson.M{"$gte": day, "$lt": day.Add(24 * time.Hour)}
	}
	if f.PatientEmail != "" {
		filter["patient_email"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.PatientEmail), Options: "i"}
	}

	return filter
}

func sortFor(order SortOrder) bson.D {
	direction := -1
	if order == SortOldestFirst {
		direction = 1
	}
	return bson.D{
		{Key: "appointment_date", Value: direction},
		{Key: "appointment_time", Value: direction},
		{Key: "_id", Value: direction},
	}
}
