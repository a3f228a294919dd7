package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	appointmentserrors "clinic/internal/appointments/errors"
	"clinic/internal/appointments/repository"
	mongotx "clinic/pkg/db/mongo"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memoryRepo mirrors the Mongo repository, including the partial unique
// index on active slots.
type memoryRepo struct {
	mu    sync.Mutex
	items map[string]*model.Appointment
	err   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[string]*model.Appointment{}}
}

func (r *memoryRepo) slotTakenLocked(slot model.Slot, excludeID string) bool {
	for id, a := range r.items {
		if id != excludeID && a.SlotActive && a.Slot().Key() == slot.Key() {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	a.SetStatus(a.Status)
	if a.SlotActive && r.slotTakenLocked(a.Slot(), "") {
		return appointmentserrors.ErrSlotTaken
	}
	a.ID = primitive.NewObjectID().Hex()
	stored := *a
	r.items[a.ID] = &stored
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id string) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, appointmentserrors.ErrInvalidID
	}
	a, ok := r.items[id]
	if !ok {
		return nil, appointmentserrors.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (r *memoryRepo) ExistsActive(_ context.Context, slot model.Slot, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	return r.slotTakenLocked(slot, excludeID), nil
}

func (r *memoryRepo) matching(f model.AppointmentFilter) []*model.Appointment {
	var out []*model.Appointment
	for _, a := range r.items {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Status == "" && f.ActiveOnly && !model.IsActiveStatus(a.Status) {
			continue
		}
		if f.DoctorID != "" && a.DoctorID != f.DoctorID {
			continue
		}
		if f.Date != nil && !model.StartOfDay(*f.Date).Equal(model.StartOfDay(a.AppointmentDate)) {
			continue
		}
		if f.PatientEmail != "" && !strings.Contains(strings.ToLower(a.PatientEmail), strings.ToLower(f.PatientEmail)) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out
}

func sortAppointments(items []*model.Appointment, order repository.SortOrder) {
	sort.Slice(items, func(i, j int) bool {
		ki := items[i].AppointmentDate.Format(model.DateLayout) + items[i].AppointmentTime
		kj := items[j].AppointmentDate.Format(model.DateLayout) + items[j].AppointmentTime
		if order == repository.SortOldestFirst {
			return ki < kj
		}
		return ki > kj
	})
}

func (r *memoryRepo) List(_ context.Context, f model.AppointmentFilter, order repository.SortOrder, limit int, offset int64) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	items := r.matching(f)
	sortAppointments(items, order)
	if int(offset) >= len(items) {
		return []*model.Appointment{}, nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *memoryRepo) Count(_ context.Context, f model.AppointmentFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.matching(f))), nil
}

func (r *memoryRepo) ListByDateRange(_ context.Context, start, end time.Time, doctorID string) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	from, to := model.StartOfDay(start), model.StartOfDay(end)
	for _, a := range r.matching(model.AppointmentFilter{DoctorID: doctorID}) {
		day := model.StartOfDay(a.AppointmentDate)
		if !day.Before(from) && !day.After(to) {
			out = append(out, a)
		}
	}
	sortAppointments(out, repository.SortOldestFirst)
	return out, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id, from, to, notes string) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok || a.Status != from {
		return nil, appointmentserrors.ErrStatusChanged
	}
	a.SetStatus(to)
	if notes != "" {
		a.Notes = notes
	}
	out := *a
	return &out, nil
}

func (r *memoryRepo) Update(_ context.Context, a *model.Appointment, expectedStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[a.ID]
	if !ok || current.Status != expectedStatus {
		return appointmentserrors.ErrStatusChanged
	}
	a.SetStatus(a.Status)
	if a.SlotActive && r.slotTakenLocked(a.Slot(), a.ID) {
		return appointmentserrors.ErrSlotTaken
	}
	stored := *a
	r.items[a.ID] = &stored
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return appointmentserrors.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) AppendReminder(_ context.Context, id string, reminder model.Reminder) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return false, appointmentserrors.ErrNotFound
	}
	for _, existing := range a.Reminders {
		if reminder.EventID != "" && existing.EventID == reminder.EventID {
			return false, nil
		}
	}
	a.Reminders = append(a.Reminders, reminder)
	return true, nil
}

func (r *memoryRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

func (r *memoryRepo) activeInSlot(slot model.Slot) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.items {
		if a.SlotActive && a.Slot().Key() == slot.Key() {
			n++
		}
	}
	return n
}

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: map[string]bool{}}
}

func (l *memoryLocker) WithSlotLock(ctx context.Context, slot model.Slot, fn func(ctx context.Context) error) error {
	key := slot.Key()
	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return appointmentserrors.ErrLockNotAcquired
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

type fakeDoctors struct {
	doctors map[string]*model.Doctor
}

func (f *fakeDoctors) GetByID(_ context.Context, id string) (*model.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Doctor", id)
	}
	return d, nil
}

type fakeCatalog struct {
	services map[string]*model.Service
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*model.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Service", id)
	}
	return svc, nil
}

type fakePatients struct {
	mu    sync.Mutex
	calls []model.PatientIdentity
	err   error
}

func (f *fakePatients) Upsert(_ context.Context, identity model.PatientIdentity) (*model.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, identity)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Patient{ID: primitive.NewObjectID().Hex()}, nil
}

type sentNotification struct {
	event   string
	status  string
	channel string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, event string, a *model.Appointment, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{event: event, status: a.Status, channel: channel})
	return f.err
}
