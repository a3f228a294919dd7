package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ActiveStatuses occupy a slot. Every other status frees it.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

func IsActiveStatus(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled || status == StatusNoShow
}

// PatientSnapshot is copied onto the appointment at booking time and is never
// refreshed from the patient record afterwards.
type PatientSnapshot struct {
	FirstName        string            `json:"first_name" bson:"first_name"`
	LastName         string            `json:"last_name" bson:"last_name"`
	Email            string            `json:"email" bson:"email"`
	Phone            string            `json:"phone" bson:"phone"`
	DateOfBirth      *time.Time        `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender           string            `json:"gender,omitempty" bson:"gender,omitempty"`
	Address          string            `json:"address,omitempty" bson:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty" bson:"emergency_contact,omitempty"`
}

type FollowUp struct {
	Required bool       `json:"required" bson:"required"`
	Date     *time.Time `json:"date,omitempty" bson:"date,omitempty"`
	Notes    string     `json:"notes,omitempty" bson:"notes,omitempty"`
}

type Payment struct {
	Amount        float64 `json:"amount" bson:"amount" validate:"min=0"`
	Method        string  `json:"method,omitempty" bson:"method,omitempty" validate:"omitempty,oneof=cash card insurance online"`
	Status        string  `json:"status" bson:"status" validate:"omitempty,oneof=pending paid cancelled"`
	TransactionID string  `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
}

type Reminder struct {
	Type   string    `json:"type" bson:"type"`
	SentAt time.Time `json:"sent_at" bson:"sent_at"`
	Status string    `json:"status" bson:"status"`
	// EventID is the id of the event that produced the reminder; it keeps
	// redelivered events from adding a second entry.
	EventID string `json:"event_id,omitempty" bson:"event_id,omitempty"`
}

type Appointment struct {
	ID                   string          `json:"id,omitempty" bson:"_id,omitempty"`
	Patient              PatientSnapshot `json:"patient" bson:"patient"`
	PatientName          string          `json:"patient_name" bson:"patient_name"`
	PatientEmail         string          `json:"patient_email" bson:"patient_email"`
	PatientPhone         string          `json:"patient_phone" bson:"patient_phone"`
	DoctorID             string          `json:"doctor_id" bson:"doctor_id"`
	DoctorSpecialization string          `json:"doctor_specialization,omitempty" bson:"doctor_specialization,omitempty"`
	ServiceID            string          `json:"service_id,omitempty" bson:"service_id,omitempty"`
	ServiceName          string          `json:"service,omitempty" bson:"service,omitempty"`
	AppointmentDate      time.Time       `json:"appointment_date" bson:"appointment_date"`
	AppointmentTime      string          `json:"appointment_time" bson:"appointment_time"`
	Duration             int             `json:"duration" bson:"duration"`
	Status               string          `json:"status" bson:"status"`
	SlotActive           bool            `json:"-" bson:"slot_active"`
	Reason               string          `json:"reason" bson:"reason"`
	Symptoms             []string        `json:"symptoms,omitempty" bson:"symptoms,omitempty"`
	Notes                string          `json:"notes,omitempty" bson:"notes,omitempty"`
	Priority             string          `json:"priority" bson:"priority"`
	FollowUp             *FollowUp       `json:"follow_up,omitempty" bson:"follow_up,omitempty"`
	Payment              Payment         `json:"payment" bson:"payment"`
	CreatedBy            string          `json:"created_by" bson:"created_by"`
	Reminders            []Reminder      `json:"reminders,omitempty" bson:"reminders,omitempty"`
	CreatedAt            time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" bson:"updated_at"`
}

// SetStatus keeps SlotActive in step with Status.
func (a *Appointment) SetStatus(status string) {
	a.Status = status
	a.SlotActive = IsActiveStatus(status)
}

// Slot returns the (doctor, day, time) tuple the appointment occupies.
func (a *Appointment) Slot() Slot {
	return Slot{DoctorID: a.DoctorID, Date: a.AppointmentDate, Time: a.AppointmentTime}
}

// PatientInput is the identity bundle supplied with a booking.
type PatientInput struct {
	FirstName        string            `json:"first_name" validate:"required,min=2,max=100"`
	LastName         string            `json:"last_name" validate:"required,min=2,max=100"`
	Email            string            `json:"email" validate:"required,email"`
	Phone            string            `json:"phone" validate:"required,phone"`
	DateOfBirth      *time.Time        `json:"date_of_birth,omitempty" validate:"omitempty"`
	Gender           string            `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	Address          string            `json:"address,omitempty" validate:"omitempty,max=500"`
	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty" validate:"omitempty"`
}

type FollowUpInput struct {
	Required bool       `json:"required"`
	Date     *time.Time `json:"date,omitempty"`
	Notes    string     `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// AppointmentRequest is a booking request.
type AppointmentRequest struct {
	Patient         PatientInput   `json:"patient" validate:"required"`
	DoctorID        string         `json:"doctor_id" validate:"required,mongodb"`
	ServiceID       string         `json:"service_id,omitempty" validate:"omitempty,mongodb"`
	AppointmentDate Date           `json:"appointment_date" validate:"required"`
	AppointmentTime string         `json:"appointment_time" validate:"required,hhmm"`
	Duration        int            `json:"duration,omitempty" validate:"omitempty,min=5,max=480"`
	Status          string         `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
	Reason          string         `json:"reason" validate:"required,min=5,max=1000"`
	Symptoms        []string       `json:"symptoms,omitempty" validate:"omitempty,max=50,dive,required,max=200"`
	Notes           string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Priority        string         `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	FollowUp        *FollowUpInput `json:"follow_up,omitempty" validate:"omitempty"`
	Payment         *Payment       `json:"payment,omitempty" validate:"omitempty"`
}

// AppointmentUpdate is a partial edit. Nil fields are left untouched.
type AppointmentUpdate struct {
	Patient         *PatientInput  `json:"patient,omitempty" validate:"omitempty"`
	DoctorID        *string        `json:"doctor_id,omitempty" validate:"omitempty,mongodb"`
	AppointmentDate *Date          `json:"appointment_date,omitempty" validate:"omitempty"`
	AppointmentTime *string        `json:"appointment_time,omitempty" validate:"omitempty,hhmm"`
	Duration        *int           `json:"duration,omitempty" validate:"omitempty,min=5,max=480"`
	Status          *string        `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed completed cancelled no-show"`
	Reason          *string        `json:"reason,omitempty" validate:"omitempty,min=5,max=1000"`
	Symptoms        []string       `json:"symptoms,omitempty" validate:"omitempty,max=50,dive,required,max=200"`
	Notes           *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Priority        *string        `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	FollowUp        *FollowUpInput `json:"follow_up,omitempty" validate:"omitempty"`
	Payment         *Payment       `json:"payment,omitempty" validate:"omitempty"`
}

// MovesSlot reports whether the update touches doctor, date or time.
func (u *AppointmentUpdate) MovesSlot() bool {
	return u.DoctorID != nil || u.AppointmentDate != nil || u.AppointmentTime != nil
}

type StatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled no-show"`
	Notes  string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// AppointmentFilter narrows list queries. Zero values mean "any".
type AppointmentFilter struct {
	Status       string
	DoctorID     string
	Date         *time.Time
	PatientEmail string
	// ActiveOnly keeps appointments that still occupy their slot.
	ActiveOnly bool
}

// Page is a 1-indexed page request.
type Page struct {
	Page  int
	Limit int
}
