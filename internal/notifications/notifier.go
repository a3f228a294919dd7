package notifications

import (
	"context"
	"time"

	"clinic/pkg/model"
)

const (
	EventCreated       = "appointment.created"
	EventStatusChanged = "appointment.status_changed"
	EventRescheduled   = "appointment.rescheduled"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelCall  = "call"
)

// Notifier announces appointment changes on a delivery channel. Callers log
// failures and carry on; a booking never fails because of a notification.
type Notifier interface {
	Notify(ctx context.Context, event string, appointment *model.Appointment, channel string) error
}

// AppointmentEvent is the payload published for every notification.
type AppointmentEvent struct {
	AppointmentID   string    `json:"appointment_id"`
	DoctorID        string    `json:"doctor_id"`
	PatientName     string    `json:"patient_name"`
	PatientEmail    string    `json:"patient_email"`
	PatientPhone    string    `json:"patient_phone"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Status          string    `json:"status"`
	Channel         string    `json:"channel"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func NewAppointmentEvent(appointment *model.Appointment, channel string, now time.Time) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID:   appointment.ID,
		DoctorID:        appointment.DoctorID,
		PatientName:     appointment.PatientName,
		PatientEmail:    appointment.PatientEmail,
		PatientPhone:    appointment.PatientPhone,
		AppointmentDate: appointment.AppointmentDate.Format(model.DateLayout),
		AppointmentTime: appointment.AppointmentTime,
		Status:          appointment.Status,
		Channel:         channel,
		OccurredAt:      now.UTC(),
	}
}

// ChannelFor picks where to reach the patient: email when known, else SMS.
func ChannelFor(appointment *model.Appointment) string {
	if appointment.PatientEmail == "" && appointment.PatientPhone != "" {
		return ChannelSMS
	}
	return ChannelEmail
}
