package reminders

import (
	"context"
	"fmt"

	"clinic/internal/notifications"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/kafka"
	"clinic/pkg/logger"
	"clinic/pkg/model"
)

const ReminderStatusSent = "sent"

// Recorder stores a delivered reminder on its appointment.
type Recorder interface {
	RecordReminder(ctx context.Context, id string, reminder model.Reminder) (bool, error)
}

// Handler consumes appointment events and records one reminder per event.
// Redelivered events are recognised by their event id and recorded once.
type Handler struct {
	recorder Recorder
	log      *logger.Logger
}

func NewHandler(recorder Recorder, log *logger.Logger) *Handler {
	return &Handler{recorder: recorder, log: log}
}

func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var event notifications.AppointmentEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("malformed appointment event", err)
	}
	if event.AppointmentID == "" {
		return kafka.NewPermanentError("appointment event without appointment id", nil)
	}

	channel := event.Channel
	if channel == "" {
		channel = notifications.ChannelEmail
	}

	reminder := model.Reminder{
		Type:    channel,
		SentAt:  event.OccurredAt,
		Status:  ReminderStatusSent,
		EventID: msg.GetEventID(),
	}

	added, err := h.recorder.RecordReminder(ctx, event.AppointmentID, reminder)
	if err != nil {
		switch {
		case apperrors.HasCode(err, apperrors.CodeNotFound):
			// Deleted since the event was published.
			h.log.Warn("Reminder for missing appointment dropped",
				"appointment_id", event.AppointmentID,
				"event_id", msg.GetEventID(),
			)
			return nil
		case apperrors.HasCode(err, apperrors.CodeInvalidInput):
			return kafka.NewPermanentError("invalid appointment id", err)
		case apperrors.AsAppError(err).Retryable():
			return kafka.NewTransientError("record reminder", err)
		}
		return fmt.Errorf("record reminder for %s: %w", event.AppointmentID, err)
	}

	if !added {
		h.log.Debug("Duplicate reminder event ignored", "event_id", msg.GetEventID(), "appointment_id", event.AppointmentID)
		return nil
	}

	h.log.Info("Reminder recorded",
		"appointment_id", event.AppointmentID,
		"event", msg.GetEventType(),
		"channel", channel,
		"correlation_id", msg.GetCorrelationID(),
	)
	return nil
}
