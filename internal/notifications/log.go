package notifications

import (
	"context"

	"clinic/pkg/logger"
	"clinic/pkg/model"
)

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier only logs. It is used when Kafka is disabled.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(_ context.Context, event string, appointment *model.Appointment, channel string) error {
	n.log.Info("Appointment notification",
		"event", event,
		"appointment_id", appointment.ID,
		"doctor_id", appointment.DoctorID,
		"status", appointment.Status,
		"channel", channel,
	)
	return nil
}
