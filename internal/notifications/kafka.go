package notifications

import (
	"context"
	"fmt"
	"time"

	"clinic/pkg/kafka"
	"clinic/pkg/logger"
	"clinic/pkg/middleware"
	"clinic/pkg/model"
)

const (
	eventSchemaVersion = "1"
	eventSource        = "clinic-api"
)

type publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaNotifier struct {
	producer publisher
	log      *logger.Logger
	now      func() time.Time
}

// NewKafkaNotifier publishes appointment events keyed by appointment id, so
// every event of one appointment lands on the same partition in order.
func NewKafkaNotifier(producer *kafka.Producer, log *logger.Logger) Notifier {
	return &kafkaNotifier{producer: producer, log: log, now: time.Now}
}

func (n *kafkaNotifier) Notify(ctx context.Context, event string, appointment *model.Appointment, channel string) error {
	msg, err := kafka.NewMessage().
		WithKey(appointment.ID).
		WithValue(NewAppointmentEvent(appointment, channel, n.now())).
		WithEventType(event).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		Build()
	if err != nil {
		return fmt.Errorf("build %s event: %w", event, err)
	}

	if err := n.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event, err)
	}

	n.log.Debug("Appointment event published",
		"event", event,
		"event_id", msg.GetEventID(),
		"appointment_id", appointment.ID,
		"channel", channel,
	)
	return nil
}
