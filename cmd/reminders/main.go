package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	appointmentsrepo "clinic/internal/appointments/repository"
	appointmentsservice "clinic/internal/appointments/service"
	appointmentsvalidator "clinic/internal/appointments/validator"
	catalogrepo "clinic/internal/catalog/repository"
	catalogservice "clinic/internal/catalog/service"
	catalogvalidator "clinic/internal/catalog/validator"
	doctorsrepo "clinic/internal/doctors/repository"
	doctorsservice "clinic/internal/doctors/service"
	doctorsvalidator "clinic/internal/doctors/validator"
	"clinic/internal/notifications"
	patientsrepo "clinic/internal/patients/repository"
	patientsservice "clinic/internal/patients/service"
	patientsvalidator "clinic/internal/patients/validator"
	"clinic/internal/reminders"
	"clinic/pkg/auth"
	"clinic/pkg/config"
	"clinic/pkg/kafka"
	kafkamiddleware "clinic/pkg/kafka/middleware"
)

const ServiceName = "clinic-reminders"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.Kafka == nil || !cfg.Kafka.Enabled {
		cfg.Log.Fatal("Reminder worker needs KAFKA_ENABLED=true")
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	recorder := initRecorder(cfg)
	consumer, err := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Log,
		cfg.Kafka.AppointmentTopic,
		cfg.Kafka.ReminderGroupID,
		cfg.Kafka.DLQTopic,
		reminders.NewHandler(recorder, cfg.Log).Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if cfg.Kafka.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Reminder worker started",
		"topic", cfg.Kafka.AppointmentTopic,
		"group", cfg.Kafka.ReminderGroupID,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Reminder worker stopped", "error", err)
	}
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Reminder worker stopped")
}

// initRecorder builds the appointment service the worker records reminders
// through. It never books, so the slot locker and notifier are inert.
func initRecorder(cfg *config.Config) reminders.Recorder {
	doctors := doctorsservice.NewDoctorService(
		doctorsrepo.NewMongoDoctorRepository(cfg),
		doctorsvalidator.NewDoctorValidator(cfg.Log),
		auth.NewTokenManager("", cfg.JWTExpiry, ServiceName),
		cfg,
	)
	catalog := catalogservice.NewCatalogService(
		catalogrepo.NewMongoServiceRepository(cfg),
		catalogvalidator.NewServiceValidator(cfg.Log),
		cfg,
	)
	patients := patientsservice.NewPatientService(
		patientsrepo.NewMongoPatientRepository(cfg),
		patientsvalidator.NewPatientValidator(cfg.Log),
		cfg,
	)
	return appointmentsservice.NewAppointmentService(
		appointmentsrepo.NewMongoAppointmentRepository(cfg),
		appointmentsrepo.NewMongoSlotLocker(cfg),
		doctors,
		catalog,
		patients,
		notifications.NewLogNotifier(cfg.Log),
		appointmentsvalidator.NewAppointmentValidator(cfg.Log, cfg.SlotTimes),
		cfg,
	)
}
