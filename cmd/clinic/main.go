package main

import (
	appointmentshandler "clinic/internal/appointments/handler"
	appointmentsrepo "clinic/internal/appointments/repository"
	appointmentsservice "clinic/internal/appointments/service"
	appointmentsvalidator "clinic/internal/appointments/validator"
	cataloghandler "clinic/internal/catalog/handler"
	catalogrepo "clinic/internal/catalog/repository"
	catalogservice "clinic/internal/catalog/service"
	catalogvalidator "clinic/internal/catalog/validator"
	doctorshandler "clinic/internal/doctors/handler"
	doctorsrepo "clinic/internal/doctors/repository"
	doctorsservice "clinic/internal/doctors/service"
	doctorsvalidator "clinic/internal/doctors/validator"
	"clinic/internal/health"
	"clinic/internal/notifications"
	patientshandler "clinic/internal/patients/handler"
	patientsrepo "clinic/internal/patients/repository"
	patientsservice "clinic/internal/patients/service"
	patientsvalidator "clinic/internal/patients/validator"
	"clinic/pkg/app"
	"clinic/pkg/auth"
	"clinic/pkg/config"
	"clinic/pkg/contracts"
	"clinic/pkg/kafka"
	kafkamiddleware "clinic/pkg/kafka/middleware"
	"clinic/pkg/middleware"
)

const (
	ServiceName = "clinic-api"
	TokenIssuer = "clinic"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting clinic service")

	serverApp := app.NewApplication()
	events := kafkamiddleware.NewCounters()
	notifier := initNotifier(cfg, serverApp, events)
	handlers := initHandlers(cfg, notifier)

	checkers := []health.Checker{health.MongoChecker(cfg.Client.Mongo)}
	if cfg.Client.Redis != nil {
		checkers = append(checkers, health.RedisChecker(cfg.Client.Redis))
	}

	serverApp.SetApp(cfg, health.NewHealthHandler(cfg.Log, events, checkers...), handlers)
	serverApp.Run()
}

// initNotifier publishes appointment events to Kafka when enabled and
// otherwise only logs them.
func initNotifier(cfg *config.Config, serverApp *app.Application, events *kafkamiddleware.Counters) notifications.Notifier {
	if cfg.Kafka == nil || !cfg.Kafka.Enabled {
		cfg.Log.Info("Kafka disabled, appointment events are logged only")
		return notifications.NewLogNotifier(cfg.Log)
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Log, cfg.Kafka.AppointmentTopic, cfg.Kafka.DLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(events.Producer())
	if cfg.Kafka.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	}
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.Kafka.AppointmentTopic)
	return notifications.NewKafkaNotifier(producer, cfg.Log)
}

func initHandlers(cfg *config.Config, notifier notifications.Notifier) contracts.Handlers {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry, TokenIssuer)
	if !tokens.Enabled() {
		cfg.Log.Warn("JWT_SECRET is not set, doctor login is disabled")
	}
	doctorAuth := middleware.RequireDoctor(tokens, cfg.Log)
	staffAuth := middleware.StaffKey(cfg.StaffAPIKey, cfg.Log)
	bookingAuth := middleware.OptionalStaffKey(cfg.StaffAPIKey, cfg.Log)

	doctorService := doctorsservice.NewDoctorService(
		doctorsrepo.NewMongoDoctorRepository(cfg),
		doctorsvalidator.NewDoctorValidator(cfg.Log),
		tokens,
		cfg,
	)
	catalogService := catalogservice.NewCatalogService(
		catalogrepo.NewMongoServiceRepository(cfg),
		catalogvalidator.NewServiceValidator(cfg.Log),
		cfg,
	)
	patientService := patientsservice.NewPatientService(
		patientsrepo.NewMongoPatientRepository(cfg),
		patientsvalidator.NewPatientValidator(cfg.Log),
		cfg,
	)
	appointmentService := appointmentsservice.NewAppointmentService(
		appointmentsrepo.NewMongoAppointmentRepository(cfg),
		initSlotLocker(cfg),
		doctorService,
		catalogService,
		patientService,
		notifier,
		appointmentsvalidator.NewAppointmentValidator(cfg.Log, cfg.SlotTimes),
		cfg,
	)

	cfg.Log.Info("Clinic services initialized", "database", cfg.MongoDatabaseName)

	return contracts.Handlers{
		doctorshandler.NewDoctorHandler(doctorService, doctorshandler.Guard(doctorAuth), doctorshandler.Guard(staffAuth), cfg.Log),
		cataloghandler.NewCatalogHandler(catalogService, staffAuth, cfg.Log),
		patientshandler.NewPatientHandler(patientService, staffAuth, cfg.Log),
		appointmentshandler.NewAppointmentHandler(appointmentService, appointmentshandler.Guard(doctorAuth), appointmentshandler.Guard(staffAuth), appointmentshandler.Guard(bookingAuth), cfg.Log),
	}
}

// initSlotLocker prefers Redis when it is configured. Both lockers serialise
// bookings of one slot across every API instance.
func initSlotLocker(cfg *config.Config) appointmentsrepo.SlotLocker {
	if cfg.Client.Redis != nil {
		cfg.Log.Info("Using Redis slot locks", "ttl", cfg.SlotLockTTL)
		return appointmentsrepo.NewRedisSlotLocker(cfg.Client.Redis, cfg.SlotLockTTL)
	}
	cfg.Log.Info("Using Mongo slot locks", "ttl", cfg.SlotLockTTL)
	return appointmentsrepo.NewMongoSlotLocker(cfg)
}
