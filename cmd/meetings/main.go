package main

import (
	"context"

	"glec/internal/events"
	"glec/internal/meetings/handler"
	"glec/internal/meetings/repository"
	"glec/internal/meetings/service"
	"glec/internal/meetings/validator"
	"glec/internal/notification"
	"glec/pkg/app"
	"glec/pkg/auth"
	"glec/pkg/config"
	"glec/pkg/kafka"
	kafka_config "glec/pkg/kafka/config"
	kafka_middleware "glec/pkg/kafka/middleware"
)

const ServiceName = "meetings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Meetings service")
	serverApp := app.NewApplication(cfg)

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		cfg.Log.Fatal("Admin authentication is not configured", "error", err)
	}

	publisher := initPublisher(cfg, serverApp)
	bookings, slots, leads := initServices(cfg, publisher)

	serverApp.SetApp(handler.NewRouter(
		handler.NewBookingHandler(bookings, cfg.Log),
		handler.NewSlotHandler(slots, cfg.Log),
		handler.NewLeadHandler(leads, cfg.Log),
		signer,
		serverApp.IdempotencyStore(),
		cfg.Log,
	))
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) (service.BookingService, service.SlotService, service.LeadService) {
	meetingValidator := validator.NewMeetingValidator(cfg.Log)

	slotRepo := repository.NewSlotRepository(cfg)
	tokenRepo := repository.NewTokenRepository(cfg)
	bookingRepo := repository.NewBookingRepository(cfg)
	leadRepo := repository.NewLeadRepository(cfg)
	activityRepo := repository.NewActivityRepository(cfg)

	notifier, err := notification.NewNotifierFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize email notifier", "error", err)
	}

	hours, err := service.WorkingHoursFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Invalid working hours configuration", "error", err)
	}

	bookings := service.NewBookingService(slotRepo, tokenRepo, bookingRepo, leadRepo, meetingValidator, notifier, publisher, cfg)
	slots := service.NewSlotService(slotRepo, meetingValidator, hours, cfg)
	leads := service.NewLeadService(leadRepo, tokenRepo, slotRepo, activityRepo, meetingValidator, notifier, publisher, cfg)

	cfg.Log.Info("Meeting services initialized",
		"database", cfg.MongoDatabaseName,
		"email_provider", cfg.EmailProvider,
		"events_backend", cfg.EventsBackend,
	)
	return bookings, slots, leads
}

// initPublisher picks the activity event transport. Publishing never blocks
// a request; in-flight events are drained on shutdown.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	var next events.Publisher

	switch cfg.EventsBackend {
	case config.EventsBackendKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.MeetingEventsTopic, kafkaCfg.MeetingEventsDLQTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}

		metrics := kafka_middleware.NewMetrics()
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
			producer.Use(metrics.ProducerMiddleware())
		}

		serverApp.OnShutdown(func(context.Context) {
			metrics.Log(cfg.Log)
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		})
		next = events.NewKafkaPublisher(producer)
	default:
		next = events.NewDirectPublisher(repository.NewActivityRepository(cfg))
	}

	async := events.NewAsyncPublisher(next, cfg.NotificationTimeout, cfg.Log)
	// Registered last so it runs first: drain before the producer closes.
	serverApp.OnShutdown(func(ctx context.Context) {
		if err := async.Wait(ctx); err != nil {
			cfg.Log.Warn("Pending activity events abandoned", "error", err)
		}
	})
	return async
}
