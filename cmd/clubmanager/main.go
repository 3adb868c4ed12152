package main

import (
	bookinghandler "clubmanager/internal/bookings/handler"
	bookingrepo "clubmanager/internal/bookings/repository"
	bookingservice "clubmanager/internal/bookings/service"
	bookingvalidator "clubmanager/internal/bookings/validator"
	classhandler "clubmanager/internal/classes/handler"
	classrepo "clubmanager/internal/classes/repository"
	classservice "clubmanager/internal/classes/service"
	classvalidator "clubmanager/internal/classes/validator"
	"clubmanager/internal/notifications"
	"clubmanager/pkg/app"
	"clubmanager/pkg/config"
	"clubmanager/pkg/contracts"
	"clubmanager/pkg/kafka"
	kafka_config "clubmanager/pkg/kafka/config"
)

const ServiceName = "clubmanager"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting clubmanager service")
	handlers := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handlers...)
	serverApp.Run()
}

func initServices(cfg *config.Config) []contracts.Handler {
	classEvents, bookingEvents := initPublishers(cfg)

	classRepo := classrepo.NewMongoClassRepository(cfg)
	sessionRepo := classrepo.NewMongoSessionRepository(cfg)
	classService := classservice.NewClassService(
		classRepo,
		sessionRepo,
		classvalidator.NewClassValidator(cfg.Log),
		classEvents,
		cfg,
	)

	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		sessionRepo,
		classService,
		bookingvalidator.NewBookingValidator(cfg.Log),
		bookingEvents,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		classhandler.NewClassHandler(classService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	}
}

// initPublishers builds the Kafka producers when events are enabled.
// Nil publishers disable event delivery without touching the services.
func initPublishers(cfg *config.Config) (notifications.Publisher, notifications.Publisher) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Event publishing disabled")
		return nil, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	classProducer, err := kafka.NewProducer(kafkaCfg, cfg.ClassEventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create class events producer", "error", err)
	}
	bookingProducer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}

	cfg.Log.Info("Event publishing enabled",
		"class_topic", cfg.ClassEventsTopic,
		"booking_topic", cfg.BookingEventsTopic,
	)
	return classProducer, bookingProducer
}
