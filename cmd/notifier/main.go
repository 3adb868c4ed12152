package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"clubmanager/internal/notifications"
	"clubmanager/pkg/config"
	"clubmanager/pkg/kafka"
	kafka_config "clubmanager/pkg/kafka/config"
)

const (
	ServiceName     = "notifier"
	ConsumerGroupID = "clubmanager-notifier"
)

func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		ConsumerGroupID,
		notifications.NewBookingEventsHandler(cfg.Log),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting notifier",
		"topic", cfg.BookingEventsTopic,
		"group_id", ConsumerGroupID,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Warn("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
