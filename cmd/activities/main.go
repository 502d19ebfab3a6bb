package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"glec/internal/events"
	"glec/internal/meetings/repository"
	"glec/pkg/config"
	"glec/pkg/kafka"
	kafka_config "glec/pkg/kafka/config"
	kafka_middleware "glec/pkg/kafka/middleware"
)

const ServiceName = "lead-activities"

// Consumes meeting events and writes them to the lead timeline. Only needed
// when EVENTS_BACKEND=kafka.
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	handler := events.NewActivityHandler(repository.NewActivityRepository(cfg), cfg.Log)
	consumer, err := kafka.NewConsumer(kafkaCfg, kafkaCfg.MeetingEventsTopic, kafkaCfg.ActivityConsumerGroup, kafkaCfg.MeetingEventsDLQTopic, handler, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(metrics.ConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting lead activity consumer",
		"topic", kafkaCfg.MeetingEventsTopic,
		"group_id", kafkaCfg.ActivityConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped unexpectedly", "error", err)
	}

	metrics.Log(cfg.Log)
	lag := consumer.Lag()
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Lead activity consumer stopped", "lag", lag)
}
