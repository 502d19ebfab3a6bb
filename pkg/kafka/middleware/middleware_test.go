package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"glec/pkg/kafka"
	"glec/pkg/logger"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics()
	produce := m.ProducerMiddleware()
	consume := m.ConsumerMiddleware()

	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("boom") }

	_ = produce(context.Background(), kafka.Message{}, ok)
	_ = produce(context.Background(), kafka.Message{}, ok)
	_ = produce(context.Background(), kafka.Message{}, fail)
	_ = consume(context.Background(), kafka.Message{}, ok)
	_ = consume(context.Background(), kafka.Message{}, fail)

	s := m.Snapshot()
	if s.Published != 2 || s.PublishFailed != 1 {
		t.Errorf("expected 2 published and 1 failed, got %d and %d", s.Published, s.PublishFailed)
	}
	if s.Consumed != 1 || s.ConsumeFailed != 1 {
		t.Errorf("expected 1 consumed and 1 failed, got %d and %d", s.Consumed, s.ConsumeFailed)
	}

}

func TestLoggingMiddleware_PassesErrorThrough(t *testing.T) {
	log := logger.Discard()
	want := errors.New("boom")

	err := LoggingProducerMiddleware(log)(context.Background(), kafka.Message{Key: "k"},
		func(context.Context, kafka.Message) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}

	err = LoggingConsumerMiddleware(log)(context.Background(), kafka.Message{Key: "k"},
		func(context.Context, kafka.Message) error { return nil })
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
