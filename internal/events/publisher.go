package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"glec/pkg/kafka"
	"glec/pkg/logger"
	"glec/pkg/middleware"
)

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher emits events keyed by lead id so one lead's timeline stays
// ordered within a partition. The originating request id travels as the
// correlation id.
type KafkaPublisher struct {
	producer MessagePublisher
}

func NewKafkaPublisher(producer MessagePublisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	msg, err := kafka.NewMessage().
		WithKey(event.LeadID).
		WithEventID(event.ID).
		WithEventType(string(event.Type)).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSource(Source).
		WithSchemaVersion("1").
		WithTimestamp(event.OccurredAt).
		WithValue(event).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build event message: %w", err)
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// DirectPublisher writes the activity straight to the store.
type DirectPublisher struct {
	activities ActivityInserter
	now        func() time.Time
}

func NewDirectPublisher(activities ActivityInserter) *DirectPublisher {
	return &DirectPublisher{activities: activities, now: time.Now}
}

func (p *DirectPublisher) Publish(ctx context.Context, event Event) error {
	activity, err := event.ToActivity(p.now())
	if err != nil {
		return err
	}
	if _, err := p.activities.Insert(ctx, activity); err != nil {
		return fmt.Errorf("failed to record %s activity: %w", event.Type, err)
	}
	return nil
}

// AsyncPublisher fires events in the background. Failures are logged and
// never reach the caller.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

func NewAsyncPublisher(next Publisher, timeout time.Duration, log *logger.Logger) *AsyncPublisher {
	return &AsyncPublisher{next: next, timeout: timeout, log: log}
}

func (p *AsyncPublisher) Publish(ctx context.Context, event Event) error {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		if err := p.next.Publish(pubCtx, event); err != nil {
			p.log.WarnContext(ctx, "failed to publish event",
				"event_id", event.ID,
				"event_type", event.Type,
				"lead_id", event.LeadID,
				logger.ErrKey, err)
		}
	}()
	return nil
}

// Wait blocks until in-flight publishes finish or ctx ends.
func (p *AsyncPublisher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
