package events

import (
	"context"
	"log/slog"
	"time"

	"glec/pkg/kafka"
	"glec/pkg/logger"
)

// NewActivityHandler turns consumed events into lead activities. Bad
// payloads are permanent failures and store errors are retried.
func NewActivityHandler(activities ActivityInserter, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if id := msg.GetCorrelationID(); id != "" {
			ctx = logger.AppendCtx(ctx, slog.String("correlation_id", id))
		}

		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("undecodable event", err)
		}
		if event.ID == "" {
			event.ID = msg.GetEventID()
		}

		activity, err := event.ToActivity(time.Now())
		if err != nil {
			return kafka.NewPermanentError("invalid event", err)
		}

		inserted, err := activities.Insert(ctx, activity)
		if err != nil {
			return kafka.NewTransientError("failed to store activity", err)
		}

		if !inserted {
			log.DebugContext(ctx, "duplicate event ignored", "event_id", event.ID)
			return nil
		}

		log.InfoContext(ctx, "lead activity recorded",
			"event_id", event.ID,
			"lead_id", event.LeadID,
			"activity_type", activity.ActivityType)
		return nil
	}
}
