package notification

import (
	"context"

	"glec/pkg/logger"

	"github.com/google/uuid"
)

// NoopSender logs messages instead of delivering them.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) Name() string { return "noop" }

func (s *NoopSender) Send(ctx context.Context, msg *Message) (string, error) {
	id := "noop-" + uuid.NewString()
	s.log.InfoContext(ctx, "Email delivery disabled, message dropped",
		"email_id", id,
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
	)
	return id, nil
}
