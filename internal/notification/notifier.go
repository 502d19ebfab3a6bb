package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glec/pkg/config"
	"glec/pkg/logger"
	"glec/pkg/model"
)

type AdminContact struct {
	Name  string
	Email string
	Phone string
}

// Notifier renders and delivers booking emails. Delivery runs on a context
// detached from the caller so a finished HTTP request does not abort it.
type Notifier struct {
	sender   Sender
	renderer *Renderer
	policy   RetryPolicy
	admin    AdminContact
	timeout  time.Duration
	log      *logger.Logger
}

func NewNotifier(sender Sender, renderer *Renderer, policy RetryPolicy, admin AdminContact, timeout time.Duration, log *logger.Logger) *Notifier {
	return &Notifier{
		sender:   sender,
		renderer: renderer,
		policy:   policy,
		admin:    admin,
		timeout:  timeout,
		log:      log,
	}
}

func NewNotifierFromConfig(cfg *config.Config) (*Notifier, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	sender, err := NewSender(cfg)
	if err != nil {
		return nil, err
	}

	cfg.Log.Info("Email notifier initialized", "provider", sender.Name(), "max_attempts", cfg.EmailMaxAttempts)

	return NewNotifier(
		sender,
		renderer,
		DefaultRetryPolicy(cfg.EmailMaxAttempts),
		AdminContact{Name: cfg.AdminName, Email: cfg.AdminEmail, Phone: cfg.AdminPhone},
		cfg.NotificationTimeout,
		cfg.Log,
	), nil
}

func NewSender(cfg *config.Config) (Sender, error) {
	switch cfg.EmailProvider {
	case config.EmailProviderResend:
		return NewResendSender(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.EmailFrom, cfg.NotificationTimeout), nil
	case config.EmailProviderSMTP:
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.EmailFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}), nil
	case config.EmailProviderNoop, "":
		return NewNoopSender(cfg.Log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
}

func (n *Notifier) Admin() AdminContact {
	return n.admin
}

// detached ignores cancellation of the caller's context. The caller's
// deadline still applies when it is sooner than the notifier timeout.
func (n *Notifier) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	detachedCtx := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok && (n.timeout <= 0 || time.Until(deadline) < n.timeout) {
		return context.WithDeadline(detachedCtx, deadline)
	}
	if n.timeout > 0 {
		return context.WithTimeout(detachedCtx, n.timeout)
	}
	return detachedCtx, func() {}
}

func (n *Notifier) withAdmin(name, email, phone string) (string, string, string) {
	if name == "" {
		name = n.admin.Name
	}
	if email == "" {
		email = n.admin.Email
	}
	if phone == "" {
		phone = n.admin.Phone
	}
	return name, email, phone
}

func (n *Notifier) SendConfirmation(ctx context.Context, data ConfirmationData) (SendResult, error) {
	ctx, cancel := n.detached(ctx)
	defer cancel()

	data.AdminName, data.AdminEmail, data.AdminPhone = n.withAdmin(data.AdminName, data.AdminEmail, data.AdminPhone)
	if data.DurationMinutes <= 0 {
		data.DurationMinutes = int(data.EndTime.Sub(data.StartTime).Minutes())
	}

	location := data.MeetingURL
	if data.MeetingLocation != model.LocationOnline && data.OfficeAddress != "" {
		location = data.OfficeAddress
	}
	details := confirmationDetails(data)
	data.GoogleCalendarURL = GoogleCalendarURL(data.MeetingTitle, details, location, data.StartTime, data.EndTime)

	rendered, err := n.renderer.RenderConfirmation(data)
	if err != nil {
		return SendResult{}, err
	}

	ics, err := GenerateICS(ICSParams{
		UID:            data.BookingID + "@glec.io",
		Title:          data.MeetingTitle,
		Description:    details,
		Location:       location,
		URL:            data.MeetingURL,
		Start:          data.StartTime,
		End:            data.EndTime,
		OrganizerName:  data.AdminName,
		OrganizerEmail: data.AdminEmail,
		AttendeeName:   data.ContactName,
		AttendeeEmail:  data.Email,
	})
	if err != nil {
		return SendResult{}, err
	}

	msg := &Message{
		To:      data.Email,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
		Attachments: []Attachment{{
			Filename:    "invite.ics",
			ContentType: "text/calendar; charset=UTF-8; method=REQUEST",
			Content:     []byte(ics),
		}},
		IdempotencyKey: "booking-confirmation/" + data.BookingID,
	}

	result, err := SendWithRetry(ctx, n.sender, msg, n.policy, n.log)
	if err != nil {
		n.log.ErrorContext(ctx, "Confirmation email not delivered",
			"booking_id", data.BookingID,
			"attempts", result.Attempts,
			"error", err,
		)
		return result, err
	}

	n.log.InfoContext(ctx, "Confirmation email sent",
		"booking_id", data.BookingID,
		"email_id", result.EmailID,
		"attempts", result.Attempts,
	)
	return result, nil
}

func (n *Notifier) SendProposal(ctx context.Context, data ProposalData) (SendResult, error) {
	ctx, cancel := n.detached(ctx)
	defer cancel()

	data.AdminName, data.AdminEmail, data.AdminPhone = n.withAdmin(data.AdminName, data.AdminEmail, data.AdminPhone)

	rendered, err := n.renderer.RenderProposal(data)
	if err != nil {
		return SendResult{}, err
	}

	msg := &Message{
		To:      data.RecipientEmail,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}
	if data.TokenID != "" {
		msg.IdempotencyKey = "meeting-proposal/" + data.TokenID
	}

	result, err := SendWithRetry(ctx, n.sender, msg, n.policy, n.log)
	if err != nil {
		n.log.ErrorContext(ctx, "Proposal email not delivered", "attempts", result.Attempts, "error", err)
		return result, err
	}

	n.log.InfoContext(ctx, "Proposal email sent", "email_id", result.EmailID, "attempts", result.Attempts)
	return result, nil
}

func confirmationDetails(data ConfirmationData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GLEC %s\n", data.MeetingType.Label())
	if data.MeetingURL != "" {
		fmt.Fprintf(&b, "참여 링크: %s\n", data.MeetingURL)
	}
	if data.RequestedAgenda != "" {
		fmt.Fprintf(&b, "요청 안건: %s\n", data.RequestedAgenda)
	}
	fmt.Fprintf(&b, "담당자: %s (%s, %s)\n", data.AdminName, data.AdminEmail, data.AdminPhone)
	fmt.Fprintf(&b, "예약 번호: %s", data.BookingID)
	return b.String()
}
