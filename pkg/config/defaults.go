package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "glec"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultJWTTTL = 12 * time.Hour

	DefaultPublicBaseURL = "http://localhost:3000"

	DefaultTokenTTL                  = 7 * 24 * time.Hour
	MaxTokenTTL                      = 30 * 24 * time.Hour
	DefaultAvailabilityWindow        = 30 * 24 * time.Hour
	DefaultAvailabilityGroupTimezone = "UTC"
	DefaultProposalLookahead         = 7 * 24 * time.Hour
	DefaultBookingTimeout            = 5 * time.Second
	DefaultNotificationTimeout       = 8 * time.Second

	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
	EmailProviderNoop   = "noop"

	DefaultEmailProvider    = EmailProviderNoop
	DefaultEmailFrom        = "GLEC <noreply@glec.io>"
	DefaultEmailMaxAttempts = 3
	DefaultResendBaseURL    = "https://api.resend.com"
	DefaultSMTPPort         = 587

	DefaultAdminName  = "GLEC 담당자"
	DefaultAdminEmail = "contact@glec.io"
	DefaultAdminPhone = "02-1234-5678"

	EventsBackendDirect = "direct"
	EventsBackendKafka  = "kafka"

	DefaultEventsBackend = EventsBackendDirect

	DefaultWorkingHoursTimezone     = "Asia/Seoul"
	DefaultWorkingHoursMeetingHours = "10,14,16"
	DefaultWorkingHoursSlotMinutes  = 60
	DefaultWorkingHoursAdvanceDays  = 30
	DefaultWorkingHoursMinLeadTime  = 2 * time.Hour
)

// DefaultHolidays are Korean public holidays skipped by slot generation.
var DefaultHolidays = []string{
	"2025-01-01", "2025-01-28", "2025-01-29", "2025-01-30",
	"2025-03-01", "2025-03-03", "2025-05-05", "2025-05-06",
	"2025-06-06", "2025-08-15", "2025-10-03", "2025-10-05",
	"2025-10-06", "2025-10-07", "2025-10-08", "2025-10-09",
	"2025-12-25",
	"2026-01-01", "2026-02-16", "2026-02-17", "2026-02-18",
	"2026-03-01", "2026-03-02", "2026-05-05", "2026-05-24",
	"2026-05-25", "2026-06-03", "2026-06-06", "2026-08-15",
	"2026-08-17", "2026-09-24", "2026-09-25", "2026-09-26",
	"2026-10-03", "2026-10-05", "2026-10-09", "2026-12-25",
}
