package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisURL = "REDIS_URL"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvJWTSecret = "JWT_SECRET"
	EnvJWTTTL    = "JWT_TTL"

	EnvPublicBaseURL = "PUBLIC_BASE_URL"

	EnvTokenTTL                  = "TOKEN_TTL"
	EnvAvailabilityWindow        = "AVAILABILITY_WINDOW"
	EnvAvailabilityGroupTimezone = "AVAILABILITY_GROUP_TIMEZONE"
	EnvProposalLookahead         = "PROPOSAL_LOOKAHEAD"
	EnvBookingTimeout            = "BOOKING_TIMEOUT"
	EnvNotificationTimeout       = "NOTIFICATION_TIMEOUT"

	EnvEmailProvider    = "EMAIL_PROVIDER"
	EnvEmailFrom        = "EMAIL_FROM"
	EnvEmailMaxAttempts = "EMAIL_MAX_ATTEMPTS"
	EnvResendAPIKey     = "RESEND_API_KEY"
	EnvResendBaseURL    = "RESEND_BASE_URL"
	EnvSMTPHost         = "SMTP_HOST"
	EnvSMTPPort         = "SMTP_PORT"
	EnvSMTPUsername     = "SMTP_USERNAME"
	EnvSMTPPassword     = "SMTP_PASSWORD"

	EnvDefaultAdminName  = "DEFAULT_ADMIN_NAME"
	EnvDefaultAdminEmail = "DEFAULT_ADMIN_EMAIL"
	EnvDefaultAdminPhone = "DEFAULT_ADMIN_PHONE"

	EnvEventsBackend = "EVENTS_BACKEND"

	EnvWorkingHoursTimezone     = "WORKING_HOURS_TIMEZONE"
	EnvWorkingHoursMeetingHours = "WORKING_HOURS_MEETING_HOURS"
	EnvWorkingHoursSlotMinutes  = "WORKING_HOURS_SLOT_MINUTES"
	EnvWorkingHoursAdvanceDays  = "WORKING_HOURS_ADVANCE_DAYS"
	EnvWorkingHoursMinLeadTime  = "WORKING_HOURS_MIN_LEAD_TIME"
	EnvHolidays                 = "HOLIDAYS"
)
