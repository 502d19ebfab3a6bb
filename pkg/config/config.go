package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"glec/pkg/client"
	"glec/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisURL string

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	PublicBaseURL string

	TokenTTL                  time.Duration
	AvailabilityWindow        time.Duration
	AvailabilityGroupTimezone string
	ProposalLookahead         time.Duration
	BookingTimeout            time.Duration
	NotificationTimeout       time.Duration

	EmailProvider    string
	EmailFrom        string
	EmailMaxAttempts int
	ResendAPIKey     string
	ResendBaseURL    string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string

	AdminName  string
	AdminEmail string
	AdminPhone string

	EventsBackend string

	WorkingHoursTimezone     string
	WorkingHoursMeetingHours []int
	WorkingHoursSlotMinutes  int
	WorkingHoursAdvanceDays  int
	WorkingHoursMinLeadTime  time.Duration
	Holidays                 []string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisURL: getEnvStr(EnvRedisURL, ""),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),
		JWTTTL:    getEnvDuration(EnvJWTTTL, DefaultJWTTTL),

		PublicBaseURL: strings.TrimRight(getEnvStr(EnvPublicBaseURL, DefaultPublicBaseURL), "/"),

		TokenTTL:                  getEnvDuration(EnvTokenTTL, DefaultTokenTTL),
		AvailabilityWindow:        getEnvDuration(EnvAvailabilityWindow, DefaultAvailabilityWindow),
		AvailabilityGroupTimezone: getEnvStr(EnvAvailabilityGroupTimezone, DefaultAvailabilityGroupTimezone),
		ProposalLookahead:         getEnvDuration(EnvProposalLookahead, DefaultProposalLookahead),
		BookingTimeout:            getEnvDuration(EnvBookingTimeout, DefaultBookingTimeout),
		NotificationTimeout:       getEnvDuration(EnvNotificationTimeout, DefaultNotificationTimeout),

		EmailProvider:    strings.ToLower(getEnvStr(EnvEmailProvider, DefaultEmailProvider)),
		EmailFrom:        getEnvStr(EnvEmailFrom, DefaultEmailFrom),
		EmailMaxAttempts: getEnvNum(EnvEmailMaxAttempts, DefaultEmailMaxAttempts),
		ResendAPIKey:     getEnvStr(EnvResendAPIKey, ""),
		ResendBaseURL:    getEnvStr(EnvResendBaseURL, DefaultResendBaseURL),
		SMTPHost:         getEnvStr(EnvSMTPHost, ""),
		SMTPPort:         getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername:     getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword:     getEnvStr(EnvSMTPPassword, ""),

		AdminName:  getEnvStr(EnvDefaultAdminName, DefaultAdminName),
		AdminEmail: getEnvStr(EnvDefaultAdminEmail, DefaultAdminEmail),
		AdminPhone: getEnvStr(EnvDefaultAdminPhone, DefaultAdminPhone),

		EventsBackend: strings.ToLower(getEnvStr(EnvEventsBackend, DefaultEventsBackend)),

		WorkingHoursTimezone:     getEnvStr(EnvWorkingHoursTimezone, DefaultWorkingHoursTimezone),
		WorkingHoursMeetingHours: getEnvIntList(EnvWorkingHoursMeetingHours, DefaultWorkingHoursMeetingHours),
		WorkingHoursSlotMinutes:  getEnvNum(EnvWorkingHoursSlotMinutes, DefaultWorkingHoursSlotMinutes),
		WorkingHoursAdvanceDays:  getEnvNum(EnvWorkingHoursAdvanceDays, DefaultWorkingHoursAdvanceDays),
		WorkingHoursMinLeadTime:  getEnvDuration(EnvWorkingHoursMinLeadTime, DefaultWorkingHoursMinLeadTime),
		Holidays:                 getEnvList(EnvHolidays, DefaultHolidays),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the optional Redis client. It is a no-op when REDIS_URL is unset.
func (cfg *Config) SetRedis() {
	if cfg.RedisURL == "" {
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.RedisURL != "" && !regexp.MustCompile(`^rediss?://`).MatchString(cfg.RedisURL) {
		errors = append(errors, "RedisURL must start with 'redis://' or 'rediss://'")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"JWTTTL", cfg.JWTTTL},
		{"TokenTTL", cfg.TokenTTL},
		{"AvailabilityWindow", cfg.AvailabilityWindow},
		{"ProposalLookahead", cfg.ProposalLookahead},
		{"BookingTimeout", cfg.BookingTimeout},
		{"NotificationTimeout", cfg.NotificationTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}
	if cfg.TokenTTL > MaxTokenTTL {
		errors = append(errors, fmt.Sprintf("TokenTTL cannot exceed %s, got: %s", MaxTokenTTL, cfg.TokenTTL))
	}
	// Booking and its confirmation email run inside one request.
	if budget := min(cfg.RequestTimeout, cfg.WriteTimeout); cfg.BookingTimeout+cfg.NotificationTimeout >= budget {
		errors = append(errors, fmt.Sprintf("BookingTimeout + NotificationTimeout must be below min(RequestTimeout, WriteTimeout) = %s, got: %s",
			budget, cfg.BookingTimeout+cfg.NotificationTimeout))
	}
	if cfg.WorkingHoursMinLeadTime < 0 {
		errors = append(errors, fmt.Sprintf("WorkingHoursMinLeadTime cannot be negative, got: %s", cfg.WorkingHoursMinLeadTime))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if _, err := url.ParseRequestURI(cfg.PublicBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("PublicBaseURL must be an absolute URL, got: %s", cfg.PublicBaseURL))
	}

	if _, err := time.LoadLocation(cfg.AvailabilityGroupTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("AvailabilityGroupTimezone is not a valid IANA zone: %s", cfg.AvailabilityGroupTimezone))
	}
	if _, err := time.LoadLocation(cfg.WorkingHoursTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("WorkingHoursTimezone is not a valid IANA zone: %s", cfg.WorkingHoursTimezone))
	}

	switch cfg.EmailProvider {
	case EmailProviderNoop:
	case EmailProviderResend:
		if cfg.ResendAPIKey == "" {
			errors = append(errors, "ResendAPIKey is required when EmailProvider is 'resend'")
		}
	case EmailProviderSMTP:
		if cfg.SMTPHost == "" {
			errors = append(errors, "SMTPHost is required when EmailProvider is 'smtp'")
		}
		if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
		}
	default:
		errors = append(errors, fmt.Sprintf("EmailProvider must be one of resend, smtp, noop, got: %s", cfg.EmailProvider))
	}
	if cfg.EmailMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("EmailMaxAttempts must be at least 1, got: %d", cfg.EmailMaxAttempts))
	}

	switch cfg.EventsBackend {
	case EventsBackendDirect, EventsBackendKafka:
	default:
		errors = append(errors, fmt.Sprintf("EventsBackend must be 'direct' or 'kafka', got: %s", cfg.EventsBackend))
	}

	if len(cfg.WorkingHoursMeetingHours) == 0 {
		errors = append(errors, "WorkingHoursMeetingHours cannot be empty")
	}
	for _, h := range cfg.WorkingHoursMeetingHours {
		if h < 0 || h > 23 {
			errors = append(errors, fmt.Sprintf("WorkingHoursMeetingHours entries must be between 0 and 23, got: %d", h))
		}
	}
	if cfg.WorkingHoursSlotMinutes <= 0 {
		errors = append(errors, fmt.Sprintf("WorkingHoursSlotMinutes must be positive, got: %d", cfg.WorkingHoursSlotMinutes))
	}
	if cfg.WorkingHoursAdvanceDays <= 0 {
		errors = append(errors, fmt.Sprintf("WorkingHoursAdvanceDays must be positive, got: %d", cfg.WorkingHoursAdvanceDays))
	}
	for _, day := range cfg.Holidays {
		if _, err := time.Parse(time.DateOnly, day); err != nil {
			errors = append(errors, fmt.Sprintf("Holidays entries must be YYYY-MM-DD, got: %s", day))
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_url", redactURL(cfg.RedisURL),
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_ttl", cfg.JWTTTL,
		"public_base_url", cfg.PublicBaseURL,
		"token_ttl", cfg.TokenTTL,
		"availability_window", cfg.AvailabilityWindow,
		"availability_group_timezone", cfg.AvailabilityGroupTimezone,
		"proposal_lookahead", cfg.ProposalLookahead,
		"booking_timeout", cfg.BookingTimeout,
		"notification_timeout", cfg.NotificationTimeout,
		"email_provider", cfg.EmailProvider,
		"email_from", cfg.EmailFrom,
		"email_max_attempts", cfg.EmailMaxAttempts,
		"resend_api_key_set", cfg.ResendAPIKey != "",
		"smtp_host", cfg.SMTPHost,
		"smtp_password_set", cfg.SMTPPassword != "",
		"events_backend", cfg.EventsBackend,
		"working_hours_timezone", cfg.WorkingHoursTimezone,
		"working_hours_meeting_hours", cfg.WorkingHoursMeetingHours,
		"working_hours_advance_days", cfg.WorkingHoursAdvanceDays,
		"holidays", len(cfg.Holidays),
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("***", "***")
	return u.String()
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvIntList parses a comma-separated list of integers, skipping entries that fail to parse.
func getEnvIntList(key, fallback string) []int {
	raw := getEnvStr(key, fallback)
	var out []int
	for _, part := range strings.Split(raw, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
