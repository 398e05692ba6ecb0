package config

import (
	"time"
	// scheduling.timezone must resolve on hosts without zoneinfo
	_ "time/tzdata"
)

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Authorization  AuthorizationConfig  `mapstructure:"authorization"`
	Email          EmailConfig          `mapstructure:"email"`
	SMS            SMSConfig            `mapstructure:"sms"`
	Codes          CodesConfig          `mapstructure:"codes"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Nats           NatsConfig           `mapstructure:"nats"`
	Scheduling     SchedulingConfig     `mapstructure:"scheduling"`
	Booking        BookingConfig        `mapstructure:"booking"`
	Reminders      RemindersConfig      `mapstructure:"reminders"`
}

type NatsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
	// SubjectPrefix is prepended to every published subject.
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type DatabaseConfig struct {
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
	Logging    DatabaseLoggingConfig   `mapstructure:"logging"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns"`
	MaxIdleConns       int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type DatabaseLoggingConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	SlowQueryThresholdMs int  `mapstructure:"slow_query_threshold_ms"`
}

type RedisConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

type ServerConfig struct {
	Port           int             `mapstructure:"port"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds"`
	Environment    string          `mapstructure:"environment"`
	Databases      []string        `mapstructure:"databases"`
	CORS           CORSConfig      `mapstructure:"cors"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type AuthenticationConfig struct {
	Paseto PasetoConfig `mapstructure:"paseto"`
	// EncryptionKey is a 32-byte hex string used for AES-256-GCM encryption
	// of meeting passwords.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
}

type AuthorizationConfig struct {
	// CasbinModelPath overrides the embedded RBAC model when set.
	CasbinModelPath string `mapstructure:"casbin_model_path"`
	// PolicyPath points at an optional CSV of extra policies.
	PolicyPath  string `mapstructure:"policy_path"`
	EnableAudit bool   `mapstructure:"enable_audit"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SMSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	SMSIR   SMSIRConfig `mapstructure:"smsir"`
	// DefaultRegion is used to parse phone numbers without a country code.
	DefaultRegion string `mapstructure:"default_region"`
}

type SMSIRConfig struct {
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
	// TemplateID is the status update template (confirmed, cancelled, rescheduled).
	TemplateID string `mapstructure:"template_id"`
	// ReminderTemplateID is the ultra-fast template used for session reminders.
	ReminderTemplateID string `mapstructure:"reminder_template_id"`
}

type CodesConfig struct {
	TokenByteLength int    `mapstructure:"token_byte_length"`
	URLSafeTokens   bool   `mapstructure:"url_safe_tokens"`
	Charset         string `mapstructure:"charset"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"` // for Grafana Cloud basic auth
	Password string `mapstructure:"password"`
}

type SchedulingConfig struct {
	// Timezone in which session dates and windows are interpreted.
	Timezone          string `mapstructure:"timezone"`
	SlotMinutes       int    `mapstructure:"slot_minutes"`
	SlotCacheTTLSec   int    `mapstructure:"slot_cache_ttl_seconds"`
	MaxBookingDaysOut int    `mapstructure:"max_booking_days_out"`
}

func (s SchedulingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s SchedulingConfig) SlotCacheTTL() time.Duration {
	return time.Duration(s.SlotCacheTTLSec) * time.Second
}

type BookingConfig struct {
	FullRefundHours      int    `mapstructure:"full_refund_hours"`
	PartialRefundHours   int    `mapstructure:"partial_refund_hours"`
	PartialRefundPercent int    `mapstructure:"partial_refund_percent"`
	MeetingBaseURL       string `mapstructure:"meeting_base_url"`
}

type RemindersConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// OffsetsMinutes are lead times before the session start.
	OffsetsMinutes  []int    `mapstructure:"offsets_minutes"`
	Types           []string `mapstructure:"types"`
	PollIntervalSec int      `mapstructure:"poll_interval_seconds"`
	BatchSize       int      `mapstructure:"batch_size"`
	RatePerSecond   float64  `mapstructure:"rate_per_second"`
	MaxAttempts     int      `mapstructure:"max_attempts"`
	// ClaimLeaseSec bounds how long a claimed batch is hidden from other dispatchers.
	ClaimLeaseSec int `mapstructure:"claim_lease_seconds"`
	// Language selects the email template: "fa" or "en".
	Language string `mapstructure:"language"`
}

func (r RemindersConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalSec) * time.Second
}

func (r RemindersConfig) ClaimLease() time.Duration {
	if r.ClaimLeaseSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.ClaimLeaseSec) * time.Second
}

func (r RemindersConfig) Offsets() []time.Duration {
	out := make([]time.Duration, 0, len(r.OffsetsMinutes))
	for _, m := range r.OffsetsMinutes {
		out = append(out, time.Duration(m)*time.Minute)
	}
	return out
}
