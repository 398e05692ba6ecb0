package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Alijeyrad/simorq_sessions/pkg/constants"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. SIMORQ_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file (optional in Docker environments)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
			return nil, fmt.Errorf("config file not found in %q and no environment overrides set", configPath)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.requests_per_minute", 120)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.dbname", "simorq_sessions")
	v.SetDefault("database.pool.max_open_conns", 25)
	v.SetDefault("database.pool.max_idle_conns", 5)
	v.SetDefault("database.pool.conn_max_lifetime_minutes", 5)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout_seconds", 5)
	v.SetDefault("redis.read_timeout_seconds", 3)
	v.SetDefault("redis.write_timeout_seconds", 3)

	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", constants.AppName)
	v.SetDefault("authentication.paseto.audience", constants.AppName)
	v.SetDefault("authentication.paseto.access_ttl_minutes", 60)

	v.SetDefault("sms.default_region", "IR")
	v.SetDefault("email.smtp.timeout_seconds", 10)

	v.SetDefault("codes.token_byte_length", 16)
	v.SetDefault("codes.url_safe_tokens", true)

	v.SetDefault("observability.service_name", constants.AppName)
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.tracing.sampling_rate", 1.0)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.subject_prefix", "")

	v.SetDefault("scheduling.timezone", constants.DefaultTimezone)
	v.SetDefault("scheduling.slot_minutes", 60)
	v.SetDefault("scheduling.slot_cache_ttl_seconds", 60)
	v.SetDefault("scheduling.max_booking_days_out", 90)

	v.SetDefault("booking.full_refund_hours", 24)
	v.SetDefault("booking.partial_refund_hours", 2)
	v.SetDefault("booking.partial_refund_percent", 50)
	v.SetDefault("booking.meeting_base_url", "https://meet.simorq.ir")

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.offsets_minutes", []int{24 * 60, 60})
	v.SetDefault("reminders.types", []string{"sms"})
	v.SetDefault("reminders.poll_interval_seconds", 30)
	v.SetDefault("reminders.batch_size", 100)
	v.SetDefault("reminders.rate_per_second", 5.0)
	v.SetDefault("reminders.max_attempts", 5)
	v.SetDefault("reminders.claim_lease_seconds", 300)
	v.SetDefault("reminders.language", "fa")
}
