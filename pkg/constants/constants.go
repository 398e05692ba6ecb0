package constants

const (
	AppName = "simorq-sessions"

	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "SIMORQ"

	DefaultTimezone = "Asia/Tehran"
)
