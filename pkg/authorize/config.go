package authorize

import "github.com/Alijeyrad/simorq_sessions/config"

// Config holds configuration for the authorization system
type Config struct {
	// ModelPath overrides the embedded model when set.
	ModelPath string

	// PolicyPath is an optional CSV file of extra policies.
	PolicyPath string

	// EnableAudit logs every authorization decision.
	EnableAudit bool
}

func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config{
		ModelPath:   c.CasbinModelPath,
		PolicyPath:  c.PolicyPath,
		EnableAudit: c.EnableAudit,
	}
}
