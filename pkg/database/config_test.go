package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/simorq_sessions/config"
)

func TestFromCentralConfig(t *testing.T) {
	c := config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "sessions", SSLMode: "disable"}
	c.Pool.MaxOpenConns = 10
	c.Logging.Enabled = true
	c.Logging.SlowQueryThresholdMs = 250

	cfg := FromCentralConfig(c)
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=sessions sslmode=disable", cfg.DSN())
	assert.Equal(t, 10, cfg.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime())
	assert.Equal(t, 250*time.Millisecond, cfg.SlowQueryThreshold())

	cfg.EnableLogging = false
	assert.Zero(t, cfg.SlowQueryThreshold())
}
