package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestReadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Asia/Tehran", cfg.Scheduling.Timezone)
	assert.Equal(t, 60, cfg.Scheduling.SlotMinutes)
	assert.Equal(t, 24, cfg.Booking.FullRefundHours)
	assert.Equal(t, 2, cfg.Booking.PartialRefundHours)
	assert.Equal(t, 50, cfg.Booking.PartialRefundPercent)
	assert.Equal(t, []int{1440, 60}, cfg.Reminders.OffsetsMinutes)
	assert.Equal(t, "Asia/Tehran", cfg.Scheduling.Location().String())
}

func TestReadConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, "scheduling:\n  slot_minutes: 45\n")
	t.Setenv("SIMORQ_SCHEDULING_SLOT_MINUTES", "30")

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Scheduling.SlotMinutes)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:     ServerConfig{Port: 8080},
			Scheduling: SchedulingConfig{Timezone: "Asia/Tehran", SlotMinutes: 60},
			Booking:    BookingConfig{FullRefundHours: 24, PartialRefundHours: 2, PartialRefundPercent: 50},
			Reminders:  RemindersConfig{Enabled: true, OffsetsMinutes: []int{60}, Types: []string{"sms"}, PollIntervalSec: 30},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad timezone", func(c *Config) { c.Scheduling.Timezone = "Mars/Olympus" }, true},
		{"zero slot", func(c *Config) { c.Scheduling.SlotMinutes = 0 }, true},
		{"inverted refund thresholds", func(c *Config) { c.Booking.PartialRefundHours = 48 }, true},
		{"percent over 100", func(c *Config) { c.Booking.PartialRefundPercent = 120 }, true},
		{"unknown reminder type", func(c *Config) { c.Reminders.Types = []string{"fax"} }, true},
		{"negative offset", func(c *Config) { c.Reminders.OffsetsMinutes = []int{-5} }, true},
		{"disabled reminders ignore poll interval", func(c *Config) {
			c.Reminders.Enabled = false
			c.Reminders.PollIntervalSec = 0
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
