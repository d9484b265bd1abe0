package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setBaseEnv pins every variable Load reads so values leaking in from the
// test process environment cannot affect the outcome.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DATABASE_URL", "postgres://localhost/birthdays_test")
	for _, key := range []string{
		"CELEBRATION_CHANNEL_NAME",
		"BIRTHDAY_ROLE_NAME",
		"COORDINATION_LEAD_DAYS",
		"QUEUE_POLL_LIMIT",
		"LOG_LEVEL",
		"ENVIRONMENT",
		"CRON_SPEC_COORDINATION_CHECK",
		"CRON_SPEC_REVEAL_CHECK",
		"CRON_SPEC_QUEUE_POLL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.DiscordToken)
	assert.Equal(t, "postgres://localhost/birthdays_test", cfg.DatabaseURL)
	assert.Equal(t, "general", cfg.CelebrationChannelName)
	assert.Equal(t, "Birthday Star", cfg.BirthdayRoleName)
	assert.Equal(t, 14, cfg.CoordinationLeadDays)
	assert.Equal(t, 50, cfg.QueuePollLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0 0 * * *", cfg.CronSpecCoordination)
	assert.Equal(t, "0 8 * * *", cfg.CronSpecReveal)
	assert.Equal(t, "0 * * * *", cfg.CronSpecQueuePoll)
}

func TestLoadCustomValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CELEBRATION_CHANNEL_NAME", "lounge")
	t.Setenv("BIRTHDAY_ROLE_NAME", "Cake Day")
	t.Setenv("COORDINATION_LEAD_DAYS", "7")
	t.Setenv("QUEUE_POLL_LIMIT", "10")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("CRON_SPEC_QUEUE_POLL", "*/15 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "lounge", cfg.CelebrationChannelName)
	assert.Equal(t, "Cake Day", cfg.BirthdayRoleName)
	assert.Equal(t, 7, cfg.CoordinationLeadDays)
	assert.Equal(t, 10, cfg.QueuePollLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "*/15 * * * *", cfg.CronSpecQueuePoll)
}

func TestLoadMissingDiscordToken(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadInvalidNumericValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric lead days", "COORDINATION_LEAD_DAYS", "two weeks"},
		{"zero lead days", "COORDINATION_LEAD_DAYS", "0"},
		{"negative lead days", "COORDINATION_LEAD_DAYS", "-3"},
		{"non-numeric poll limit", "QUEUE_POLL_LIMIT", "fifty"},
		{"zero poll limit", "QUEUE_POLL_LIMIT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
