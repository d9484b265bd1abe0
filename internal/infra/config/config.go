package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DiscordToken           string
	DatabaseURL            string
	CelebrationChannelName string
	BirthdayRoleName       string
	CoordinationLeadDays   int
	QueuePollLimit         int
	LogLevel               string
	Environment            string
	CronSpecCoordination   string // daily scan for birthdays lead-days ahead
	CronSpecReveal         string // daily scan for birthdays happening today
	CronSpecQueuePoll      string // poll cycle for due scheduled events
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.CelebrationChannelName = os.Getenv("CELEBRATION_CHANNEL_NAME")
	if cfg.CelebrationChannelName == "" {
		cfg.CelebrationChannelName = "general"
	}

	cfg.BirthdayRoleName = os.Getenv("BIRTHDAY_ROLE_NAME")
	if cfg.BirthdayRoleName == "" {
		cfg.BirthdayRoleName = "Birthday Star"
	}

	cfg.CoordinationLeadDays = 14
	if leadStr := os.Getenv("COORDINATION_LEAD_DAYS"); leadStr != "" {
		lead, err := strconv.Atoi(leadStr)
		if err != nil || lead < 1 {
			return nil, fmt.Errorf("invalid COORDINATION_LEAD_DAYS: %q", leadStr)
		}
		cfg.CoordinationLeadDays = lead
	}

	cfg.QueuePollLimit = 50
	if limitStr := os.Getenv("QUEUE_POLL_LIMIT"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return nil, fmt.Errorf("invalid QUEUE_POLL_LIMIT: %q", limitStr)
		}
		cfg.QueuePollLimit = limit
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecCoordination = os.Getenv("CRON_SPEC_COORDINATION_CHECK")
	if cfg.CronSpecCoordination == "" {
		cfg.CronSpecCoordination = "0 0 * * *" // Default: daily at midnight
	}

	cfg.CronSpecReveal = os.Getenv("CRON_SPEC_REVEAL_CHECK")
	if cfg.CronSpecReveal == "" {
		cfg.CronSpecReveal = "0 8 * * *" // Default: daily at 8 AM
	}

	cfg.CronSpecQueuePoll = os.Getenv("CRON_SPEC_QUEUE_POLL")
	if cfg.CronSpecQueuePoll == "" {
		cfg.CronSpecQueuePoll = "0 * * * *" // Default: hourly
	}

	return cfg, nil
}
