// internal/infra/logger/logger.go
package logger

import (
	"os"

	"birthday_card_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Init configures it once at startup; every
// service derives its own entry through Component.
var Log = logrus.New()

// Init applies level and format from the loaded configuration. Production and
// staging log JSON for ingestion; everywhere else gets human-readable text.
// Config lowercases Environment and LogLevel before they reach here.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		Log.Warnf("Unknown log level %q, falling back to info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	switch cfg.Environment {
	case "production", "staging":
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	Log.WithField("level", Log.GetLevel().String()).Info("Logger initialized")
}

// Get returns the configured global logger.
func Get() *logrus.Logger {
	return Log
}

// Component tags an entry with the engine component it logs for, the field
// every service and handler in this application carries.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
