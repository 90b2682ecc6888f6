// Package logging builds the process logger. Every entry carries the
// service, version and environment fields.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/config"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

func New(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(formatter(cfg.Log.Format))

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithField("level", cfg.Log.Level).Warn("Invalid log level, defaulting to info")
	}
	logger.SetLevel(level)

	logger.AddHook(&defaultFieldsHook{fields: logrus.Fields{
		"service":     "movie-api",
		"version":     GetVersion(),
		"environment": cfg.Server.Environment,
	}})
	return logger
}

func formatter(format string) logrus.Formatter {
	if strings.EqualFold(format, "text") {
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat}
	}
	return &logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
			logrus.FieldKeyMsg:  "msg",
		},
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// GetVersion reads APP_VERSION, "dev" when unset.
func GetVersion() string {
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}
	return "dev"
}

func WithUserID(logger *logrus.Logger, userID string) *logrus.Entry {
	return logger.WithField("user_id", userID)
}

// WithRequest nests method, route and status under "http".
func WithRequest(logger *logrus.Logger, method, route string, status int, latencyMs float64) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"http": logrus.Fields{
			"method": method,
			"route":  route,
			"status": status,
		},
		"latency_ms": latencyMs,
	})
}

type defaultFieldsHook struct {
	fields logrus.Fields
}

func (h *defaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire never overwrites a field set on the entry itself.
func (h *defaultFieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, exists := entry.Data[k]; !exists {
			entry.Data[k] = v
		}
	}
	return nil
}
