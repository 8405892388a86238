package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates a logrus logger at the given level with structured JSON
// output in non-development environments.
func New(level, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(ParseLevel(level))
	if strings.ToLower(environment) != "development" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// ParseLevel converts a string level to a logrus.Level, defaulting to Info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
