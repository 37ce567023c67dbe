package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
