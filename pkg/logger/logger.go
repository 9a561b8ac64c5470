package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	log *logrus.Logger
	Log *logrus.Entry
)

// This init is for test binaries, where the entry point is not main and
// InitLogger would otherwise never run.
func init() {
	InitLogger()
}

// InitLogger configures the process-wide logger. JSON output in production,
// human-readable text everywhere else.
func InitLogger() {
	log = logrus.New()
	log.SetOutput(os.Stderr)

	if os.Getenv("ENV") == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	Log = log.WithFields(logrus.Fields{
		"service": "meshly-backend",
	})
}
