package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New creates the application logger writing to out at the given level
// ("debug", "info", "warn", "error"). An unknown level falls back to info and
// is reported through the returned logger.
func New(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		logger.Warnf("Invalid log level '%s', using 'info'. Error: %v", level, err)
		return logger
	}
	logger.SetLevel(parsed)
	return logger
}
