package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"orderbook-aggregator/src/models"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

// Logger wraps logrus with the printf-style API used across the application.
// Output is structured JSON on stdout, optionally duplicated into a rotating
// file when MLogConfig.File is set.
type Logger struct {
	log  *logrus.Logger
	name string
}

// -----------------------------------------------------------------------------

// NewLogger builds the application logger from configuration. An unknown or
// empty level falls back to info rather than failing startup.
func NewLogger(cfg *models.MLogConfig, name string) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	log.SetOutput(out)

	return &Logger{log: log, name: name}
}

// -----------------------------------------------------------------------------

func (l *Logger) entry() *logrus.Entry {
	return l.log.WithField("app", l.name)
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry().Debugf(format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry().Infof(format, args...)
}

// Warning logs at warning level.
func (l *Logger) Warning(format string, args ...interface{}) {
	l.entry().Warnf(format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry().Errorf(format, args...)
}

// Critical logs an unrecoverable condition. The caller decides whether to
// exit; Critical itself never does.
func (l *Logger) Critical(format string, args ...interface{}) {
	l.entry().WithField("severity", "critical").Errorf(format, args...)
}
