package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// Config holds logger configuration
type Config struct {
	Level    string // debug, info, warn, error
	Format   string // json, text
	Output   string // stdout, stderr, file
	FilePath string // used when Output is file
}

// Init configures the package logger
func Init(cfg Config) error {
	l := logrus.New()
	l.SetReportCaller(true)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetFormatter(newFormatter(cfg.Format))

	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	case "file":
		if cfg.FilePath == "" {
			output = os.Stderr
			break
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	default:
		// the gallery renders to stdout, keep logs off it
		output = os.Stderr
	}
	l.SetOutput(output)

	logger = l
	return nil
}

// SetOutput redirects the logger, mostly for tests
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}

// Get returns the package logger, creating a default one if Init was not called
func Get() *logrus.Logger {
	if logger == nil {
		l := logrus.New()
		l.SetReportCaller(true)
		l.SetLevel(logrus.InfoLevel)
		l.SetFormatter(newFormatter("text"))
		l.SetOutput(os.Stderr)
		logger = l
	}
	return logger
}

func newFormatter(format string) logrus.Formatter {
	callerPretty := func(frame *runtime.Frame) (function string, file string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
	}

	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{
			TimestampFormat:  "2006-01-02 15:04:05",
			CallerPrettyfier: callerPretty,
		}
	default:
		return &logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02 15:04:05",
			CallerPrettyfier: callerPretty,
		}
	}
}

func Debugf(format string, args ...interface{}) {
	Get().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Get().Infof(format, args...)
}

// Fatalf logs and exits the process
func Fatalf(format string, args ...interface{}) {
	Get().Fatalf(format, args...)
}

// WithField adds a single field to the log entry
func WithField(key string, value interface{}) *logrus.Entry {
	return Get().WithField(key, value)
}

// WithFields adds several fields to the log entry
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return Get().WithFields(logrus.Fields(fields))
}

// WithError adds an error to the log entry
func WithError(err error) *logrus.Entry {
	return Get().WithError(err)
}
