package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	config "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Config"
)

// Logger wraps zerolog.Logger with service-specific helpers
type Logger struct {
	*zerolog.Logger
}

// NewLogger creates a new logger based on configuration
func NewLogger(cfg *config.LoggingConfig) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.EnableCaller && cfg.Format == "json" {
		ctx = ctx.Caller()
	}

	l := ctx.Logger()
	return &Logger{&l}
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	l := zerolog.Nop()
	return &Logger{&l}
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	logger := l.Logger.With().Interface(key, value).Logger()
	return &Logger{&logger}
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	context := l.Logger.With()
	for key, value := range fields {
		context = context.Interface(key, value)
	}
	logger := context.Logger()
	return &Logger{&logger}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	logger := l.Logger.With().Err(err).Logger()
	return &Logger{&logger}
}

// WithComponent adds a component name to the logger
func (l *Logger) WithComponent(component string) *Logger {
	logger := l.Logger.With().Str("component", component).Logger()
	return &Logger{&logger}
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string) {
	l.Logger.Fatal().Msg(msg)
}

// FatalWithError logs a fatal message with error and exits
func (l *Logger) FatalWithError(err error, msg string) {
	l.Logger.Fatal().Err(err).Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.Logger.Error().Msg(msg)
}

// ErrorWithError logs an error message with error
func (l *Logger) ErrorWithError(err error, msg string) {
	l.Logger.Error().Err(err).Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.Logger.Warn().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.Logger.Info().Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.Logger.Debug().Msg(msg)
}
