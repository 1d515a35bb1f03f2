package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with the structured fields every service emits:
// service name, action and an optional request id.
type Logger struct {
	zl zerolog.Logger
}

func New(service string) *Logger {
	hostname, _ := os.Hostname()
	zl := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Logger()
	return &Logger{zl: zl}
}

// Pretty switches to the human-readable console writer. Used by the
// display binaries so log lines do not tear the rendered queue apart.
func (l *Logger) Pretty() *Logger {
	return &Logger{zl: l.zl.Output(zerolog.ConsoleWriter{Out: os.Stderr})}
}

// Action returns a logger carrying the given action field.
func (l *Logger) Action(action string) *Logger {
	return &Logger{zl: l.zl.With().Str("action", action).Logger()}
}

// RequestID returns a logger carrying the given request id.
func (l *Logger) RequestID(id string) *Logger {
	return &Logger{zl: l.zl.With().Str("request_id", id).Logger()}
}

func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }

func (l *Logger) Error(msg string, err error) {
	l.zl.Error().Err(err).Msg(msg)
}

func (l *Logger) Fatal(msg string, err error) {
	l.zl.Fatal().Err(err).Msg(msg)
}
