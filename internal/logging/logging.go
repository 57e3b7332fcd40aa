// Package logging holds the process-global logger. The library logs
// nothing unless a host installs a real logger; the CLI installs a console
// writer at startup.
package logging

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the global logger used by all packages.
var Logger zerolog.Logger

func init() {
	SetGlobalLogger(zerolog.Nop())
}

// SetGlobalLogger replaces the global logger and makes it the default
// context logger.
func SetGlobalLogger(logger zerolog.Logger) {
	Logger = logger
	zerolog.DefaultContextLogger = &Logger
}

// SetupConsole installs a console logger at the named level. An empty
// level defaults to info.
func SetupConsole(w io.Writer, level string) error {
	if level == "" {
		level = zerolog.LevelInfoValue
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	out := zerolog.ConsoleWriter{Out: w}
	SetGlobalLogger(zerolog.New(out).Level(parsed).With().Timestamp().Logger())
	return nil
}

// Ctx returns the logger attached to the context, falling back to the
// global one.
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// Trace starts a trace-level event on the global logger.
func Trace() *zerolog.Event { return Logger.Trace() }

// Debug starts a debug-level event on the global logger.
func Debug() *zerolog.Event { return Logger.Debug() }

// Info starts an info-level event on the global logger.
func Info() *zerolog.Event { return Logger.Info() }

// Warn starts a warn-level event on the global logger.
func Warn() *zerolog.Event { return Logger.Warn() }

// Err starts an error-level event recording err on the global logger.
func Err(err error) *zerolog.Event { return Logger.Err(err) }

// Error starts an error-level event on the global logger.
func Error() *zerolog.Event { return Logger.Error() }

// Fatal starts a fatal-level event on the global logger.
func Fatal() *zerolog.Event { return Logger.Fatal() }
