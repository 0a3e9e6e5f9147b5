// Package logging provides the process-wide structured logger shared by
// the worker and shell binaries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(consoleOrPlain(os.Stdout)).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init reconfigures the global logger with the given level and, when
// logPath is non-empty, tees output to a rotated-free append-only file
// alongside the console/JSON writer.
func Init(level, logPath string) error {
	zerolog.SetGlobalLevel(parseLevel(level))

	writers := []io.Writer{consoleOrPlain(os.Stdout)}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return nil
}

// WithComponent returns a child logger tagging every line with the
// given component name, so worker/shell output can be told apart.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func consoleOrPlain(f *os.File) io.Writer {
	if isatty.IsTerminal(f.Fd()) {
		return zerolog.ConsoleWriter{Out: f, TimeFormat: "15:04:05.000"}
	}
	return f
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
