package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects level, output format and whether logging is enabled.
type Options struct {
	Enabled bool
	Level   string
	Format  string
}

// Configure builds the application logger and sets the global level.
func Configure(opts Options) zerolog.Logger {
	return New(opts, os.Stdout)
}

// New is Configure with an explicit writer.
func New(opts Options, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := out
	if !opts.Enabled {
		output = io.Discard
	} else if opts.Format == "console" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", "farmacia").
		Logger()
}
