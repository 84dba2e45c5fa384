package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and destination of the logger.
type Options struct {
	// Level should be a valid slog level string: DEBUG, INFO, WARN, ERROR.
	// Unrecognized values default to ERROR.
	Level string
	// File, when set, receives logs through a size-rotated writer instead of Output.
	File string
	// Output defaults to stderr so stdout stays free for CSV.
	Output io.Writer
}

// New returns a structured JSON logger with source location enabled.
func New(opts Options) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		lvl = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(destination(opts), &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}))
}

func destination(opts Options) io.Writer {
	if opts.File != "" {
		return &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	if opts.Output != nil {
		return opts.Output
	}
	return os.Stderr
}
