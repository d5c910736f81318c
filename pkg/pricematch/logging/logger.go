// Package logging provides structured logging for pricematch using zerolog.
//
// Library code never writes to the process output on its own: the default
// logger discards everything until a caller installs one with SetDefault or
// Configure. Loggers travel through context.Context:
//
//	ctx := logging.WithLogger(ctx, &logger)
//	logging.FromContext(ctx).Info().Str("stage", "matching").Msg("started")
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	mu            sync.RWMutex
	defaultLogger = zerolog.Nop()
)

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := defaultLogger
	return &l
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

// Configure builds a logger from cfg and installs it as the default. Closing
// the returned closer restores the silent default and releases a log file.
func Configure(cfg *Config) (zerolog.Logger, io.Closer, error) {
	logger, out, err := NewLoggerFromConfig(cfg)
	if err != nil {
		return logger, out, err
	}
	SetDefault(logger)
	return logger, closerFunc(func() error {
		SetDefault(zerolog.Nop())
		return out.Close()
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
