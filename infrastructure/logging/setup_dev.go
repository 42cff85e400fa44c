//go:build !prod

package logging

import (
	"log/slog"
	"os"
)

// Setup writes logs to stdout only. The returned close function is a no-op.
func Setup(cfg *Config) (*slog.Logger, func() error, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}))
	setGlobal(logger)

	return logger, func() error { return nil }, nil
}
