// Package commands holds the individual CLI subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapstore/internal/config"
)

// envKey is used to store the loaded environment in the command
// context.
type envKey struct{}

// WithEnvironment stores the environment in the context.
func WithEnvironment(ctx context.Context, env *config.Environment) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// Environment retrieves the loaded environment from the command
// context, falling back to the defaults when none was stored.
func Environment(ctx context.Context) *config.Environment {
	if env, ok := ctx.Value(envKey{}).(*config.Environment); ok {
		return env
	}
	return &config.Environment{
		Driver:   config.DefaultDriver,
		LogLevel: config.DefaultLogLevel,
	}
}

// newLogger builds a stderr logger honoring the environment's level.
func newLogger(env *config.Environment) *slog.Logger {
	var level slog.Level
	switch env.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
