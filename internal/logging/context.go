package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// FromContext returns the logger stored in ctx, or a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

func WithComponent(ctx context.Context, component string) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Str("component", component).Logger()
	return WithContext(ctx, childLogger)
}

func WithRunID(ctx context.Context, runID string) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Str("run_id", runID).Logger()
	return WithContext(ctx, childLogger)
}

func WithIdentifier(ctx context.Context, identifier string) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Str("identifier", identifier).Logger()
	return WithContext(ctx, childLogger)
}
