package extensions

import (
	"context"
	"log/slog"
	"time"

	sdkcommon "github.com/sdkcommon/sdkcommon-go"
)

// LoggingExtension logs every container operation with its duration
type LoggingExtension struct {
	sdkcommon.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a new logging extension
func NewLoggingExtension(logger *slog.Logger) *LoggingExtension {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingExtension{
		BaseExtension: sdkcommon.NewBaseExtension("logging"),
		logger:        logger,
	}
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *sdkcommon.Operation) (any, error) {
	start := time.Now()
	result, err := next()
	duration := time.Since(start)

	attrs := []any{
		"operation", string(op.Kind),
		"duration", duration,
	}
	if op.Kind != sdkcommon.OpReset {
		attrs = append(attrs, "service", op.Key.String(), "scope", op.Scope.String())
	}

	if err != nil {
		e.logger.WarnContext(ctx, "container operation failed", append(attrs, "error", err)...)
	} else {
		e.logger.DebugContext(ctx, "container operation completed", attrs...)
	}

	return result, err
}

func (e *LoggingExtension) OnCleanupError(err *sdkcommon.CleanupError) bool {
	e.logger.Error("service cleanup failed",
		"service", err.Key.String(),
		"context", err.Context,
		"error", err.Err,
	)
	return false
}
