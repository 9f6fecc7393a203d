package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bmp-tn/project-admin/internal/logger"
	"github.com/bmp-tn/project-admin/internal/requestctx"
)

// Logger tags console log lines with the request and session they belong to.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates a logger bound to the ids carried by ctx.
func NewLogger(ctx context.Context) *Logger {
	requestID := requestctx.RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	l := logger.Get().With("request_id", requestID)
	if sid := requestctx.SessionID(ctx); sid != "" {
		l = l.With("session_id", sid)
	}
	return &Logger{log: l}
}

// LogErrorf logs a formatted error for operation.
func (l *Logger) LogErrorf(operation string, format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...), "operation", operation)
}

// LogInfof logs a formatted message for operation.
func (l *Logger) LogInfof(operation string, format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...), "operation", operation)
}

// LogWarnf logs a formatted warning for operation.
func (l *Logger) LogWarnf(operation string, format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...), "operation", operation)
}
