package http

import (
	"context"
	"log/slog"
)

const serviceName = "disaster-alert-backend"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}

// logAtStatus picks the level from the response status: error for 5xx, warn for 4xx.
func logAtStatus(ctx context.Context, statusCode int, msg string, fields []any) {
	logger := httpLogger()
	switch {
	case statusCode >= 500:
		logger.ErrorContext(ctx, msg, fields...)
	case statusCode >= 400:
		logger.WarnContext(ctx, msg, fields...)
	default:
		logger.InfoContext(ctx, msg, fields...)
	}
}

// operationFields describes a failed operation. The caller identity is included
// once the session middleware has attached claims; tokens never are.
func operationFields(ctx context.Context, operation string, statusCode int, code, message string, err error) []any {
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", statusCode,
		"error_code", code,
		"message", message,
		"request_id", requestIDFromContext(ctx),
	}
	if claims, ok := ClaimsFromContext(ctx); ok {
		fields = append(fields, "user_id", claims.UserID, "role", string(claims.Role))
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	return fields
}

func logHTTPOperationError(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	logAtStatus(ctx, statusCode, "http operation failed", operationFields(ctx, operation, statusCode, code, message, err))
}
