package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/clubhouse/internal/logging"
	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, principal Principal, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	pairs := []any{"service", serviceName, "operation", operation}
	if principal.UserID != "" {
		pairs = append(pairs, "principal_id", principal.UserID)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}

// logOutcome is deferred by service methods to record the result of an operation.
func logOutcome(ctx context.Context, logger *slog.Logger, action string, err error, attrs ...any) {
	if err == nil {
		logger.With(attrs...).InfoContext(ctx, action)
		return
	}
	level := slog.LevelError
	switch ErrorKind(err) {
	case "forbidden", "not_found", "validation", "already_exists", "unauthenticated":
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "failed: "+action, "error", err, "error_kind", ErrorKind(err))
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	return "unexpected"
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return fmt.Errorf("%w: referenced record is missing", ErrNotFound)
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fieldError("record", "violates a data constraint")
	}
	return err
}

func mapPermissionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, permission.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, permission.ErrForbidden):
		return ErrForbidden
	}
	return err
}
