package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/clubhouse/internal/persistence"
	"github.com/sethvargo/go-retry"
)

// ErrorMapper maps SQLite errors to persistence layer errors.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError wraps driver errors with the matching persistence sentinel so
// callers can use errors.Is without knowing SQLite message formats.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}

// isBusy reports whether err is a transient lock contention error.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}

// RetryConfig configures retry behavior for writes that hit a busy database.
type RetryConfig struct {
	MaxRetries   uint64
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns the policy used when none is supplied.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
	}
}

func (c RetryConfig) backoff() retry.Backoff {
	initial := c.InitialDelay
	if initial <= 0 {
		initial = DefaultRetryConfig().InitialDelay
	}
	b := retry.NewExponential(initial)
	if c.MaxDelay > 0 {
		b = retry.WithCappedDuration(c.MaxDelay, b)
	}
	return retry.WithMaxRetries(c.MaxRetries, b)
}

// withRetry runs fn, retrying only busy errors. The returned error is always
// mapped through the ErrorMapper.
func (s *Storage) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := retry.Do(ctx, s.retry.backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	return s.mapper.MapError(err)
}
