package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects the write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned for CHECK and NOT NULL failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced row is missing or still referenced.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
