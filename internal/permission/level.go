// Package permission classifies what a club member may do with a club-scoped
// resource. It never touches storage: callers pass the already-fetched user
// level, membership set, and resource ownership.
package permission

import (
	"errors"
	"fmt"
)

// Level is the single permission level assigned to a user record. The integer
// values are the stored representation and must not be renumbered.
type Level int

const (
	Admin      Level = 1
	Regular    Level = 2
	SuperAdmin Level = 3
	Limited    Level = 4
)

// ErrUnknownLevel is returned by ParseLevel for integers outside the enumeration.
var ErrUnknownLevel = errors.New("permission: unknown level")

// Levels lists every level in display order.
func Levels() []Level {
	return []Level{SuperAdmin, Admin, Regular, Limited}
}

// ParseLevel converts a stored integer into a Level.
func ParseLevel(raw int) (Level, error) {
	switch l := Level(raw); l {
	case Admin, Regular, SuperAdmin, Limited:
		return l, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownLevel, raw)
	}
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	_, err := ParseLevel(int(l))
	return err == nil
}

// IsAdmin is true for Admin and SuperAdmin.
func (l Level) IsAdmin() bool {
	return l == Admin || l == SuperAdmin
}

// IsSuperAdmin is true only for SuperAdmin.
func (l Level) IsSuperAdmin() bool {
	return l == SuperAdmin
}

func (l Level) String() string {
	switch l {
	case Admin:
		return "Admin"
	case Regular:
		return "Regular"
	case SuperAdmin:
		return "Super Admin"
	case Limited:
		return "Limited"
	}
	return "Unknown"
}

// Label renders a display label for a raw stored value that may be missing or
// corrupt. A nil value is an unauthenticated visitor.
func Label(raw *int) string {
	if raw == nil {
		return "Guest"
	}
	level, err := ParseLevel(*raw)
	if err != nil {
		return "Unknown"
	}
	return level.String()
}
