package permission

import (
	"errors"
	"slices"
)

var (
	// ErrForbidden denies an operation the subject is not entitled to.
	ErrForbidden = errors.New("permission: forbidden")
	// ErrNotFound denies an operation on a resource that could not be loaded.
	ErrNotFound = errors.New("permission: resource not found")
)

// Operation is the kind of action being authorized.
type Operation string

const (
	OpView   Operation = "view"
	OpCreate Operation = "create"
	OpEdit   Operation = "edit"
	OpDelete Operation = "delete"
	// OpAssign acts on behalf of another user, such as booking an appointment
	// for them or handing them an address.
	OpAssign Operation = "assign"
)

// Subject is the acting user as resolved for the current request.
type Subject struct {
	UserID  string
	Level   Level
	ClubIDs []string
}

// Resource is the club-scoped record being acted on. An empty OwnerID means
// the resource has no owner.
type Resource struct {
	ClubID  string
	OwnerID string
}

// HasAccessToClub reports whether the subject may see resources of clubID.
// Super admins reach every club; everyone else needs a membership.
func HasAccessToClub(s Subject, clubID string) bool {
	if s.Level.IsSuperAdmin() {
		return true
	}
	return clubID != "" && slices.Contains(s.ClubIDs, clubID)
}

// CanMutateResource reports whether the subject may edit or delete r. Admins
// may mutate anything; others only what they own. Club scoping is checked
// separately by HasAccessToClub.
func CanMutateResource(s Subject, r Resource) bool {
	if s.Level.IsAdmin() {
		return true
	}
	return r.OwnerID != "" && r.OwnerID == s.UserID
}

// Authorize combines the club and ownership rules for op on r. A nil r is
// reported as ErrNotFound.
func Authorize(s Subject, r *Resource, op Operation) error {
	if r == nil {
		return ErrNotFound
	}
	if !s.Level.Valid() {
		return ErrForbidden
	}
	if !HasAccessToClub(s, r.ClubID) {
		return ErrForbidden
	}

	switch op {
	case OpView, OpCreate:
		return nil
	case OpEdit, OpDelete:
		if CanMutateResource(s, *r) {
			return nil
		}
	case OpAssign:
		if s.Level.IsAdmin() {
			return nil
		}
	}
	return ErrForbidden
}
