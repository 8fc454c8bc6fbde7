package application

import (
	"context"
	"errors"

	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

func authorize(p Principal, r *permission.Resource, op permission.Operation) error {
	return mapPermissionError(permission.Authorize(p.subject(), r, op))
}

// requireClubAdmin allows admins with access to clubID.
func requireClubAdmin(p Principal, clubID string) error {
	return authorize(p, &permission.Resource{ClubID: clubID}, permission.OpAssign)
}

// scopeFilter turns a list request into a club filter. A named club must be
// accessible; otherwise the caller's clubs are used. Non-super-admins without
// any membership are refused rather than shown nothing.
func scopeFilter(p Principal, clubID string, mine bool) (persistence.ClubFilter, error) {
	filter := persistence.ClubFilter{}
	if mine {
		filter.UserID = p.UserID
	}
	if !p.Level.Valid() {
		return filter, ErrForbidden
	}
	switch {
	case clubID != "":
		if !permission.HasAccessToClub(p.subject(), clubID) {
			return filter, ErrForbidden
		}
		filter.ClubIDs = []string{clubID}
	case p.Level.IsSuperAdmin():
		filter.AllClubs = true
	case len(p.ClubIDs) == 0:
		return filter, ErrForbidden
	default:
		filter.ClubIDs = append([]string(nil), p.ClubIDs...)
	}
	return filter, nil
}

// memberDirectory answers whether another user may hold resources in a club.
type memberDirectory struct {
	users persistence.UserRepository
	clubs persistence.ClubRepository
}

func (d memberDirectory) subjectFor(ctx context.Context, userID string) (permission.Subject, error) {
	user, err := d.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return permission.Subject{}, fieldError("user_id", "unknown user")
		}
		return permission.Subject{}, mapRepoError(err)
	}
	clubIDs, err := d.clubs.ListClubIDsForUser(ctx, userID)
	if err != nil {
		return permission.Subject{}, mapRepoError(err)
	}
	return permission.Subject{UserID: user.ID, Level: permission.Level(user.Permission), ClubIDs: clubIDs}, nil
}

// ensureMember reports a validation error unless userID can access clubID.
func (d memberDirectory) ensureMember(ctx context.Context, clubID, userID string) error {
	if d.users == nil || d.clubs == nil {
		return nil
	}
	subject, err := d.subjectFor(ctx, userID)
	if err != nil {
		return err
	}
	if !permission.HasAccessToClub(subject, clubID) {
		return fieldError("user_id", "user is not a member of the club")
	}
	return nil
}
