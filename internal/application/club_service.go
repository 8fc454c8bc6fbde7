package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

const maxClubNameLength = 120

// ClubService manages clubs and their membership rows.
type ClubService struct {
	clubs       persistence.ClubRepository
	users       persistence.UserRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClubService constructs a club service with the provided dependencies.
func NewClubService(clubs persistence.ClubRepository, users persistence.UserRepository, idGenerator func() string, now func() time.Time) *ClubService {
	return NewClubServiceWithLogger(clubs, users, idGenerator, now, nil)
}

// NewClubServiceWithLogger constructs a club service with a specified logger.
func NewClubServiceWithLogger(clubs persistence.ClubRepository, users persistence.UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClubService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClubService{clubs: clubs, users: users, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ClubService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClubService", operation, principal, attrs...)
}

// CreateClub adds a new club. Only super admins may create clubs.
func (s *ClubService) CreateClub(ctx context.Context, principal Principal, input ClubInput) (club Club, err error) {
	if s == nil || s.clubs == nil {
		return Club{}, errNotConfigured("ClubService")
	}
	logger := s.loggerWith(ctx, "CreateClub", principal)
	defer func() { logOutcome(ctx, logger, "club created", err, "club_id", club.ID) }()

	if !principal.Level.IsSuperAdmin() {
		err = ErrForbidden
		return
	}
	if vErr := validateClubInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	record := persistence.Club{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.clubs.CreateClub(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}
	club = toClub(record)
	return
}

// UpdateClub renames a club. Admins may update clubs they belong to.
func (s *ClubService) UpdateClub(ctx context.Context, principal Principal, clubID string, input ClubInput) (club Club, err error) {
	if s == nil || s.clubs == nil {
		return Club{}, errNotConfigured("ClubService")
	}
	logger := s.loggerWith(ctx, "UpdateClub", principal, "club_id", clubID)
	defer func() { logOutcome(ctx, logger, "club updated", err) }()

	existing, err := s.clubs.GetClub(ctx, clubID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if err = requireClubAdmin(principal, existing.ID); err != nil {
		return
	}
	if vErr := validateClubInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.UpdatedAt = s.now()
	if err = s.clubs.UpdateClub(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}
	club = toClub(existing)
	return
}

// DeleteClub removes a club and everything scoped to it. Super admins only.
func (s *ClubService) DeleteClub(ctx context.Context, principal Principal, clubID string) (err error) {
	if s == nil || s.clubs == nil {
		return errNotConfigured("ClubService")
	}
	logger := s.loggerWith(ctx, "DeleteClub", principal, "club_id", clubID)
	defer func() { logOutcome(ctx, logger, "club deleted", err) }()

	if !principal.Level.IsSuperAdmin() {
		return ErrForbidden
	}
	return mapRepoError(s.clubs.DeleteClub(ctx, clubID))
}

// GetClub returns a club the caller can access.
func (s *ClubService) GetClub(ctx context.Context, principal Principal, clubID string) (Club, error) {
	if s == nil || s.clubs == nil {
		return Club{}, errNotConfigured("ClubService")
	}
	record, err := s.clubs.GetClub(ctx, clubID)
	if err != nil {
		return Club{}, mapRepoError(err)
	}
	if err := authorize(principal, &permission.Resource{ClubID: record.ID}, permission.OpView); err != nil {
		return Club{}, err
	}
	return toClub(record), nil
}

// ListClubs returns every club for super admins and member clubs otherwise.
func (s *ClubService) ListClubs(ctx context.Context, principal Principal) ([]Club, error) {
	if s == nil || s.clubs == nil {
		return nil, errNotConfigured("ClubService")
	}
	var (
		records []persistence.Club
		err     error
	)
	if principal.Level.IsSuperAdmin() {
		records, err = s.clubs.ListAllClubs(ctx)
	} else {
		records, err = s.clubs.ListClubs(ctx, principal.ClubIDs)
	}
	if err != nil {
		s.loggerWith(ctx, "ListClubs", principal).ErrorContext(ctx, "failed to list clubs", "error", err)
		return nil, mapRepoError(err)
	}
	clubs := make([]Club, 0, len(records))
	for _, record := range records {
		clubs = append(clubs, toClub(record))
	}
	return clubs, nil
}

// AddMember links userID to clubID. Club admins only. A limited user may hold
// a single membership.
func (s *ClubService) AddMember(ctx context.Context, principal Principal, clubID, userID string) (err error) {
	if s == nil || s.clubs == nil || s.users == nil {
		return errNotConfigured("ClubService")
	}
	logger := s.loggerWith(ctx, "AddMember", principal, "club_id", clubID, "user_id", userID)
	defer func() { logOutcome(ctx, logger, "member added", err) }()

	if _, err = s.clubs.GetClub(ctx, clubID); err != nil {
		err = mapRepoError(err)
		return
	}
	if err = requireClubAdmin(principal, clubID); err != nil {
		return
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = fieldError("user_id", "unknown user")
			return
		}
		err = mapRepoError(err)
		return
	}
	if permission.Level(target.Permission) == permission.Limited {
		var existing []string
		existing, err = s.clubs.ListClubIDsForUser(ctx, userID)
		if err != nil {
			err = mapRepoError(err)
			return
		}
		for _, id := range existing {
			if id != clubID {
				err = fieldError("user_id", "limited users may belong to only one club")
				return
			}
		}
	}

	err = mapRepoError(s.clubs.AddMembership(ctx, persistence.Membership{ClubID: clubID, UserID: userID, CreatedAt: s.now()}))
	return
}

// RemoveMember unlinks userID from clubID. Club admins only.
func (s *ClubService) RemoveMember(ctx context.Context, principal Principal, clubID, userID string) (err error) {
	if s == nil || s.clubs == nil {
		return errNotConfigured("ClubService")
	}
	logger := s.loggerWith(ctx, "RemoveMember", principal, "club_id", clubID, "user_id", userID)
	defer func() { logOutcome(ctx, logger, "member removed", err) }()

	if err = requireClubAdmin(principal, clubID); err != nil {
		return
	}
	err = mapRepoError(s.clubs.RemoveMembership(ctx, clubID, userID))
	return
}

// ListMembers returns the members of a club the caller can access.
func (s *ClubService) ListMembers(ctx context.Context, principal Principal, clubID string) ([]User, error) {
	if s == nil || s.clubs == nil {
		return nil, errNotConfigured("ClubService")
	}
	if err := authorize(principal, &permission.Resource{ClubID: clubID}, permission.OpView); err != nil {
		return nil, err
	}
	records, err := s.clubs.ListMembers(ctx, clubID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	users := make([]User, 0, len(records))
	for _, record := range records {
		users = append(users, toUser(record))
	}
	return users, nil
}

func validateClubInput(input ClubInput) *ValidationError {
	v := &ValidationError{}
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		v.add("name", "name is required")
	case len(name) > maxClubNameLength:
		v.add("name", fmt.Sprintf("name must be at most %d characters", maxClubNameLength))
	}
	return v
}
