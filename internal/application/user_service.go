package application

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

// UserService maps identity provider subjects to club members and manages
// their permission levels.
type UserService struct {
	users       persistence.UserRepository
	clubs       persistence.ClubRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(users persistence.UserRepository, clubs persistence.ClubRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, clubs, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users persistence.UserRepository, clubs persistence.ClubRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, clubs: clubs, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, principal, attrs...)
}

// ResolvePrincipal loads the current level and memberships for an identity
// provider subject. Unknown subjects are unauthenticated.
func (s *UserService) ResolvePrincipal(ctx context.Context, subject string) (Principal, error) {
	if s == nil || s.users == nil || s.clubs == nil {
		return Principal{}, errNotConfigured("UserService")
	}
	if strings.TrimSpace(subject) == "" {
		return Principal{}, ErrUnauthenticated
	}

	user, err := s.users.GetUserBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, mapRepoError(err)
	}

	level, err := permission.ParseLevel(user.Permission)
	if err != nil {
		// Legacy rows may carry levels we no longer know. The principal keeps
		// the raw value, which every permission check denies.
		s.loggerWith(ctx, "ResolvePrincipal", Principal{UserID: user.ID}).WarnContext(ctx, "stored permission level is not recognized",
			"permission", user.Permission, "label", permission.Label(&user.Permission))
		level = permission.Level(user.Permission)
	}

	clubIDs, err := s.clubs.ListClubIDsForUser(ctx, user.ID)
	if err != nil {
		return Principal{}, mapRepoError(err)
	}
	return Principal{UserID: user.ID, Level: level, ClubIDs: clubIDs}, nil
}

// Me returns the caller's own record and memberships.
func (s *UserService) Me(ctx context.Context, principal Principal) (Profile, error) {
	if s == nil || s.users == nil {
		return Profile{}, errNotConfigured("UserService")
	}
	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		return Profile{}, mapRepoError(err)
	}
	return Profile{User: toUser(user), ClubIDs: append([]string(nil), principal.ClubIDs...)}, nil
}

// RegisterUser maps an identity provider subject to a new member. Admins only;
// creating a super admin requires a super admin.
func (s *UserService) RegisterUser(ctx context.Context, principal Principal, input UserInput) (user User, err error) {
	if s == nil || s.users == nil {
		return User{}, errNotConfigured("UserService")
	}
	logger := s.loggerWith(ctx, "RegisterUser", principal)
	defer func() { logOutcome(ctx, logger, "user registered", err, "user_id", user.ID) }()

	if !principal.Level.IsAdmin() {
		err = ErrForbidden
		return
	}
	if vErr := validateUserInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if input.Level.IsSuperAdmin() && !principal.Level.IsSuperAdmin() {
		err = ErrForbidden
		return
	}

	now := s.now()
	record := persistence.User{
		ID:          s.idGenerator(),
		Subject:     strings.TrimSpace(input.Subject),
		Email:       strings.TrimSpace(input.Email),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Permission:  int(input.Level),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.users.CreateUser(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}
	user = toUser(record)
	return
}

// ListUsers returns the users an admin can see. Super admins see everyone;
// other admins see the members of their own clubs.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil || s.users == nil || s.clubs == nil {
		return nil, errNotConfigured("UserService")
	}
	if !principal.Level.IsAdmin() {
		return nil, ErrForbidden
	}

	var records []persistence.User
	if principal.Level.IsSuperAdmin() {
		all, err := s.users.ListUsers(ctx)
		if err != nil {
			return nil, mapRepoError(err)
		}
		records = all
	} else {
		seen := make(map[string]struct{})
		for _, clubID := range principal.ClubIDs {
			members, err := s.clubs.ListMembers(ctx, clubID)
			if err != nil {
				return nil, mapRepoError(err)
			}
			for _, member := range members {
				if _, ok := seen[member.ID]; ok {
					continue
				}
				seen[member.ID] = struct{}{}
				records = append(records, member)
			}
		}
		sort.Slice(records, func(i, j int) bool {
			if records[i].DisplayName != records[j].DisplayName {
				return records[i].DisplayName < records[j].DisplayName
			}
			return records[i].ID < records[j].ID
		})
	}

	users := make([]User, 0, len(records))
	for _, record := range records {
		users = append(users, toUser(record))
	}
	return users, nil
}

// SetPermission changes another user's level. Admins only; granting or
// revoking super admin requires a super admin, and nobody may change their
// own level.
func (s *UserService) SetPermission(ctx context.Context, principal Principal, userID string, level permission.Level) (user User, err error) {
	if s == nil || s.users == nil || s.clubs == nil {
		return User{}, errNotConfigured("UserService")
	}
	logger := s.loggerWith(ctx, "SetPermission", principal, "user_id", userID, "level", level.String())
	defer func() { logOutcome(ctx, logger, "permission changed", err) }()

	if !principal.Level.IsAdmin() {
		err = ErrForbidden
		return
	}
	if !level.Valid() {
		err = fieldError("level", "unknown permission level")
		return
	}
	if userID == principal.UserID {
		err = fieldError("user_id", "cannot change your own permission level")
		return
	}

	record, err := s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	current := permission.Level(record.Permission)
	if (current.IsSuperAdmin() || level.IsSuperAdmin()) && !principal.Level.IsSuperAdmin() {
		err = ErrForbidden
		return
	}
	clubIDs, err := s.clubs.ListClubIDsForUser(ctx, record.ID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if !principal.Level.IsSuperAdmin() && !sharesClub(principal, clubIDs) {
		err = ErrForbidden
		return
	}
	if level == permission.Limited && len(clubIDs) > 1 {
		err = fieldError("level", "limited users may belong to only one club")
		return
	}

	record.Permission = int(level)
	record.UpdatedAt = s.now()
	if err = s.users.UpdateUser(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}
	user = toUser(record)
	return
}

// GrantLevel creates or updates the user for subject with level, bypassing
// authorization. It exists for operator bootstrap from the command line.
func (s *UserService) GrantLevel(ctx context.Context, input UserInput) (user User, err error) {
	if s == nil || s.users == nil {
		return User{}, errNotConfigured("UserService")
	}
	logger := s.loggerWith(ctx, "GrantLevel", Principal{}, "subject", input.Subject)
	defer func() { logOutcome(ctx, logger, "permission granted", err, "user_id", user.ID) }()

	if input.DisplayName == "" {
		input.DisplayName = input.Subject
	}
	if vErr := validateUserInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	record, err := s.users.GetUserBySubject(ctx, strings.TrimSpace(input.Subject))
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		record = persistence.User{
			ID:          s.idGenerator(),
			Subject:     strings.TrimSpace(input.Subject),
			Email:       strings.TrimSpace(input.Email),
			DisplayName: strings.TrimSpace(input.DisplayName),
			Permission:  int(input.Level),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = s.users.CreateUser(ctx, record)
	case err == nil:
		if input.Level == permission.Limited && s.clubs != nil {
			var clubIDs []string
			if clubIDs, err = s.clubs.ListClubIDsForUser(ctx, record.ID); err != nil {
				break
			}
			if len(clubIDs) > 1 {
				err = fieldError("level", "limited users may belong to only one club")
				return
			}
		}
		record.Permission = int(input.Level)
		record.UpdatedAt = now
		err = s.users.UpdateUser(ctx, record)
	}
	if err != nil {
		err = mapRepoError(err)
		return
	}
	user = toUser(record)
	return
}

// sharesClub reports whether principal can reach at least one of clubIDs.
func sharesClub(principal Principal, clubIDs []string) bool {
	for _, clubID := range clubIDs {
		if permission.HasAccessToClub(principal.subject(), clubID) {
			return true
		}
	}
	return false
}

func validateUserInput(input UserInput) *ValidationError {
	v := &ValidationError{}
	if strings.TrimSpace(input.Subject) == "" {
		v.add("subject", "subject is required")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		v.add("display_name", "display name is required")
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			v.add("email", "email is invalid")
		}
	}
	if !input.Level.Valid() {
		v.add("level", "unknown permission level")
	}
	return v
}
