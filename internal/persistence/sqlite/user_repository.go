package sqlite

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/example/clubhouse/internal/persistence"
)

var userColumns = []string{"id", "subject", "email", "display_name", "permission", "created_at", "updated_at"}

// CreateUser inserts a new user.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.Subject == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, builder.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Subject, user.Email, user.DisplayName, user.Permission,
			formatTime(user.CreatedAt), formatTime(user.UpdatedAt)))
	return err
}

// UpdateUser overwrites the mutable fields of an existing user.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	return s.execOne(ctx, builder.Update("users").
		Set("email", user.Email).
		Set("display_name", user.DisplayName).
		Set("permission", user.Permission).
		Set("updated_at", formatTime(user.UpdatedAt)).
		Where(squirrel.Eq{"id": user.ID}))
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	return s.getUser(ctx, squirrel.Eq{"id": id})
}

// GetUserBySubject retrieves a user by identity provider subject.
func (s *Storage) GetUserBySubject(ctx context.Context, subject string) (persistence.User, error) {
	return s.getUser(ctx, squirrel.Eq{"subject": subject})
}

func (s *Storage) getUser(ctx context.Context, where squirrel.Eq) (persistence.User, error) {
	row, err := s.queryRow(ctx, builder.Select(userColumns...).From("users").Where(where))
	if err != nil {
		return persistence.User{}, err
	}
	return s.scanUser(row)
}

// ListUsers returns all users ordered by display name.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.query(ctx, builder.Select(userColumns...).From("users").OrderBy("display_name ASC", "id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, s.scanUser)
}

func (s *Storage) scanUser(row scanner) (persistence.User, error) {
	var (
		user                 persistence.User
		createdAt, updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Subject, &user.Email, &user.DisplayName, &user.Permission, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, s.mapper.MapError(err)
	}
	var err error
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
