package sqlite

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/example/clubhouse/internal/persistence"
)

var clubColumns = []string{"id", "name", "description", "created_at", "updated_at"}

// CreateClub inserts a new club.
func (s *Storage) CreateClub(ctx context.Context, club persistence.Club) error {
	if club.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, builder.Insert("clubs").
		Columns(clubColumns...).
		Values(club.ID, club.Name, club.Description, formatTime(club.CreatedAt), formatTime(club.UpdatedAt)))
	return err
}

// UpdateClub overwrites the name and description of an existing club.
func (s *Storage) UpdateClub(ctx context.Context, club persistence.Club) error {
	return s.execOne(ctx, builder.Update("clubs").
		Set("name", club.Name).
		Set("description", club.Description).
		Set("updated_at", formatTime(club.UpdatedAt)).
		Where(squirrel.Eq{"id": club.ID}))
}

// GetClub retrieves a club by ID.
func (s *Storage) GetClub(ctx context.Context, id string) (persistence.Club, error) {
	row, err := s.queryRow(ctx, builder.Select(clubColumns...).From("clubs").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return persistence.Club{}, err
	}
	return s.scanClub(row)
}

// ListClubs returns the clubs with the given IDs ordered by name.
func (s *Storage) ListClubs(ctx context.Context, ids []string) ([]persistence.Club, error) {
	if len(ids) == 0 {
		return []persistence.Club{}, nil
	}
	rows, err := s.query(ctx, builder.Select(clubColumns...).From("clubs").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("name ASC", "id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, s.scanClub)
}

// ListAllClubs returns every club ordered by name.
func (s *Storage) ListAllClubs(ctx context.Context) ([]persistence.Club, error) {
	rows, err := s.query(ctx, builder.Select(clubColumns...).From("clubs").OrderBy("name ASC", "id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, s.scanClub)
}

// DeleteClub removes a club. Memberships and club resources cascade.
func (s *Storage) DeleteClub(ctx context.Context, id string) error {
	return s.execOne(ctx, builder.Delete("clubs").Where(squirrel.Eq{"id": id}))
}

// AddMembership links a user to a club.
func (s *Storage) AddMembership(ctx context.Context, membership persistence.Membership) error {
	_, err := s.exec(ctx, builder.Insert("club_members").
		Columns("club_id", "user_id", "created_at").
		Values(membership.ClubID, membership.UserID, formatTime(membership.CreatedAt)))
	return err
}

// RemoveMembership unlinks a user from a club.
func (s *Storage) RemoveMembership(ctx context.Context, clubID, userID string) error {
	return s.execOne(ctx, builder.Delete("club_members").
		Where(squirrel.Eq{"club_id": clubID, "user_id": userID}))
}

// ListMembers returns the users belonging to a club ordered by display name.
func (s *Storage) ListMembers(ctx context.Context, clubID string) ([]persistence.User, error) {
	columns := make([]string, len(userColumns))
	for i, c := range userColumns {
		columns[i] = "u." + c
	}
	rows, err := s.query(ctx, builder.Select(columns...).
		From("users u").
		Join("club_members m ON m.user_id = u.id").
		Where(squirrel.Eq{"m.club_id": clubID}).
		OrderBy("u.display_name ASC", "u.id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, s.scanUser)
}

// ListClubIDsForUser returns the IDs of every club the user belongs to.
func (s *Storage) ListClubIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.query(ctx, builder.Select("club_id").From("club_members").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("club_id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, func(row scanner) (string, error) {
		var id string
		if err := row.Scan(&id); err != nil {
			return "", s.mapper.MapError(err)
		}
		return id, nil
	})
}

func (s *Storage) scanClub(row scanner) (persistence.Club, error) {
	var (
		club                 persistence.Club
		createdAt, updatedAt string
	)
	if err := row.Scan(&club.ID, &club.Name, &club.Description, &createdAt, &updatedAt); err != nil {
		return persistence.Club{}, s.mapper.MapError(err)
	}
	var err error
	if club.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Club{}, err
	}
	if club.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Club{}, err
	}
	return club, nil
}
