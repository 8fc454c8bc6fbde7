package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/example/clubhouse/internal/persistence"
)

var noticeColumns = []string{"id", "club_id", "author_id", "title", "body", "expires_at", "created_at", "updated_at"}

// CreateNotice inserts a new notice.
func (s *Storage) CreateNotice(ctx context.Context, notice persistence.Notice) error {
	if notice.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, builder.Insert("notices").
		Columns(noticeColumns...).
		Values(notice.ID, notice.ClubID, notice.AuthorID, notice.Title, notice.Body, formatOptionalTime(notice.ExpiresAt),
			formatTime(notice.CreatedAt), formatTime(notice.UpdatedAt)))
	return err
}

// UpdateNotice overwrites the content and expiry of a notice.
func (s *Storage) UpdateNotice(ctx context.Context, notice persistence.Notice) error {
	return s.execOne(ctx, builder.Update("notices").
		Set("title", notice.Title).
		Set("body", notice.Body).
		Set("expires_at", formatOptionalTime(notice.ExpiresAt)).
		Set("updated_at", formatTime(notice.UpdatedAt)).
		Where(squirrel.Eq{"id": notice.ID}))
}

// GetNotice retrieves a notice by ID.
func (s *Storage) GetNotice(ctx context.Context, id string) (persistence.Notice, error) {
	row, err := s.queryRow(ctx, builder.Select(noticeColumns...).From("notices").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return persistence.Notice{}, err
	}
	return s.scanNotice(row)
}

// ListNotices returns matching notices, newest first.
func (s *Storage) ListNotices(ctx context.Context, filter persistence.NoticeFilter) ([]persistence.Notice, error) {
	stmt := clubScope(builder.Select(noticeColumns...).From("notices"), filter.ClubIDs, filter.AllClubs)
	if filter.UserID != "" {
		stmt = stmt.Where(squirrel.Eq{"author_id": filter.UserID})
	}
	if filter.ActiveAt != nil {
		stmt = stmt.Where(squirrel.Or{
			squirrel.Eq{"expires_at": nil},
			squirrel.Gt{"expires_at": formatTime(*filter.ActiveAt)},
		})
	}
	rows, err := s.query(ctx, stmt.OrderBy("created_at DESC", "id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, s.scanNotice)
}

// DeleteNotice removes a notice by ID.
func (s *Storage) DeleteNotice(ctx context.Context, id string) error {
	return s.execOne(ctx, builder.Delete("notices").Where(squirrel.Eq{"id": id}))
}

func (s *Storage) scanNotice(row scanner) (persistence.Notice, error) {
	var (
		notice               persistence.Notice
		expiresAt            sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&notice.ID, &notice.ClubID, &notice.AuthorID, &notice.Title, &notice.Body, &expiresAt, &createdAt, &updatedAt); err != nil {
		return persistence.Notice{}, s.mapper.MapError(err)
	}
	var err error
	if notice.ExpiresAt, err = parseOptionalTime("expires_at", expiresAt); err != nil {
		return persistence.Notice{}, err
	}
	if notice.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Notice{}, err
	}
	if notice.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Notice{}, err
	}
	return notice, nil
}
