package sqlite

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/example/clubhouse/internal/persistence"
)

var issueColumns = []string{"id", "club_id", "user_id", "title", "body", "status", "created_at", "updated_at"}

// CreateIssue inserts a new issue.
func (s *Storage) CreateIssue(ctx context.Context, issue persistence.Issue) error {
	if issue.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, builder.Insert("issues").
		Columns(issueColumns...).
		Values(issue.ID, issue.ClubID, issue.UserID, issue.Title, issue.Body, issue.Status,
			formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt)))
	return err
}

// UpdateIssue overwrites the title, body, and status of an issue.
func (s *Storage) UpdateIssue(ctx context.Context, issue persistence.Issue) error {
	return s.execOne(ctx, builder.Update("issues").
		Set("title", issue.Title).
		Set("body", issue.Body).
		Set("status", issue.Status).
		Set("updated_at", formatTime(issue.UpdatedAt)).
		Where(squirrel.Eq{"id": issue.ID}))
}

// GetIssue retrieves an issue by ID.
func (s *Storage) GetIssue(ctx context.Context, id string) (persistence.Issue, error) {
	row, err := s.queryRow(ctx, builder.Select(issueColumns...).From("issues").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return persistence.Issue{}, err
	}
	return s.scanIssue(row)
}

// ListIssues returns matching issues, newest first.
func (s *Storage) ListIssues(ctx context.Context, filter persistence.IssueFilter) ([]persistence.Issue, error) {
	stmt := clubScope(builder.Select(issueColumns...).From("issues"), filter.ClubIDs, filter.AllClubs)
	if filter.UserID != "" {
		stmt = stmt.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.Status != "" {
		stmt = stmt.Where(squirrel.Eq{"status": filter.Status})
	}
	rows, err := s.query(ctx, stmt.OrderBy("created_at DESC", "id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, s.scanIssue)
}

// DeleteIssue removes an issue by ID.
func (s *Storage) DeleteIssue(ctx context.Context, id string) error {
	return s.execOne(ctx, builder.Delete("issues").Where(squirrel.Eq{"id": id}))
}

func (s *Storage) scanIssue(row scanner) (persistence.Issue, error) {
	var (
		issue                persistence.Issue
		createdAt, updatedAt string
	)
	if err := row.Scan(&issue.ID, &issue.ClubID, &issue.UserID, &issue.Title, &issue.Body, &issue.Status, &createdAt, &updatedAt); err != nil {
		return persistence.Issue{}, s.mapper.MapError(err)
	}
	var err error
	if issue.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Issue{}, err
	}
	if issue.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Issue{}, err
	}
	return issue, nil
}
