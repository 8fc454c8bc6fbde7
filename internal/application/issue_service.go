package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 10000
)

// IssueService tracks problems members report about club equipment or the
// layout. Reporters and admins may edit or close an issue.
type IssueService struct {
	issues      persistence.IssueRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewIssueService constructs an issue service with the provided dependencies.
func NewIssueService(issues persistence.IssueRepository, idGenerator func() string, now func() time.Time) *IssueService {
	return NewIssueServiceWithLogger(issues, idGenerator, now, nil)
}

// NewIssueServiceWithLogger constructs an issue service with a specified logger.
func NewIssueServiceWithLogger(issues persistence.IssueRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *IssueService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &IssueService{issues: issues, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *IssueService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IssueService", operation, principal, attrs...)
}

// CreateIssue files a new open issue owned by the caller.
func (s *IssueService) CreateIssue(ctx context.Context, principal Principal, input IssueInput) (issue Issue, err error) {
	if s == nil || s.issues == nil {
		return Issue{}, errNotConfigured("IssueService")
	}
	logger := s.loggerWith(ctx, "CreateIssue", principal, "club_id", input.ClubID)
	defer func() { logOutcome(ctx, logger, "issue created", err, "issue_id", issue.ID) }()

	if err = authorize(principal, &permission.Resource{ClubID: input.ClubID, OwnerID: principal.UserID}, permission.OpCreate); err != nil {
		return
	}
	input.Status = IssueOpen
	if vErr := validateIssueInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	record := persistence.Issue{
		ID:        s.idGenerator(),
		ClubID:    input.ClubID,
		UserID:    principal.UserID,
		Title:     strings.TrimSpace(input.Title),
		Body:      strings.TrimSpace(input.Body),
		Status:    string(IssueOpen),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.issues.CreateIssue(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}
	issue = toIssue(record)
	return
}

// UpdateIssue edits the text or status of an issue. An empty status keeps the
// current one.
func (s *IssueService) UpdateIssue(ctx context.Context, principal Principal, issueID string, input IssueInput) (issue Issue, err error) {
	if s == nil || s.issues == nil {
		return Issue{}, errNotConfigured("IssueService")
	}
	logger := s.loggerWith(ctx, "UpdateIssue", principal, "issue_id", issueID)
	defer func() { logOutcome(ctx, logger, "issue updated", err) }()

	existing, err := s.issues.GetIssue(ctx, issueID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if err = authorize(principal, &permission.Resource{ClubID: existing.ClubID, OwnerID: existing.UserID}, permission.OpEdit); err != nil {
		return
	}
	if input.ClubID != "" && input.ClubID != existing.ClubID {
		err = fieldError("club_id", "issues cannot move between clubs")
		return
	}
	if input.Status == "" {
		input.Status = IssueStatus(existing.Status)
	}
	if vErr := validateIssueInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Body = strings.TrimSpace(input.Body)
	existing.Status = string(input.Status)
	existing.UpdatedAt = s.now()
	if err = s.issues.UpdateIssue(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}
	issue = toIssue(existing)
	return
}

// DeleteIssue removes an issue. Reporters and admins only.
func (s *IssueService) DeleteIssue(ctx context.Context, principal Principal, issueID string) (err error) {
	if s == nil || s.issues == nil {
		return errNotConfigured("IssueService")
	}
	logger := s.loggerWith(ctx, "DeleteIssue", principal, "issue_id", issueID)
	defer func() { logOutcome(ctx, logger, "issue deleted", err) }()

	existing, err := s.issues.GetIssue(ctx, issueID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if err = authorize(principal, &permission.Resource{ClubID: existing.ClubID, OwnerID: existing.UserID}, permission.OpDelete); err != nil {
		return
	}
	err = mapRepoError(s.issues.DeleteIssue(ctx, issueID))
	return
}

func (s *IssueService) GetIssue(ctx context.Context, principal Principal, issueID string) (Issue, error) {
	if s == nil || s.issues == nil {
		return Issue{}, errNotConfigured("IssueService")
	}
	record, err := s.issues.GetIssue(ctx, issueID)
	if err != nil {
		return Issue{}, mapRepoError(err)
	}
	if err := authorize(principal, &permission.Resource{ClubID: record.ClubID, OwnerID: record.UserID}, permission.OpView); err != nil {
		return Issue{}, err
	}
	return toIssue(record), nil
}

// ListIssues returns issues in the caller's clubs, newest first.
func (s *IssueService) ListIssues(ctx context.Context, params ListIssuesParams) ([]Issue, error) {
	if s == nil || s.issues == nil {
		return nil, errNotConfigured("IssueService")
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, fieldError("status", fmt.Sprintf("status must be %q or %q", IssueOpen, IssueClosed))
	}
	scope, err := scopeFilter(params.Principal, params.ClubID, params.Mine)
	if err != nil {
		return nil, err
	}
	records, err := s.issues.ListIssues(ctx, persistence.IssueFilter{ClubFilter: scope, Status: string(params.Status)})
	if err != nil {
		return nil, mapRepoError(err)
	}
	issues := make([]Issue, 0, len(records))
	for _, record := range records {
		issues = append(issues, toIssue(record))
	}
	return issues, nil
}

func validateIssueInput(input IssueInput) *ValidationError {
	v := &ValidationError{}
	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		v.add("title", "title is required")
	case len(title) > maxTitleLength:
		v.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if len(input.Body) > maxBodyLength {
		v.add("body", fmt.Sprintf("body must be at most %d characters", maxBodyLength))
	}
	if !input.Status.Valid() {
		v.add("status", fmt.Sprintf("status must be %q or %q", IssueOpen, IssueClosed))
	}
	return v
}
