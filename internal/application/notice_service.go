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

// NoticeService publishes club announcements. Admins write notices; every
// member of the club can read the active ones.
type NoticeService struct {
	notices     persistence.NoticeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewNoticeService constructs a notice service with the provided dependencies.
func NewNoticeService(notices persistence.NoticeRepository, idGenerator func() string, now func() time.Time) *NoticeService {
	return NewNoticeServiceWithLogger(notices, idGenerator, now, nil)
}

// NewNoticeServiceWithLogger constructs a notice service with a specified logger.
func NewNoticeServiceWithLogger(notices persistence.NoticeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *NoticeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NoticeService{notices: notices, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *NoticeService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NoticeService", operation, principal, attrs...)
}

// PostNotice publishes a notice to a club. Club admins only.
func (s *NoticeService) PostNotice(ctx context.Context, principal Principal, input NoticeInput) (notice Notice, err error) {
	if s == nil || s.notices == nil {
		return Notice{}, errNotConfigured("NoticeService")
	}
	logger := s.loggerWith(ctx, "PostNotice", principal, "club_id", input.ClubID)
	defer func() { logOutcome(ctx, logger, "notice posted", err, "notice_id", notice.ID) }()

	if err = requireClubAdmin(principal, input.ClubID); err != nil {
		return
	}
	now := s.now()
	if vErr := validateNoticeInput(input, now); vErr.HasErrors() {
		err = vErr
		return
	}

	record := persistence.Notice{
		ID:        s.idGenerator(),
		ClubID:    input.ClubID,
		AuthorID:  principal.UserID,
		Title:     strings.TrimSpace(input.Title),
		Body:      strings.TrimSpace(input.Body),
		ExpiresAt: utcPtr(input.ExpiresAt),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.notices.CreateNotice(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}
	notice = toNotice(record)
	return
}

// UpdateNotice rewrites a notice. Club admins only.
func (s *NoticeService) UpdateNotice(ctx context.Context, principal Principal, noticeID string, input NoticeInput) (notice Notice, err error) {
	if s == nil || s.notices == nil {
		return Notice{}, errNotConfigured("NoticeService")
	}
	logger := s.loggerWith(ctx, "UpdateNotice", principal, "notice_id", noticeID)
	defer func() { logOutcome(ctx, logger, "notice updated", err) }()

	existing, err := s.notices.GetNotice(ctx, noticeID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if err = requireClubAdmin(principal, existing.ClubID); err != nil {
		return
	}
	if input.ClubID != "" && input.ClubID != existing.ClubID {
		err = fieldError("club_id", "notices cannot move between clubs")
		return
	}
	now := s.now()
	if vErr := validateNoticeInput(input, now); vErr.HasErrors() {
		err = vErr
		return
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Body = strings.TrimSpace(input.Body)
	existing.ExpiresAt = utcPtr(input.ExpiresAt)
	existing.UpdatedAt = now
	if err = s.notices.UpdateNotice(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}
	notice = toNotice(existing)
	return
}

// DeleteNotice withdraws a notice. Club admins only.
func (s *NoticeService) DeleteNotice(ctx context.Context, principal Principal, noticeID string) (err error) {
	if s == nil || s.notices == nil {
		return errNotConfigured("NoticeService")
	}
	logger := s.loggerWith(ctx, "DeleteNotice", principal, "notice_id", noticeID)
	defer func() { logOutcome(ctx, logger, "notice deleted", err) }()

	existing, err := s.notices.GetNotice(ctx, noticeID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if err = requireClubAdmin(principal, existing.ClubID); err != nil {
		return
	}
	err = mapRepoError(s.notices.DeleteNotice(ctx, noticeID))
	return
}

func (s *NoticeService) GetNotice(ctx context.Context, principal Principal, noticeID string) (Notice, error) {
	if s == nil || s.notices == nil {
		return Notice{}, errNotConfigured("NoticeService")
	}
	record, err := s.notices.GetNotice(ctx, noticeID)
	if err != nil {
		return Notice{}, mapRepoError(err)
	}
	if err := authorize(principal, &permission.Resource{ClubID: record.ClubID, OwnerID: record.AuthorID}, permission.OpView); err != nil {
		return Notice{}, err
	}
	return toNotice(record), nil
}

// ListNotices returns notices in the caller's clubs, newest first. Expired
// notices are hidden unless an admin asks for them.
func (s *NoticeService) ListNotices(ctx context.Context, params ListNoticesParams) ([]Notice, error) {
	if s == nil || s.notices == nil {
		return nil, errNotConfigured("NoticeService")
	}
	scope, err := scopeFilter(params.Principal, params.ClubID, false)
	if err != nil {
		return nil, err
	}
	filter := persistence.NoticeFilter{ClubFilter: scope}
	if !params.IncludeExpired || !params.Principal.Level.IsAdmin() {
		now := s.now()
		filter.ActiveAt = &now
	}
	records, err := s.notices.ListNotices(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	notices := make([]Notice, 0, len(records))
	for _, record := range records {
		notices = append(notices, toNotice(record))
	}
	return notices, nil
}

func validateNoticeInput(input NoticeInput, now time.Time) *ValidationError {
	v := &ValidationError{}
	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		v.add("title", "title is required")
	case len(title) > maxTitleLength:
		v.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if strings.TrimSpace(input.Body) == "" {
		v.add("body", "body is required")
	} else if len(input.Body) > maxBodyLength {
		v.add("body", fmt.Sprintf("body must be at most %d characters", maxBodyLength))
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		v.add("expires_at", "expiry must be in the future")
	}
	return v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
