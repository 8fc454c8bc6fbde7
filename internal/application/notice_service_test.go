package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clubhouse/internal/application"
)

func TestNoticeService(t *testing.T) {
	ctx := context.Background()
	w := newClubWorld(t)
	start := w.factory.Clock.Now()

	t.Run("Should reserve posting for club admins", func(t *testing.T) {
		input := application.NoticeInput{ClubID: w.club.ID, Title: "Open house", Body: "Saturday from 9"}

		_, err := w.svc.Notices.PostNotice(ctx, w.as(t, w.regular), input)
		require.ErrorIs(t, err, application.ErrForbidden)

		input.ClubID = w.other.ID
		_, err = w.svc.Notices.PostNotice(ctx, w.as(t, w.admin), input)
		require.ErrorIs(t, err, application.ErrForbidden)
	})

	t.Run("Should validate input", func(t *testing.T) {
		past := start.Add(-time.Hour)
		_, err := w.svc.Notices.PostNotice(ctx, w.as(t, w.admin), application.NoticeInput{ClubID: w.club.ID, ExpiresAt: &past})
		requireFieldError(t, err, "title")
		requireFieldError(t, err, "body")
		requireFieldError(t, err, "expires_at")
	})

	t.Run("Should hide expired notices unless an admin asks", func(t *testing.T) {
		soon := start.Add(time.Hour)
		_, err := w.svc.Notices.PostNotice(ctx, w.as(t, w.admin), application.NoticeInput{ClubID: w.club.ID, Title: "Track cleaning", Body: "Tonight", ExpiresAt: &soon})
		require.NoError(t, err)
		lasting, err := w.svc.Notices.PostNotice(ctx, w.as(t, w.admin), application.NoticeInput{ClubID: w.club.ID, Title: "Dues", Body: "Due in January"})
		require.NoError(t, err)
		assert.Equal(t, w.admin.ID, lasting.AuthorID)

		notices, err := w.svc.Notices.ListNotices(ctx, application.ListNoticesParams{Principal: w.as(t, w.limited)})
		require.NoError(t, err)
		assert.Len(t, notices, 2)

		w.factory.Clock.Advance(2 * time.Hour)

		notices, err = w.svc.Notices.ListNotices(ctx, application.ListNoticesParams{Principal: w.as(t, w.regular), IncludeExpired: true})
		require.NoError(t, err)
		require.Len(t, notices, 1)
		assert.Equal(t, lasting.ID, notices[0].ID)

		notices, err = w.svc.Notices.ListNotices(ctx, application.ListNoticesParams{Principal: w.as(t, w.admin), IncludeExpired: true})
		require.NoError(t, err)
		assert.Len(t, notices, 2)

		_, err = w.svc.Notices.ListNotices(ctx, application.ListNoticesParams{Principal: w.as(t, w.outsider), ClubID: w.club.ID})
		require.ErrorIs(t, err, application.ErrForbidden)
	})

	t.Run("Should let admins edit and withdraw", func(t *testing.T) {
		notice, err := w.svc.Notices.PostNotice(ctx, w.as(t, w.admin), application.NoticeInput{ClubID: w.club.ID, Title: "Swap meet", Body: "Bring your stock"})
		require.NoError(t, err)

		got, err := w.svc.Notices.GetNotice(ctx, w.as(t, w.limited), notice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Swap meet", got.Title)

		_, err = w.svc.Notices.UpdateNotice(ctx, w.as(t, w.regular), notice.ID, application.NoticeInput{Title: "Mine", Body: "x"})
		require.ErrorIs(t, err, application.ErrForbidden)

		updated, err := w.svc.Notices.UpdateNotice(ctx, w.as(t, w.admin), notice.ID, application.NoticeInput{Title: "Swap meet moved", Body: "Next week"})
		require.NoError(t, err)
		assert.Equal(t, "Swap meet moved", updated.Title)

		require.NoError(t, w.svc.Notices.DeleteNotice(ctx, w.as(t, w.admin), notice.ID))
		_, err = w.svc.Notices.GetNotice(ctx, w.as(t, w.admin), notice.ID)
		require.ErrorIs(t, err, application.ErrNotFound)
	})
}
