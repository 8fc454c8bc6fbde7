package application_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/testfixtures"
)

func TestClubService_CreateClub(t *testing.T) {
	ctx := context.Background()

	t.Run("Should let super admins create clubs", func(t *testing.T) {
		w := newClubWorld(t)
		club, err := w.svc.Clubs.CreateClub(ctx, w.as(t, w.super), application.ClubInput{Name: "  Valley Line  ", Description: "HO scale"})
		require.NoError(t, err)
		assert.NotEmpty(t, club.ID)
		assert.Equal(t, "Valley Line", club.Name)

		stored, err := w.svc.Clubs.GetClub(ctx, w.as(t, w.super), club.ID)
		require.NoError(t, err)
		assert.Equal(t, "HO scale", stored.Description)
	})

	t.Run("Should refuse club admins", func(t *testing.T) {
		w := newClubWorld(t)
		_, err := w.svc.Clubs.CreateClub(ctx, w.as(t, w.admin), application.ClubInput{Name: "Branch Line"})
		require.ErrorIs(t, err, application.ErrForbidden)
	})

	t.Run("Should validate the name", func(t *testing.T) {
		w := newClubWorld(t)
		_, err := w.svc.Clubs.CreateClub(ctx, w.as(t, w.super), application.ClubInput{Name: " "})
		requireFieldError(t, err, "name")

		_, err = w.svc.Clubs.CreateClub(ctx, w.as(t, w.super), application.ClubInput{Name: strings.Repeat("x", 121)})
		requireFieldError(t, err, "name")

		_, err = w.svc.Clubs.CreateClub(ctx, w.as(t, w.super), application.ClubInput{Name: w.club.Name})
		require.ErrorIs(t, err, application.ErrAlreadyExists)
	})
}

func TestClubService_Access(t *testing.T) {
	ctx := context.Background()
	w := newClubWorld(t)

	t.Run("Should hide other clubs from members", func(t *testing.T) {
		_, err := w.svc.Clubs.GetClub(ctx, w.as(t, w.outsider), w.club.ID)
		require.ErrorIs(t, err, application.ErrForbidden)

		_, err = w.svc.Clubs.GetClub(ctx, w.as(t, w.admin), w.other.ID)
		require.ErrorIs(t, err, application.ErrForbidden)
	})

	t.Run("Should report missing clubs", func(t *testing.T) {
		_, err := w.svc.Clubs.GetClub(ctx, w.as(t, w.super), "club-missing")
		require.ErrorIs(t, err, application.ErrNotFound)
	})

	t.Run("Should list member clubs or every club for super admins", func(t *testing.T) {
		clubs, err := w.svc.Clubs.ListClubs(ctx, w.as(t, w.limited))
		require.NoError(t, err)
		require.Len(t, clubs, 1)
		assert.Equal(t, w.club.ID, clubs[0].ID)

		clubs, err = w.svc.Clubs.ListClubs(ctx, w.as(t, w.super))
		require.NoError(t, err)
		assert.Len(t, clubs, 2)
	})

	t.Run("Should let club admins rename their club only", func(t *testing.T) {
		club, err := w.svc.Clubs.UpdateClub(ctx, w.as(t, w.admin), w.club.ID, application.ClubInput{Name: "Renamed"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", club.Name)

		_, err = w.svc.Clubs.UpdateClub(ctx, w.as(t, w.regular), w.club.ID, application.ClubInput{Name: "Mine now"})
		require.ErrorIs(t, err, application.ErrForbidden)

		_, err = w.svc.Clubs.UpdateClub(ctx, w.as(t, w.admin), w.other.ID, application.ClubInput{Name: "Theirs"})
		require.ErrorIs(t, err, application.ErrForbidden)
	})

	t.Run("Should reserve deletion for super admins", func(t *testing.T) {
		err := w.svc.Clubs.DeleteClub(ctx, w.as(t, w.admin), w.other.ID)
		require.ErrorIs(t, err, application.ErrForbidden)

		require.NoError(t, w.svc.Clubs.DeleteClub(ctx, w.as(t, w.super), w.other.ID))
		assert.Empty(t, w.as(t, w.outsider).ClubIDs)
	})
}

func TestClubService_Membership(t *testing.T) {
	ctx := context.Background()

	t.Run("Should let club admins add and remove members", func(t *testing.T) {
		w := newClubWorld(t)
		require.NoError(t, w.svc.Clubs.AddMember(ctx, w.as(t, w.admin), w.club.ID, w.outsider.ID))
		assert.ElementsMatch(t, []string{w.club.ID, w.other.ID}, w.as(t, w.outsider).ClubIDs)

		members, err := w.svc.Clubs.ListMembers(ctx, w.as(t, w.regular), w.club.ID)
		require.NoError(t, err)
		assert.Len(t, members, 5)

		require.NoError(t, w.svc.Clubs.RemoveMember(ctx, w.as(t, w.admin), w.club.ID, w.outsider.ID))
		assert.Equal(t, []string{w.other.ID}, w.as(t, w.outsider).ClubIDs)
	})

	t.Run("Should refuse regular members and foreign admins", func(t *testing.T) {
		w := newClubWorld(t)
		err := w.svc.Clubs.AddMember(ctx, w.as(t, w.regular), w.club.ID, w.outsider.ID)
		require.ErrorIs(t, err, application.ErrForbidden)

		err = w.svc.Clubs.AddMember(ctx, w.as(t, w.admin), w.other.ID, w.peer.ID)
		require.ErrorIs(t, err, application.ErrForbidden)

		_, err = w.svc.Clubs.ListMembers(ctx, w.as(t, w.outsider), w.club.ID)
		require.ErrorIs(t, err, application.ErrForbidden)
	})

	t.Run("Should keep limited users in a single club", func(t *testing.T) {
		w := newClubWorld(t)
		err := w.svc.Clubs.AddMember(ctx, w.as(t, w.super), w.other.ID, w.limited.ID)
		requireFieldError(t, err, "user_id")

		require.NoError(t, w.svc.Clubs.RemoveMember(ctx, w.as(t, w.super), w.club.ID, w.limited.ID))
		require.NoError(t, w.svc.Clubs.AddMember(ctx, w.as(t, w.super), w.other.ID, w.limited.ID))
		assert.Equal(t, []string{w.other.ID}, w.as(t, w.limited).ClubIDs)
	})

	t.Run("Should reject unknown users and duplicates", func(t *testing.T) {
		w := newClubWorld(t)
		err := w.svc.Clubs.AddMember(ctx, w.as(t, w.admin), w.club.ID, testfixtures.NewUser().ID)
		requireFieldError(t, err, "user_id")

		err = w.svc.Clubs.AddMember(ctx, w.as(t, w.admin), w.club.ID, w.peer.ID)
		require.ErrorIs(t, err, application.ErrAlreadyExists)
	})
}
