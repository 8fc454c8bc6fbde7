package sqlite_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
	"github.com/example/clubhouse/internal/persistence/sqlite"
	"github.com/example/clubhouse/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_Migrate(t *testing.T) {
	ctx := context.Background()
	storage := testfixtures.NewSQLiteStorage(t)

	t.Run("Should be idempotent", func(t *testing.T) {
		require.NoError(t, storage.Migrate(ctx))
	})

	t.Run("Should report the latest schema version", func(t *testing.T) {
		version, err := storage.SchemaVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
	})

	t.Run("Should report migration progress through the configured logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		fresh, err := sqlite.Open(filepath.Join(t.TempDir(), "fresh.db"), sqlite.WithLogger(logger))
		require.NoError(t, err)
		t.Cleanup(func() { _ = fresh.Close() })

		require.NoError(t, fresh.Migrate(ctx))
		assert.Contains(t, buf.String(), "00001_create_users_and_clubs.sql")
		assert.Contains(t, buf.String(), `"component":"migrations"`)
	})

	t.Run("Should reject an empty dsn", func(t *testing.T) {
		_, err := sqlite.Open("  ")
		assert.Error(t, err)
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	storage := testfixtures.NewSQLiteStorage(t)

	user := testfixtures.NewUser(testfixtures.WithSubject("idp|alice"), testfixtures.WithDisplayName("Alice"))
	require.NoError(t, storage.CreateUser(ctx, user))

	t.Run("Should fetch by id and subject", func(t *testing.T) {
		byID, err := storage.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.DisplayName)
		assert.Equal(t, int(permission.Regular), byID.Permission)
		assert.True(t, byID.CreatedAt.Equal(user.CreatedAt))

		bySubject, err := storage.GetUserBySubject(ctx, "idp|alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, bySubject.ID)
	})

	t.Run("Should reject a duplicate subject", func(t *testing.T) {
		dup := testfixtures.NewUser(testfixtures.WithSubject("idp|alice"))
		assert.ErrorIs(t, storage.CreateUser(ctx, dup), persistence.ErrDuplicate)
	})

	t.Run("Should update the permission level", func(t *testing.T) {
		user.Permission = int(permission.Admin)
		user.UpdatedAt = user.UpdatedAt.Add(time.Hour)
		require.NoError(t, storage.UpdateUser(ctx, user))

		fetched, err := storage.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int(permission.Admin), fetched.Permission)
	})

	t.Run("Should keep unknown stored levels verbatim", func(t *testing.T) {
		legacy := testfixtures.NewUser(func(u *persistence.User) { u.Permission = 99 })
		require.NoError(t, storage.CreateUser(ctx, legacy))
		fetched, err := storage.GetUser(ctx, legacy.ID)
		require.NoError(t, err)
		assert.Equal(t, 99, fetched.Permission)
	})

	t.Run("Should report missing users", func(t *testing.T) {
		_, err := storage.GetUser(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		assert.ErrorIs(t, storage.UpdateUser(ctx, persistence.User{ID: "missing"}), persistence.ErrNotFound)
	})
}

func TestClubRepository(t *testing.T) {
	ctx := context.Background()
	storage := testfixtures.NewSQLiteStorage(t)

	yard := testfixtures.NewClub("Yard")
	depot := testfixtures.NewClub("Depot")
	alice := testfixtures.NewUser(testfixtures.WithDisplayName("Alice"))
	bob := testfixtures.NewUser(testfixtures.WithDisplayName("Bob"))
	testfixtures.SeedMember(t, storage, yard, alice)
	testfixtures.SeedMember(t, storage, yard, bob)
	testfixtures.SeedMember(t, storage, depot, alice)

	t.Run("Should list clubs by name", func(t *testing.T) {
		all, err := storage.ListAllClubs(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Depot", all[0].Name)

		some, err := storage.ListClubs(ctx, []string{yard.ID})
		require.NoError(t, err)
		require.Len(t, some, 1)
		assert.Equal(t, yard.ID, some[0].ID)

		none, err := storage.ListClubs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Should list members and memberships", func(t *testing.T) {
		members, err := storage.ListMembers(ctx, yard.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "Alice", members[0].DisplayName)

		ids, err := storage.ListClubIDsForUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{yard.ID, depot.ID}, ids)
	})

	t.Run("Should reject a duplicate membership", func(t *testing.T) {
		err := storage.AddMembership(ctx, persistence.Membership{ClubID: yard.ID, UserID: bob.ID, CreatedAt: time.Now()})
		assert.ErrorIs(t, err, persistence.ErrDuplicate)
	})

	t.Run("Should reject a membership for an unknown user", func(t *testing.T) {
		err := storage.AddMembership(ctx, persistence.Membership{ClubID: yard.ID, UserID: "ghost", CreatedAt: time.Now()})
		assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
	})

	t.Run("Should remove a membership", func(t *testing.T) {
		require.NoError(t, storage.RemoveMembership(ctx, yard.ID, bob.ID))
		assert.ErrorIs(t, storage.RemoveMembership(ctx, yard.ID, bob.ID), persistence.ErrNotFound)
	})

	t.Run("Should cascade a club delete", func(t *testing.T) {
		issue := testfixtures.NewIssue(depot.ID, alice.ID, "Broken turnout")
		require.NoError(t, storage.CreateIssue(ctx, issue))

		require.NoError(t, storage.DeleteClub(ctx, depot.ID))

		_, err := storage.GetIssue(ctx, issue.ID)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		ids, err := storage.ListClubIDsForUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{yard.ID}, ids)
	})
}

func TestAppointmentRepository(t *testing.T) {
	ctx := context.Background()
	storage := testfixtures.NewSQLiteStorage(t)

	club := testfixtures.NewClub("")
	owner := testfixtures.NewUser()
	testfixtures.SeedMember(t, storage, club, owner)

	monday := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	early := testfixtures.NewAppointment(club.ID, owner.ID, monday, 60)
	late := testfixtures.NewAppointment(club.ID, owner.ID, monday.Add(26*time.Hour), 120)
	// Overlapping bookings are allowed.
	overlap := testfixtures.NewAppointment(club.ID, owner.ID, monday, 30)
	for _, a := range []persistence.Appointment{late, early, overlap} {
		require.NoError(t, storage.CreateAppointment(ctx, a))
	}

	t.Run("Should order by start time", func(t *testing.T) {
		got, err := storage.ListAppointments(ctx, persistence.AppointmentFilter{ClubFilter: persistence.ClubFilter{ClubIDs: []string{club.ID}}})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.True(t, got[0].Schedule.Equal(monday))
		assert.Equal(t, late.ID, got[2].ID)
	})

	t.Run("Should filter by range", func(t *testing.T) {
		end := monday.Add(24 * time.Hour)
		got, err := storage.ListAppointments(ctx, persistence.AppointmentFilter{
			ClubFilter:   persistence.ClubFilter{AllClubs: true},
			StartsAfter:  &monday,
			StartsBefore: &end,
		})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Should match nothing without clubs", func(t *testing.T) {
		got, err := storage.ListAppointments(ctx, persistence.AppointmentFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Should reject an off-grid duration", func(t *testing.T) {
		bad := testfixtures.NewAppointment(club.ID, owner.ID, monday, 45)
		assert.ErrorIs(t, storage.CreateAppointment(ctx, bad), persistence.ErrConstraintViolation)
	})

	t.Run("Should update and delete", func(t *testing.T) {
		early.Duration = 90
		early.Notes = "bring the DCC throttle"
		require.NoError(t, storage.UpdateAppointment(ctx, early))

		fetched, err := storage.GetAppointment(ctx, early.ID)
		require.NoError(t, err)
		assert.Equal(t, 90, fetched.Duration)
		assert.Equal(t, "bring the DCC throttle", fetched.Notes)

		require.NoError(t, storage.DeleteAppointment(ctx, early.ID))
		assert.ErrorIs(t, storage.DeleteAppointment(ctx, early.ID), persistence.ErrNotFound)
	})
}

func TestNumberedRepositories(t *testing.T) {
	ctx := context.Background()
	storage := testfixtures.NewSQLiteStorage(t)

	club := testfixtures.NewClub("")
	other := testfixtures.NewClub("")
	owner := testfixtures.NewUser()
	testfixtures.SeedMember(t, storage, club, owner)
	testfixtures.SeedMember(t, storage, other, owner)

	t.Run("Should allow one in-use address per number and club", func(t *testing.T) {
		first := testfixtures.NewAddress(club.ID, owner.ID, 3, true)
		require.NoError(t, storage.CreateAddress(ctx, first))

		clash := testfixtures.NewAddress(club.ID, "", 3, true)
		assert.ErrorIs(t, storage.CreateAddress(ctx, clash), persistence.ErrDuplicate)

		retired := testfixtures.NewAddress(club.ID, "", 3, false)
		require.NoError(t, storage.CreateAddress(ctx, retired))

		elsewhere := testfixtures.NewAddress(other.ID, "", 3, true)
		require.NoError(t, storage.CreateAddress(ctx, elsewhere))

		found, err := storage.FindAddressInUse(ctx, club.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
		require.NotNil(t, found.UserID)
		assert.Equal(t, owner.ID, *found.UserID)
	})

	t.Run("Should free a number when an address is retired", func(t *testing.T) {
		found, err := storage.FindAddressInUse(ctx, club.ID, 3)
		require.NoError(t, err)
		found.InUse = false
		require.NoError(t, storage.UpdateAddress(ctx, found))

		_, err = storage.FindAddressInUse(ctx, club.ID, 3)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("Should filter addresses by use", func(t *testing.T) {
		inUse := true
		got, err := storage.ListAddresses(ctx, persistence.NumberedFilter{
			ClubFilter: persistence.ClubFilter{ClubIDs: []string{club.ID, other.ID}},
			InUse:      &inUse,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, other.ID, got[0].ClubID)
		assert.Nil(t, got[0].UserID)
	})

	t.Run("Should enforce the same rule for consists", func(t *testing.T) {
		first := testfixtures.NewConsist(club.ID, owner.ID, 101, true)
		require.NoError(t, storage.CreateConsist(ctx, first))

		clash := testfixtures.NewConsist(club.ID, owner.ID, 101, true)
		assert.ErrorIs(t, storage.CreateConsist(ctx, clash), persistence.ErrDuplicate)

		// Addresses and consists do not share a number space.
		require.NoError(t, storage.CreateAddress(ctx, testfixtures.NewAddress(club.ID, "", 101, true)))

		listed, err := storage.ListConsists(ctx, persistence.NumberedFilter{ClubFilter: persistence.ClubFilter{UserID: owner.ID, AllClubs: true}})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "Consist 101", listed[0].Description)

		require.NoError(t, storage.DeleteConsist(ctx, first.ID))
		_, err = storage.GetConsist(ctx, first.ID)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestIssueAndNoticeRepositories(t *testing.T) {
	ctx := context.Background()
	storage := testfixtures.NewSQLiteStorage(t)

	club := testfixtures.NewClub("")
	member := testfixtures.NewUser()
	testfixtures.SeedMember(t, storage, club, member)

	t.Run("Should filter issues by status", func(t *testing.T) {
		open := testfixtures.NewIssue(club.ID, member.ID, "Loose rail")
		closed := testfixtures.NewIssue(club.ID, member.ID, "Dim lights")
		closed.Status = "closed"
		require.NoError(t, storage.CreateIssue(ctx, open))
		require.NoError(t, storage.CreateIssue(ctx, closed))

		got, err := storage.ListIssues(ctx, persistence.IssueFilter{ClubFilter: persistence.ClubFilter{ClubIDs: []string{club.ID}}, Status: "open"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, open.ID, got[0].ID)
	})

	t.Run("Should reject an unknown issue status", func(t *testing.T) {
		bad := testfixtures.NewIssue(club.ID, member.ID, "Bad")
		bad.Status = "pending"
		err := storage.CreateIssue(ctx, bad)
		assert.True(t, errors.Is(err, persistence.ErrConstraintViolation), "got %v", err)
	})

	t.Run("Should hide expired notices", func(t *testing.T) {
		now := testfixtures.ReferenceTime()
		past := now.Add(-time.Hour)
		future := now.Add(time.Hour)
		require.NoError(t, storage.CreateNotice(ctx, testfixtures.NewNotice(club.ID, member.ID, "Old", &past)))
		require.NoError(t, storage.CreateNotice(ctx, testfixtures.NewNotice(club.ID, member.ID, "Soon", &future)))
		require.NoError(t, storage.CreateNotice(ctx, testfixtures.NewNotice(club.ID, member.ID, "Forever", nil)))

		all, err := storage.ListNotices(ctx, persistence.NoticeFilter{ClubFilter: persistence.ClubFilter{ClubIDs: []string{club.ID}}})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		active, err := storage.ListNotices(ctx, persistence.NoticeFilter{ClubFilter: persistence.ClubFilter{ClubIDs: []string{club.ID}}, ActiveAt: &now})
		require.NoError(t, err)
		titles := make([]string, 0, len(active))
		for _, n := range active {
			titles = append(titles, n.Title)
		}
		assert.ElementsMatch(t, []string{"Soon", "Forever"}, titles)
	})
}
