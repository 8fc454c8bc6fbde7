package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
	"github.com/example/clubhouse/internal/persistence/sqlite"
	"github.com/example/clubhouse/internal/testfixtures"
)

// clubWorld is a migrated database with two clubs and one user per level.
// Outsider belongs to the second club only; super admin belongs to none.
type clubWorld struct {
	storage  *sqlite.Storage
	factory  *testfixtures.ServiceFactory
	svc      testfixtures.Services
	club     persistence.Club
	other    persistence.Club
	super    persistence.User
	admin    persistence.User
	regular  persistence.User
	peer     persistence.User
	limited  persistence.User
	outsider persistence.User
}

func newClubWorld(t *testing.T) *clubWorld {
	t.Helper()

	storage := testfixtures.NewSQLiteStorage(t)
	factory := testfixtures.NewServiceFactory()
	w := &clubWorld{
		storage:  storage,
		factory:  factory,
		svc:      factory.Build(storage),
		club:     testfixtures.NewClub(""),
		other:    testfixtures.NewClub(""),
		super:    testfixtures.NewUser(testfixtures.WithLevel(permission.SuperAdmin)),
		admin:    testfixtures.NewUser(testfixtures.WithLevel(permission.Admin)),
		regular:  testfixtures.NewUser(),
		peer:     testfixtures.NewUser(),
		limited:  testfixtures.NewUser(testfixtures.WithLevel(permission.Limited)),
		outsider: testfixtures.NewUser(),
	}

	ctx := context.Background()
	require.NoError(t, storage.CreateUser(ctx, w.super))
	for _, user := range []persistence.User{w.admin, w.regular, w.peer, w.limited} {
		testfixtures.SeedMember(t, storage, w.club, user)
	}
	testfixtures.SeedMember(t, storage, w.other, w.outsider)
	return w
}

// as resolves the principal the same way the HTTP middleware does.
func (w *clubWorld) as(t *testing.T, user persistence.User) application.Principal {
	t.Helper()
	principal, err := w.svc.Users.ResolvePrincipal(context.Background(), user.Subject)
	require.NoError(t, err)
	return principal
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.FieldErrors, field)
}

func ptr[T any](v T) *T {
	return &v
}
