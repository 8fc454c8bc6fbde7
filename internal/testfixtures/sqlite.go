package testfixtures

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/clubhouse/internal/persistence"
	"github.com/example/clubhouse/internal/persistence/sqlite"
)

// NewSQLiteStorage opens a migrated database in a temporary directory and
// closes it when the test ends.
func NewSQLiteStorage(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "clubhouse.db")
	storage, err := sqlite.Open(path, sqlite.WithRetryConfig(sqlite.RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return storage
}

// SeedMember stores user and club (when not yet present) and links them.
func SeedMember(tb testing.TB, storage *sqlite.Storage, club persistence.Club, user persistence.User) {
	tb.Helper()
	ctx := context.Background()

	if _, err := storage.GetClub(ctx, club.ID); err != nil {
		if err := storage.CreateClub(ctx, club); err != nil {
			tb.Fatalf("failed to create club: %v", err)
		}
	}
	if _, err := storage.GetUser(ctx, user.ID); err != nil {
		if err := storage.CreateUser(ctx, user); err != nil {
			tb.Fatalf("failed to create user: %v", err)
		}
	}
	if err := storage.AddMembership(ctx, persistence.Membership{ClubID: club.ID, UserID: user.ID, CreatedAt: referenceTime}); err != nil {
		tb.Fatalf("failed to add membership: %v", err)
	}
}
