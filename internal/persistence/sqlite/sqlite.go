// Package sqlite implements the persistence repositories on top of the pure-Go
// modernc SQLite driver. Schema changes are embedded goose migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/example/clubhouse/internal/persistence"
	"github.com/pressly/goose/v3"
	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var gooseInitMu sync.Mutex

// timeLayout is fixed width so stored timestamps compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Storage implements every repository interface in the persistence package.
type Storage struct {
	db     *sql.DB
	mapper *ErrorMapper
	retry  RetryConfig
	logger *slog.Logger
}

// Option customizes Storage.
type Option func(*Storage)

// WithRetryConfig overrides the busy retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Storage) {
		s.retry = cfg
	}
}

// WithLogger receives migration progress. Without it migrations run silently.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to the database at dsn. A bare path gets foreign keys, a busy
// timeout, and WAL journaling enabled.
func Open(dsn string, opts ...Option) (*Storage, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: empty dsn")
	}
	db, err := sql.Open("sqlite", buildDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	if isMemoryDSN(dsn) {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &Storage{db: db, mapper: NewErrorMapper(), retry: DefaultRetryConfig(), logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func buildDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !isMemoryDSN(dsn) {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	return dsn + sep + pragmas
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies every pending embedded migration.
func (s *Storage) Migrate(ctx context.Context) error {
	return s.withGoose(func() error {
		if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
			return fmt.Errorf("sqlite: apply migrations: %w", err)
		}
		return nil
	})
}

// SchemaVersion reports the latest applied migration version.
func (s *Storage) SchemaVersion(ctx context.Context) (version int64, err error) {
	err = s.withGoose(func() error {
		version, err = goose.GetDBVersionContext(ctx, s.db)
		if err != nil {
			return fmt.Errorf("sqlite: read schema version: %w", err)
		}
		return nil
	})
	return version, err
}

func (s *Storage) withGoose(fn func() error) error {
	gooseInitMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		goose.SetLogger(goose.NopLogger())
		gooseInitMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger: s.logger.With("component", "migrations")})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("sqlite: set goose dialect: %w", err)
	}
	return fn()
}

// gooseLogger forwards goose output to slog. Fatalf is logged, never fatal.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// exec runs a built statement with busy retries and returns the number of
// affected rows.
func (s *Storage) exec(ctx context.Context, stmt squirrel.Sqlizer) (int64, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return 0, fmt.Errorf("sqlite: build statement: %w", err)
	}
	var affected int64
	err = s.withRetry(ctx, func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	return affected, err
}

// execOne is exec for statements that must touch exactly one row.
func (s *Storage) execOne(ctx context.Context, stmt squirrel.Sqlizer) error {
	affected, err := s.exec(ctx, stmt)
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (s *Storage) queryRow(ctx context.Context, stmt squirrel.SelectBuilder) (*sql.Row, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build query: %w", err)
	}
	return s.db.QueryRowContext(ctx, query, args...), nil
}

func (s *Storage) query(ctx context.Context, stmt squirrel.SelectBuilder) (*sql.Rows, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	return rows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// collect drains rows through scan, always closing them.
func collect[T any](rows *sql.Rows, mapper *ErrorMapper, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapper.MapError(err)
	}
	return items, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse %s: %w", column, err)
	}
	return t, nil
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseOptionalTime(column string, value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(column, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optionalString(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

// clubScope restricts a select to the clubs named by the filter.
func clubScope(stmt squirrel.SelectBuilder, clubIDs []string, all bool) squirrel.SelectBuilder {
	if all {
		return stmt
	}
	if len(clubIDs) == 0 {
		return stmt.Where("1 = 0")
	}
	return stmt.Where(squirrel.Eq{"club_id": clubIDs})
}
