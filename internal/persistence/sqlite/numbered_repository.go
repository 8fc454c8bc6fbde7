package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/example/clubhouse/internal/persistence"
)

// Addresses and consists share one table shape; both are stored through
// numberedTable with persistence.Address as the row type.

var numberedColumns = []string{"id", "club_id", "user_id", "number", "description", "in_use", "created_at", "updated_at"}

type numberedTable string

const (
	addressesTable numberedTable = "addresses"
	consistsTable  numberedTable = "consists"
)

func (t numberedTable) create(ctx context.Context, s *Storage, row persistence.Address) error {
	if row.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, builder.Insert(string(t)).
		Columns(numberedColumns...).
		Values(row.ID, row.ClubID, optionalString(row.UserID), row.Number, row.Description, row.InUse,
			formatTime(row.CreatedAt), formatTime(row.UpdatedAt)))
	return err
}

func (t numberedTable) update(ctx context.Context, s *Storage, row persistence.Address) error {
	return s.execOne(ctx, builder.Update(string(t)).
		Set("user_id", optionalString(row.UserID)).
		Set("number", row.Number).
		Set("description", row.Description).
		Set("in_use", row.InUse).
		Set("updated_at", formatTime(row.UpdatedAt)).
		Where(squirrel.Eq{"id": row.ID}))
}

func (t numberedTable) get(ctx context.Context, s *Storage, where squirrel.Sqlizer) (persistence.Address, error) {
	row, err := s.queryRow(ctx, builder.Select(numberedColumns...).From(string(t)).Where(where).Limit(1))
	if err != nil {
		return persistence.Address{}, err
	}
	return s.scanNumbered(row)
}

func (t numberedTable) list(ctx context.Context, s *Storage, filter persistence.NumberedFilter) ([]persistence.Address, error) {
	stmt := clubScope(builder.Select(numberedColumns...).From(string(t)), filter.ClubIDs, filter.AllClubs)
	if filter.UserID != "" {
		stmt = stmt.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.InUse != nil {
		stmt = stmt.Where(squirrel.Eq{"in_use": *filter.InUse})
	}
	rows, err := s.query(ctx, stmt.OrderBy("club_id ASC", "number ASC", "id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, s.scanNumbered)
}

func (t numberedTable) delete(ctx context.Context, s *Storage, id string) error {
	return s.execOne(ctx, builder.Delete(string(t)).Where(squirrel.Eq{"id": id}))
}

func (s *Storage) scanNumbered(row scanner) (persistence.Address, error) {
	var (
		a                    persistence.Address
		userID               sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.ClubID, &userID, &a.Number, &a.Description, &a.InUse, &createdAt, &updatedAt); err != nil {
		return persistence.Address{}, s.mapper.MapError(err)
	}
	a.UserID = nullableString(userID)
	var err error
	if a.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Address{}, err
	}
	if a.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Address{}, err
	}
	return a, nil
}

// CreateAddress inserts a new address.
func (s *Storage) CreateAddress(ctx context.Context, address persistence.Address) error {
	return addressesTable.create(ctx, s, address)
}

// UpdateAddress overwrites an existing address.
func (s *Storage) UpdateAddress(ctx context.Context, address persistence.Address) error {
	return addressesTable.update(ctx, s, address)
}

// GetAddress retrieves an address by ID.
func (s *Storage) GetAddress(ctx context.Context, id string) (persistence.Address, error) {
	return addressesTable.get(ctx, s, squirrel.Eq{"id": id})
}

// FindAddressInUse returns the in-use address holding number within a club.
func (s *Storage) FindAddressInUse(ctx context.Context, clubID string, number int) (persistence.Address, error) {
	return addressesTable.get(ctx, s, squirrel.Eq{"club_id": clubID, "number": number, "in_use": true})
}

// ListAddresses returns matching addresses ordered by number.
func (s *Storage) ListAddresses(ctx context.Context, filter persistence.NumberedFilter) ([]persistence.Address, error) {
	return addressesTable.list(ctx, s, filter)
}

// DeleteAddress removes an address by ID.
func (s *Storage) DeleteAddress(ctx context.Context, id string) error {
	return addressesTable.delete(ctx, s, id)
}

// CreateConsist inserts a new consist.
func (s *Storage) CreateConsist(ctx context.Context, consist persistence.Consist) error {
	return consistsTable.create(ctx, s, persistence.Address(consist))
}

// UpdateConsist overwrites an existing consist.
func (s *Storage) UpdateConsist(ctx context.Context, consist persistence.Consist) error {
	return consistsTable.update(ctx, s, persistence.Address(consist))
}

// GetConsist retrieves a consist by ID.
func (s *Storage) GetConsist(ctx context.Context, id string) (persistence.Consist, error) {
	row, err := consistsTable.get(ctx, s, squirrel.Eq{"id": id})
	return persistence.Consist(row), err
}

// FindConsistInUse returns the in-use consist holding number within a club.
func (s *Storage) FindConsistInUse(ctx context.Context, clubID string, number int) (persistence.Consist, error) {
	row, err := consistsTable.get(ctx, s, squirrel.Eq{"club_id": clubID, "number": number, "in_use": true})
	return persistence.Consist(row), err
}

// ListConsists returns matching consists ordered by number.
func (s *Storage) ListConsists(ctx context.Context, filter persistence.NumberedFilter) ([]persistence.Consist, error) {
	rows, err := consistsTable.list(ctx, s, filter)
	if err != nil {
		return nil, err
	}
	consists := make([]persistence.Consist, len(rows))
	for i, row := range rows {
		consists[i] = persistence.Consist(row)
	}
	return consists, nil
}

// DeleteConsist removes a consist by ID.
func (s *Storage) DeleteConsist(ctx context.Context, id string) error {
	return consistsTable.delete(ctx, s, id)
}
