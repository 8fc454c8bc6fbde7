package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

const (
	maxAddressNumber     = 9999
	maxConsistNumber     = 127
	maxDescriptionLength = 500
)

// numberedStore adapts the address and consist repositories to one shape.
type numberedStore interface {
	create(ctx context.Context, record persistence.Address) error
	update(ctx context.Context, record persistence.Address) error
	get(ctx context.Context, id string) (persistence.Address, error)
	findInUse(ctx context.Context, clubID string, number int) (persistence.Address, error)
	list(ctx context.Context, filter persistence.NumberedFilter) ([]persistence.Address, error)
	remove(ctx context.Context, id string) error
}

type addressStore struct{ repo persistence.AddressRepository }

func (s addressStore) create(ctx context.Context, r persistence.Address) error {
	return s.repo.CreateAddress(ctx, r)
}
func (s addressStore) update(ctx context.Context, r persistence.Address) error {
	return s.repo.UpdateAddress(ctx, r)
}
func (s addressStore) get(ctx context.Context, id string) (persistence.Address, error) {
	return s.repo.GetAddress(ctx, id)
}
func (s addressStore) findInUse(ctx context.Context, clubID string, number int) (persistence.Address, error) {
	return s.repo.FindAddressInUse(ctx, clubID, number)
}
func (s addressStore) list(ctx context.Context, f persistence.NumberedFilter) ([]persistence.Address, error) {
	return s.repo.ListAddresses(ctx, f)
}
func (s addressStore) remove(ctx context.Context, id string) error {
	return s.repo.DeleteAddress(ctx, id)
}

type consistStore struct{ repo persistence.ConsistRepository }

func (s consistStore) create(ctx context.Context, r persistence.Address) error {
	return s.repo.CreateConsist(ctx, persistence.Consist(r))
}
func (s consistStore) update(ctx context.Context, r persistence.Address) error {
	return s.repo.UpdateConsist(ctx, persistence.Consist(r))
}
func (s consistStore) get(ctx context.Context, id string) (persistence.Address, error) {
	c, err := s.repo.GetConsist(ctx, id)
	return persistence.Address(c), err
}
func (s consistStore) findInUse(ctx context.Context, clubID string, number int) (persistence.Address, error) {
	c, err := s.repo.FindConsistInUse(ctx, clubID, number)
	return persistence.Address(c), err
}
func (s consistStore) list(ctx context.Context, f persistence.NumberedFilter) ([]persistence.Address, error) {
	records, err := s.repo.ListConsists(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]persistence.Address, 0, len(records))
	for _, c := range records {
		out = append(out, persistence.Address(c))
	}
	return out, nil
}
func (s consistStore) remove(ctx context.Context, id string) error {
	return s.repo.DeleteConsist(ctx, id)
}

// numberedService holds the rules shared by addresses and consists. A number
// is unique among the in-use records of a club.
type numberedService struct {
	name        string
	noun        string
	maxNumber   int
	store       numberedStore
	members     memberDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

func (s *numberedService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, s.name, operation, principal, attrs...)
}

func (s *numberedService) configured() error {
	if s == nil {
		return errNotConfigured("numbered service")
	}
	if s.store == nil {
		return errNotConfigured(s.name)
	}
	return nil
}

func (s *numberedService) create(ctx context.Context, principal Principal, input NumberedInput) (created Address, err error) {
	if err = s.configured(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "Create", principal, "club_id", input.ClubID, "number", input.Number)
	defer func() { logOutcome(ctx, logger, s.noun+" created", err, "id", created.ID) }()

	owner := principal.UserID
	if input.OwnerID != nil {
		owner = strings.TrimSpace(*input.OwnerID)
	}
	resource := &permission.Resource{ClubID: input.ClubID, OwnerID: owner}
	if err = authorize(principal, resource, permission.OpCreate); err != nil {
		return
	}
	if owner != principal.UserID {
		if err = authorize(principal, resource, permission.OpAssign); err != nil {
			return
		}
		if owner != "" {
			if err = s.members.ensureMember(ctx, input.ClubID, owner); err != nil {
				return
			}
		}
	}
	if vErr := s.validate(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.ensureNumberFree(ctx, input.ClubID, input.Number, input.InUse, ""); err != nil {
		return
	}

	now := s.now()
	item := Address{
		ID:          s.idGenerator(),
		ClubID:      input.ClubID,
		OwnerID:     owner,
		Number:      input.Number,
		Description: strings.TrimSpace(input.Description),
		InUse:       input.InUse,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.store.create(ctx, fromAddress(item)); err != nil {
		err = mapRepoError(err)
		return
	}
	created = item
	return
}

func (s *numberedService) update(ctx context.Context, principal Principal, id string, input NumberedInput) (updated Address, err error) {
	if err = s.configured(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "Update", principal, "id", id)
	defer func() { logOutcome(ctx, logger, s.noun+" updated", err) }()

	record, err := s.store.get(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	existing := toAddress(record)
	resource := &permission.Resource{ClubID: existing.ClubID, OwnerID: existing.OwnerID}
	if err = authorize(principal, resource, permission.OpEdit); err != nil {
		return
	}
	if input.ClubID != "" && input.ClubID != existing.ClubID {
		err = fieldError("club_id", fmt.Sprintf("%ss cannot move between clubs", s.noun))
		return
	}
	owner := existing.OwnerID
	if input.OwnerID != nil {
		owner = strings.TrimSpace(*input.OwnerID)
	}
	if owner != existing.OwnerID {
		if err = authorize(principal, resource, permission.OpAssign); err != nil {
			return
		}
		if owner != "" {
			if err = s.members.ensureMember(ctx, existing.ClubID, owner); err != nil {
				return
			}
		}
	}
	if vErr := s.validate(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.ensureNumberFree(ctx, existing.ClubID, input.Number, input.InUse, existing.ID); err != nil {
		return
	}

	existing.OwnerID = owner
	existing.Number = input.Number
	existing.Description = strings.TrimSpace(input.Description)
	existing.InUse = input.InUse
	existing.UpdatedAt = s.now()
	if err = s.store.update(ctx, fromAddress(existing)); err != nil {
		err = mapRepoError(err)
		return
	}
	updated = existing
	return
}

func (s *numberedService) remove(ctx context.Context, principal Principal, id string) (err error) {
	if err = s.configured(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "Delete", principal, "id", id)
	defer func() { logOutcome(ctx, logger, s.noun+" deleted", err) }()

	record, err := s.store.get(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	existing := toAddress(record)
	if err = authorize(principal, &permission.Resource{ClubID: existing.ClubID, OwnerID: existing.OwnerID}, permission.OpDelete); err != nil {
		return
	}
	err = mapRepoError(s.store.remove(ctx, id))
	return
}

func (s *numberedService) get(ctx context.Context, principal Principal, id string) (Address, error) {
	if err := s.configured(); err != nil {
		return Address{}, err
	}
	record, err := s.store.get(ctx, id)
	if err != nil {
		return Address{}, mapRepoError(err)
	}
	item := toAddress(record)
	if err := authorize(principal, &permission.Resource{ClubID: item.ClubID, OwnerID: item.OwnerID}, permission.OpView); err != nil {
		return Address{}, err
	}
	return item, nil
}

func (s *numberedService) list(ctx context.Context, params ListNumberedParams) ([]Address, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	scope, err := scopeFilter(params.Principal, params.ClubID, params.Mine)
	if err != nil {
		return nil, err
	}
	records, err := s.store.list(ctx, persistence.NumberedFilter{ClubFilter: scope, InUse: params.InUse})
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]Address, 0, len(records))
	for _, record := range records {
		out = append(out, toAddress(record))
	}
	return out, nil
}

func (s *numberedService) ensureNumberFree(ctx context.Context, clubID string, number int, inUse bool, selfID string) error {
	if !inUse {
		return nil
	}
	holder, err := s.store.findInUse(ctx, clubID, number)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return nil
	case err != nil:
		return mapRepoError(err)
	case holder.ID == selfID:
		return nil
	}
	return fmt.Errorf("%s %d is already in use: %w", s.noun, number, ErrAlreadyExists)
}

func (s *numberedService) validate(input NumberedInput) *ValidationError {
	v := &ValidationError{}
	if input.Number < 1 || input.Number > s.maxNumber {
		v.add("number", fmt.Sprintf("number must be between 1 and %d", s.maxNumber))
	}
	if len(strings.TrimSpace(input.Description)) > maxDescriptionLength {
		v.add("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	return v
}

func newNumberedService(name, noun string, maxNumber int, store numberedStore, users persistence.UserRepository, clubs persistence.ClubRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) numberedService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return numberedService{
		name:        name,
		noun:        noun,
		maxNumber:   maxNumber,
		store:       store,
		members:     memberDirectory{users: users, clubs: clubs},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}
