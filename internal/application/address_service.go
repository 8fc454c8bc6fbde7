package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/clubhouse/internal/persistence"
)

// AddressService manages DCC locomotive addresses held by club members.
type AddressService struct {
	core numberedService
}

// NewAddressService constructs an address service with the provided dependencies.
func NewAddressService(addresses persistence.AddressRepository, users persistence.UserRepository, clubs persistence.ClubRepository, idGenerator func() string, now func() time.Time) *AddressService {
	return NewAddressServiceWithLogger(addresses, users, clubs, idGenerator, now, nil)
}

// NewAddressServiceWithLogger constructs an address service with a specified logger.
func NewAddressServiceWithLogger(addresses persistence.AddressRepository, users persistence.UserRepository, clubs persistence.ClubRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AddressService {
	var store numberedStore
	if addresses != nil {
		store = addressStore{repo: addresses}
	}
	return &AddressService{core: newNumberedService("AddressService", "address", maxAddressNumber, store, users, clubs, idGenerator, now, logger)}
}

// CreateAddress registers an address in a club. Numbers are unique among the
// addresses currently in use.
func (s *AddressService) CreateAddress(ctx context.Context, principal Principal, input NumberedInput) (Address, error) {
	if s == nil {
		return Address{}, errNotConfigured("AddressService")
	}
	return s.core.create(ctx, principal, input)
}

// UpdateAddress edits an address. Owners and admins only.
func (s *AddressService) UpdateAddress(ctx context.Context, principal Principal, addressID string, input NumberedInput) (Address, error) {
	if s == nil {
		return Address{}, errNotConfigured("AddressService")
	}
	return s.core.update(ctx, principal, addressID, input)
}

// DeleteAddress removes an address. Owners and admins only.
func (s *AddressService) DeleteAddress(ctx context.Context, principal Principal, addressID string) error {
	if s == nil {
		return errNotConfigured("AddressService")
	}
	return s.core.remove(ctx, principal, addressID)
}

func (s *AddressService) GetAddress(ctx context.Context, principal Principal, addressID string) (Address, error) {
	if s == nil {
		return Address{}, errNotConfigured("AddressService")
	}
	return s.core.get(ctx, principal, addressID)
}

func (s *AddressService) ListAddresses(ctx context.Context, params ListNumberedParams) ([]Address, error) {
	if s == nil {
		return nil, errNotConfigured("AddressService")
	}
	return s.core.list(ctx, params)
}

// ConsistService manages consists, groups of locomotives answering to one
// short address.
type ConsistService struct {
	core numberedService
}

// NewConsistService constructs a consist service with the provided dependencies.
func NewConsistService(consists persistence.ConsistRepository, users persistence.UserRepository, clubs persistence.ClubRepository, idGenerator func() string, now func() time.Time) *ConsistService {
	return NewConsistServiceWithLogger(consists, users, clubs, idGenerator, now, nil)
}

// NewConsistServiceWithLogger constructs a consist service with a specified logger.
func NewConsistServiceWithLogger(consists persistence.ConsistRepository, users persistence.UserRepository, clubs persistence.ClubRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ConsistService {
	var store numberedStore
	if consists != nil {
		store = consistStore{repo: consists}
	}
	return &ConsistService{core: newNumberedService("ConsistService", "consist", maxConsistNumber, store, users, clubs, idGenerator, now, logger)}
}

func (s *ConsistService) CreateConsist(ctx context.Context, principal Principal, input NumberedInput) (Consist, error) {
	if s == nil {
		return Consist{}, errNotConfigured("ConsistService")
	}
	item, err := s.core.create(ctx, principal, input)
	return Consist(item), err
}

func (s *ConsistService) UpdateConsist(ctx context.Context, principal Principal, consistID string, input NumberedInput) (Consist, error) {
	if s == nil {
		return Consist{}, errNotConfigured("ConsistService")
	}
	item, err := s.core.update(ctx, principal, consistID, input)
	return Consist(item), err
}

func (s *ConsistService) DeleteConsist(ctx context.Context, principal Principal, consistID string) error {
	if s == nil {
		return errNotConfigured("ConsistService")
	}
	return s.core.remove(ctx, principal, consistID)
}

func (s *ConsistService) GetConsist(ctx context.Context, principal Principal, consistID string) (Consist, error) {
	if s == nil {
		return Consist{}, errNotConfigured("ConsistService")
	}
	item, err := s.core.get(ctx, principal, consistID)
	return Consist(item), err
}

func (s *ConsistService) ListConsists(ctx context.Context, params ListNumberedParams) ([]Consist, error) {
	if s == nil {
		return nil, errNotConfigured("ConsistService")
	}
	items, err := s.core.list(ctx, params)
	if err != nil {
		return nil, err
	}
	out := make([]Consist, 0, len(items))
	for _, item := range items {
		out = append(out, Consist(item))
	}
	return out, nil
}
