package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserBySubject(ctx context.Context, subject string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// ClubRepository stores clubs and their membership rows.
type ClubRepository interface {
	CreateClub(ctx context.Context, club Club) error
	UpdateClub(ctx context.Context, club Club) error
	GetClub(ctx context.Context, id string) (Club, error)
	ListClubs(ctx context.Context, ids []string) ([]Club, error)
	ListAllClubs(ctx context.Context) ([]Club, error)
	DeleteClub(ctx context.Context, id string) error

	AddMembership(ctx context.Context, membership Membership) error
	RemoveMembership(ctx context.Context, clubID, userID string) error
	ListMembers(ctx context.Context, clubID string) ([]User, error)
	ListClubIDsForUser(ctx context.Context, userID string) ([]string, error)
}

// ClubFilter narrows list queries over club-scoped records. An empty ClubIDs
// slice with AllClubs unset matches nothing.
type ClubFilter struct {
	ClubIDs  []string
	AllClubs bool
	UserID   string
}

// AppointmentFilter narrows appointment queries.
type AppointmentFilter struct {
	ClubFilter
	StartsAfter  *time.Time
	StartsBefore *time.Time
}

// AppointmentRepository stores appointments.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// NumberedFilter narrows address and consist queries.
type NumberedFilter struct {
	ClubFilter
	InUse *bool
}

// AddressRepository stores numbered addresses.
type AddressRepository interface {
	CreateAddress(ctx context.Context, address Address) error
	UpdateAddress(ctx context.Context, address Address) error
	GetAddress(ctx context.Context, id string) (Address, error)
	FindAddressInUse(ctx context.Context, clubID string, number int) (Address, error)
	ListAddresses(ctx context.Context, filter NumberedFilter) ([]Address, error)
	DeleteAddress(ctx context.Context, id string) error
}

// ConsistRepository stores numbered consists.
type ConsistRepository interface {
	CreateConsist(ctx context.Context, consist Consist) error
	UpdateConsist(ctx context.Context, consist Consist) error
	GetConsist(ctx context.Context, id string) (Consist, error)
	FindConsistInUse(ctx context.Context, clubID string, number int) (Consist, error)
	ListConsists(ctx context.Context, filter NumberedFilter) ([]Consist, error)
	DeleteConsist(ctx context.Context, id string) error
}

// IssueFilter narrows issue queries.
type IssueFilter struct {
	ClubFilter
	Status string
}

// IssueRepository stores member-filed issues.
type IssueRepository interface {
	CreateIssue(ctx context.Context, issue Issue) error
	UpdateIssue(ctx context.Context, issue Issue) error
	GetIssue(ctx context.Context, id string) (Issue, error)
	ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error)
	DeleteIssue(ctx context.Context, id string) error
}

// NoticeFilter narrows notice queries. ActiveAt hides notices that expired
// before the given instant.
type NoticeFilter struct {
	ClubFilter
	ActiveAt *time.Time
}

// NoticeRepository stores club notices.
type NoticeRepository interface {
	CreateNotice(ctx context.Context, notice Notice) error
	UpdateNotice(ctx context.Context, notice Notice) error
	GetNotice(ctx context.Context, id string) (Notice, error)
	ListNotices(ctx context.Context, filter NoticeFilter) ([]Notice, error)
	DeleteNotice(ctx context.Context, id string) error
}
