package persistence

import "time"

// User is a club member known to the identity provider by Subject.
// Permission holds the raw stored level; it is parsed at the service boundary.
type User struct {
	ID          string
	Subject     string
	Email       string
	DisplayName string
	Permission  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Club is the organization boundary that scopes memberships and resources.
type Club struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership links a user to a club.
type Membership struct {
	ClubID    string
	UserID    string
	CreatedAt time.Time
}

// Appointment is a booked slot. Schedule is stored in UTC.
type Appointment struct {
	ID        string
	ClubID    string
	UserID    string
	Schedule  time.Time
	Duration  int
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address is a numbered club resource assigned to a member. UserID is nil for
// unassigned addresses.
type Address struct {
	ID          string
	ClubID      string
	UserID      *string
	Number      int
	Description string
	InUse       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Consist is a numbered group of locomotives run together under one address.
type Consist struct {
	ID          string
	ClubID      string
	UserID      *string
	Number      int
	Description string
	InUse       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Issue is a member-filed problem report.
type Issue struct {
	ID        string
	ClubID    string
	UserID    string
	Title     string
	Body      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Notice is an admin-authored announcement for a club.
type Notice struct {
	ID        string
	ClubID    string
	AuthorID  string
	Title     string
	Body      string
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
