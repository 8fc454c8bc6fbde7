package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

var (
	userCounter     uint64
	clubCounter     uint64
	resourceCounter uint64
)

// UserOption configures a generated user record.
type UserOption func(*persistence.User)

// NewUser returns a unique regular user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:          fmt.Sprintf("user-%03d", idx),
		Subject:     fmt.Sprintf("idp|%03d", idx),
		Email:       fmt.Sprintf("user-%03d@example.com", idx),
		DisplayName: fmt.Sprintf("User %03d", idx),
		Permission:  int(permission.Regular),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithSubject overrides the identity provider subject.
func WithSubject(subject string) UserOption {
	return func(u *persistence.User) { u.Subject = subject }
}

// WithDisplayName overrides the display name.
func WithDisplayName(name string) UserOption {
	return func(u *persistence.User) { u.DisplayName = name }
}

// WithLevel sets the stored permission level.
func WithLevel(level permission.Level) UserOption {
	return func(u *persistence.User) { u.Permission = int(level) }
}

// NewClub returns a unique club record.
func NewClub(name string) persistence.Club {
	idx := atomic.AddUint64(&clubCounter, 1)
	if name == "" {
		name = fmt.Sprintf("Club %03d", idx)
	}
	return persistence.Club{
		ID:          fmt.Sprintf("club-%03d", idx),
		Name:        name,
		Description: "Model railroad club",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
}

func nextResourceID(kind string) string {
	return fmt.Sprintf("%s-%03d", kind, atomic.AddUint64(&resourceCounter, 1))
}

// NewAppointment returns an appointment owned by userID at schedule.
func NewAppointment(clubID, userID string, schedule time.Time, duration int) persistence.Appointment {
	return persistence.Appointment{
		ID:        nextResourceID("appointment"),
		ClubID:    clubID,
		UserID:    userID,
		Schedule:  schedule,
		Duration:  duration,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// NewAddress returns an address; a blank ownerID leaves it unassigned.
func NewAddress(clubID, ownerID string, number int, inUse bool) persistence.Address {
	address := persistence.Address{
		ID:          nextResourceID("address"),
		ClubID:      clubID,
		Number:      number,
		Description: fmt.Sprintf("Address %d", number),
		InUse:       inUse,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	if ownerID != "" {
		address.UserID = &ownerID
	}
	return address
}

// NewConsist returns a consist; a blank ownerID leaves it unassigned.
func NewConsist(clubID, ownerID string, number int, inUse bool) persistence.Consist {
	consist := persistence.Consist(NewAddress(clubID, ownerID, number, inUse))
	consist.ID = nextResourceID("consist")
	consist.Description = fmt.Sprintf("Consist %d", number)
	return consist
}

// NewIssue returns an open issue filed by userID.
func NewIssue(clubID, userID, title string) persistence.Issue {
	return persistence.Issue{
		ID:        nextResourceID("issue"),
		ClubID:    clubID,
		UserID:    userID,
		Title:     title,
		Status:    "open",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// NewNotice returns a notice authored by authorID.
func NewNotice(clubID, authorID, title string, expiresAt *time.Time) persistence.Notice {
	return persistence.Notice{
		ID:        nextResourceID("notice"),
		ClubID:    clubID,
		AuthorID:  authorID,
		Title:     title,
		ExpiresAt: expiresAt,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}
