package application

import (
	"time"

	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

// Principal represents the authenticated user invoking a service method. It is
// resolved from storage on every request.
type Principal struct {
	UserID  string
	Level   permission.Level
	ClubIDs []string
}

func (p Principal) subject() permission.Subject {
	return permission.Subject{UserID: p.UserID, Level: p.Level, ClubIDs: p.ClubIDs}
}

// User is a registered club member.
type User struct {
	ID          string
	Subject     string
	Email       string
	DisplayName string
	Level       permission.Level
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Profile is the caller's own view of themselves.
type Profile struct {
	User    User
	ClubIDs []string
}

// UserInput captures the fields an admin supplies when registering a user.
type UserInput struct {
	Subject     string
	Email       string
	DisplayName string
	Level       permission.Level
}

// Club is a club the caller can see.
type Club struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClubInput captures caller provided club fields.
type ClubInput struct {
	Name        string
	Description string
}

// Appointment is a booked slot. Start is in the club's time zone.
type Appointment struct {
	ID        string
	ClubID    string
	UserID    string
	Start     time.Time
	Duration  int
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// End returns the instant the appointment finishes.
func (a Appointment) End() time.Time {
	return a.Start.Add(time.Duration(a.Duration) * time.Minute)
}

// AppointmentInput uses the wire format shared with the booking form: Date is
// YYYY-MM-DD, Time is a slot such as "9:30 AM", Duration is whole minutes.
// UserID defaults to the caller.
type AppointmentInput struct {
	ClubID   string
	UserID   string
	Date     string
	Time     string
	Duration int
	Notes    string
}

// ListAppointmentsParams narrows an appointment listing. Dates are YYYY-MM-DD
// in the club time zone; To is inclusive.
type ListAppointmentsParams struct {
	Principal Principal
	ClubID    string
	From      string
	To        string
	Mine      bool
}

// DayHours describes what the club offers on one calendar day.
type DayHours struct {
	Date    string
	DayName string
	Open    bool
	Hours   string
	Slots   []string
}

// Address is a numbered club resource such as a DCC locomotive address.
// OwnerID is empty when unassigned.
type Address struct {
	ID          string
	ClubID      string
	OwnerID     string
	Number      int
	Description string
	InUse       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Consist is a numbered group of locomotives run together.
type Consist Address

// NumberedInput captures caller provided address or consist fields. A nil
// OwnerID means the caller; a pointer to "" leaves the record unassigned.
type NumberedInput struct {
	ClubID      string
	OwnerID     *string
	Number      int
	Description string
	InUse       bool
}

// ListNumberedParams narrows an address or consist listing.
type ListNumberedParams struct {
	Principal Principal
	ClubID    string
	InUse     *bool
	Mine      bool
}

// IssueStatus is the lifecycle state of an issue.
type IssueStatus string

const (
	IssueOpen   IssueStatus = "open"
	IssueClosed IssueStatus = "closed"
)

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	return s == IssueOpen || s == IssueClosed
}

// Issue is a member-filed problem report.
type Issue struct {
	ID        string
	ClubID    string
	UserID    string
	Title     string
	Body      string
	Status    IssueStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IssueInput captures caller provided issue fields. Status is ignored on create.
type IssueInput struct {
	ClubID string
	Title  string
	Body   string
	Status IssueStatus
}

// ListIssuesParams narrows an issue listing.
type ListIssuesParams struct {
	Principal Principal
	ClubID    string
	Status    IssueStatus
	Mine      bool
}

// Notice is an admin-authored club announcement.
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

// NoticeInput captures caller provided notice fields.
type NoticeInput struct {
	ClubID    string
	Title     string
	Body      string
	ExpiresAt *time.Time
}

// ListNoticesParams narrows a notice listing. Expired notices are only
// returned to admins that ask for them.
type ListNoticesParams struct {
	Principal      Principal
	ClubID         string
	IncludeExpired bool
}

func toUser(u persistence.User) User {
	return User{
		ID:          u.ID,
		Subject:     u.Subject,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Level:       permission.Level(u.Permission),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toClub(c persistence.Club) Club {
	return Club{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toAddress(a persistence.Address) Address {
	out := Address{
		ID:          a.ID,
		ClubID:      a.ClubID,
		Number:      a.Number,
		Description: a.Description,
		InUse:       a.InUse,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.UserID != nil {
		out.OwnerID = *a.UserID
	}
	return out
}

func fromAddress(a Address) persistence.Address {
	out := persistence.Address{
		ID:          a.ID,
		ClubID:      a.ClubID,
		Number:      a.Number,
		Description: a.Description,
		InUse:       a.InUse,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.OwnerID != "" {
		owner := a.OwnerID
		out.UserID = &owner
	}
	return out
}

func toIssue(i persistence.Issue) Issue {
	return Issue{
		ID:        i.ID,
		ClubID:    i.ClubID,
		UserID:    i.UserID,
		Title:     i.Title,
		Body:      i.Body,
		Status:    IssueStatus(i.Status),
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func toNotice(n persistence.Notice) Notice {
	return Notice{
		ID:        n.ID,
		ClubID:    n.ClubID,
		AuthorID:  n.AuthorID,
		Title:     n.Title,
		Body:      n.Body,
		ExpiresAt: n.ExpiresAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
