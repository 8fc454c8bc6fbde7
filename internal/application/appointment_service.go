package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clubhouse/internal/hours"
	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
)

const (
	dateLayout     = "2006-01-02"
	maxNotesLength = 2000
)

// AppointmentService books club time against the opening-hours calendar.
// Overlapping appointments are allowed.
type AppointmentService struct {
	appointments persistence.AppointmentRepository
	members      memberDirectory
	calendar     *hours.Calendar
	location     *time.Location
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewAppointmentService constructs an appointment service. Dates and slot
// times are interpreted in loc.
func NewAppointmentService(appointments persistence.AppointmentRepository, users persistence.UserRepository, clubs persistence.ClubRepository, calendar *hours.Calendar, loc *time.Location, idGenerator func() string, now func() time.Time) *AppointmentService {
	return NewAppointmentServiceWithLogger(appointments, users, clubs, calendar, loc, idGenerator, now, nil)
}

// NewAppointmentServiceWithLogger constructs an appointment service with a specified logger.
func NewAppointmentServiceWithLogger(appointments persistence.AppointmentRepository, users persistence.UserRepository, clubs persistence.ClubRepository, calendar *hours.Calendar, loc *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AppointmentService {
	if calendar == nil {
		calendar = hours.NewCalendar(hours.DefaultWeek())
	}
	if loc == nil {
		loc = time.Local
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		appointments: appointments,
		members:      memberDirectory{users: users, clubs: clubs},
		calendar:     calendar,
		location:     loc,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, principal Principal, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, principal, attrs...)
}

// Location returns the club time zone used for dates and slots.
func (s *AppointmentService) Location() *time.Location {
	return s.location
}

// Hours describes opening hours and bookable slots for a YYYY-MM-DD date.
func (s *AppointmentService) Hours(dateText string) (DayHours, error) {
	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(dateText), s.location)
	if err != nil {
		return DayHours{}, fieldError("date", "date must be YYYY-MM-DD")
	}
	return DayHours{
		Date:    date.Format(dateLayout),
		DayName: hours.DayName(date),
		Open:    s.calendar.IsOpen(date),
		Hours:   s.calendar.FormatOpeningHours(date),
		Slots:   s.calendar.TimeSlots(date),
	}, nil
}

// CreateAppointment books a slot in a club the caller can access. Booking on
// behalf of another member requires an admin.
func (s *AppointmentService) CreateAppointment(ctx context.Context, principal Principal, input AppointmentInput) (appointment Appointment, err error) {
	if s == nil || s.appointments == nil {
		return Appointment{}, errNotConfigured("AppointmentService")
	}
	logger := s.loggerWith(ctx, "CreateAppointment", principal, "club_id", input.ClubID)
	defer func() { logOutcome(ctx, logger, "appointment created", err, "appointment_id", appointment.ID) }()

	owner := strings.TrimSpace(input.UserID)
	if owner == "" {
		owner = principal.UserID
	}
	resource := &permission.Resource{ClubID: input.ClubID, OwnerID: owner}
	if err = authorize(principal, resource, permission.OpCreate); err != nil {
		return
	}
	if owner != principal.UserID {
		if err = authorize(principal, resource, permission.OpAssign); err != nil {
			return
		}
		if err = s.members.ensureMember(ctx, input.ClubID, owner); err != nil {
			return
		}
	}

	start, vErr := s.validateInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	record := persistence.Appointment{
		ID:        s.idGenerator(),
		ClubID:    input.ClubID,
		UserID:    owner,
		Schedule:  start.UTC(),
		Duration:  input.Duration,
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.appointments.CreateAppointment(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}
	appointment = s.toAppointment(record)
	return
}

// UpdateAppointment reschedules an appointment. Owners and admins may edit;
// handing it to another member requires an admin. The club cannot change.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, principal Principal, appointmentID string, input AppointmentInput) (appointment Appointment, err error) {
	if s == nil || s.appointments == nil {
		return Appointment{}, errNotConfigured("AppointmentService")
	}
	logger := s.loggerWith(ctx, "UpdateAppointment", principal, "appointment_id", appointmentID)
	defer func() { logOutcome(ctx, logger, "appointment updated", err) }()

	existing, err := s.load(ctx, appointmentID)
	if err != nil {
		return
	}
	resource := &permission.Resource{ClubID: existing.ClubID, OwnerID: existing.UserID}
	if err = authorize(principal, resource, permission.OpEdit); err != nil {
		return
	}
	if input.ClubID != "" && input.ClubID != existing.ClubID {
		err = fieldError("club_id", "appointments cannot move between clubs")
		return
	}
	owner := strings.TrimSpace(input.UserID)
	if owner == "" {
		owner = existing.UserID
	}
	if owner != existing.UserID {
		if err = authorize(principal, resource, permission.OpAssign); err != nil {
			return
		}
		if err = s.members.ensureMember(ctx, existing.ClubID, owner); err != nil {
			return
		}
	}

	start, vErr := s.validateInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	existing.UserID = owner
	existing.Schedule = start.UTC()
	existing.Duration = input.Duration
	existing.Notes = strings.TrimSpace(input.Notes)
	existing.UpdatedAt = s.now()
	if err = s.appointments.UpdateAppointment(ctx, existing); err != nil {
		err = mapRepoError(err)
		return
	}
	appointment = s.toAppointment(existing)
	return
}

// DeleteAppointment cancels an appointment. Owners and admins only.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, principal Principal, appointmentID string) (err error) {
	if s == nil || s.appointments == nil {
		return errNotConfigured("AppointmentService")
	}
	logger := s.loggerWith(ctx, "DeleteAppointment", principal, "appointment_id", appointmentID)
	defer func() { logOutcome(ctx, logger, "appointment deleted", err) }()

	existing, err := s.load(ctx, appointmentID)
	if err != nil {
		return
	}
	if err = authorize(principal, &permission.Resource{ClubID: existing.ClubID, OwnerID: existing.UserID}, permission.OpDelete); err != nil {
		return
	}
	err = mapRepoError(s.appointments.DeleteAppointment(ctx, appointmentID))
	return
}

// GetAppointment returns an appointment in a club the caller can access.
func (s *AppointmentService) GetAppointment(ctx context.Context, principal Principal, appointmentID string) (Appointment, error) {
	if s == nil || s.appointments == nil {
		return Appointment{}, errNotConfigured("AppointmentService")
	}
	existing, err := s.load(ctx, appointmentID)
	if err != nil {
		return Appointment{}, err
	}
	if err := authorize(principal, &permission.Resource{ClubID: existing.ClubID, OwnerID: existing.UserID}, permission.OpView); err != nil {
		return Appointment{}, err
	}
	return s.toAppointment(existing), nil
}

// ListAppointments returns appointments in the caller's clubs ordered by start.
func (s *AppointmentService) ListAppointments(ctx context.Context, params ListAppointmentsParams) ([]Appointment, error) {
	if s == nil || s.appointments == nil {
		return nil, errNotConfigured("AppointmentService")
	}
	scope, err := scopeFilter(params.Principal, params.ClubID, params.Mine)
	if err != nil {
		return nil, err
	}
	filter := persistence.AppointmentFilter{ClubFilter: scope}

	vErr := &ValidationError{}
	if params.From != "" {
		from, err := time.ParseInLocation(dateLayout, params.From, s.location)
		if err != nil {
			vErr.add("from", "from must be YYYY-MM-DD")
		} else {
			filter.StartsAfter = &from
		}
	}
	if params.To != "" {
		to, err := time.ParseInLocation(dateLayout, params.To, s.location)
		if err != nil {
			vErr.add("to", "to must be YYYY-MM-DD")
		} else {
			end := to.AddDate(0, 0, 1)
			filter.StartsBefore = &end
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	records, err := s.appointments.ListAppointments(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]Appointment, 0, len(records))
	for _, record := range records {
		out = append(out, s.toAppointment(record))
	}
	return out, nil
}

func (s *AppointmentService) load(ctx context.Context, appointmentID string) (persistence.Appointment, error) {
	record, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return persistence.Appointment{}, mapRepoError(err)
	}
	return record, nil
}

// validateInput checks the wire fields against the calendar and returns the
// start instant in the club time zone.
func (s *AppointmentService) validateInput(input AppointmentInput) (time.Time, *ValidationError) {
	v := &ValidationError{}
	if err := hours.ValidateDuration(input.Duration); err != nil {
		v.add("duration", fmt.Sprintf("duration must be %d to %d minutes in %d minute steps",
			hours.MinAppointmentDuration, hours.MaxAppointmentDuration, hours.TimeSlotInterval))
	}
	if len(input.Notes) > maxNotesLength {
		v.add("notes", fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}

	date, dateErr := time.ParseInLocation(dateLayout, strings.TrimSpace(input.Date), s.location)
	if dateErr != nil {
		v.add("date", "date must be YYYY-MM-DD")
	}
	clock, clockErr := hours.Parse12Hour(input.Time)
	if clockErr != nil {
		v.add("time", `time must look like "9:30 AM"`)
	}
	if dateErr != nil || clockErr != nil {
		return time.Time{}, v
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour, clock.Minute, 0, 0, s.location)
	switch err := s.calendar.ValidateStart(start); {
	case errors.Is(err, hours.ErrClosedDay):
		v.add("date", fmt.Sprintf("the club is closed on %s", hours.DayName(start)))
	case errors.Is(err, hours.ErrOutsideHours):
		v.add("time", fmt.Sprintf("choose a start time between %s", s.calendar.FormatOpeningHours(start)))
	}
	return start, v
}

func (s *AppointmentService) toAppointment(a persistence.Appointment) Appointment {
	return Appointment{
		ID:        a.ID,
		ClubID:    a.ClubID,
		UserID:    a.UserID,
		Start:     a.Schedule.In(s.location),
		Duration:  a.Duration,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
