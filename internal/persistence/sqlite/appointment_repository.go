package sqlite

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/example/clubhouse/internal/persistence"
)

var appointmentColumns = []string{"id", "club_id", "user_id", "schedule", "duration", "notes", "created_at", "updated_at"}

// CreateAppointment inserts a new appointment.
func (s *Storage) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, builder.Insert("appointments").
		Columns(appointmentColumns...).
		Values(appointment.ID, appointment.ClubID, appointment.UserID, formatTime(appointment.Schedule),
			appointment.Duration, appointment.Notes,
			formatTime(appointment.CreatedAt), formatTime(appointment.UpdatedAt)))
	return err
}

// UpdateAppointment overwrites an existing appointment. The club is fixed at creation.
func (s *Storage) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	return s.execOne(ctx, builder.Update("appointments").
		Set("user_id", appointment.UserID).
		Set("schedule", formatTime(appointment.Schedule)).
		Set("duration", appointment.Duration).
		Set("notes", appointment.Notes).
		Set("updated_at", formatTime(appointment.UpdatedAt)).
		Where(squirrel.Eq{"id": appointment.ID}))
}

// GetAppointment retrieves an appointment by ID.
func (s *Storage) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	row, err := s.queryRow(ctx, builder.Select(appointmentColumns...).From("appointments").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return persistence.Appointment{}, err
	}
	return s.scanAppointment(row)
}

// ListAppointments returns matching appointments ordered by start time.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	stmt := clubScope(builder.Select(appointmentColumns...).From("appointments"), filter.ClubIDs, filter.AllClubs)
	if filter.UserID != "" {
		stmt = stmt.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.StartsAfter != nil {
		stmt = stmt.Where(squirrel.GtOrEq{"schedule": formatTime(*filter.StartsAfter)})
	}
	if filter.StartsBefore != nil {
		stmt = stmt.Where(squirrel.Lt{"schedule": formatTime(*filter.StartsBefore)})
	}
	rows, err := s.query(ctx, stmt.OrderBy("schedule ASC", "id ASC"))
	if err != nil {
		return nil, err
	}
	return collect(rows, s.mapper, s.scanAppointment)
}

// DeleteAppointment removes an appointment by ID.
func (s *Storage) DeleteAppointment(ctx context.Context, id string) error {
	return s.execOne(ctx, builder.Delete("appointments").Where(squirrel.Eq{"id": id}))
}

func (s *Storage) scanAppointment(row scanner) (persistence.Appointment, error) {
	var (
		a                              persistence.Appointment
		schedule, createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.ClubID, &a.UserID, &schedule, &a.Duration, &a.Notes, &createdAt, &updatedAt); err != nil {
		return persistence.Appointment{}, s.mapper.MapError(err)
	}
	var err error
	if a.Schedule, err = parseTime("schedule", schedule); err != nil {
		return persistence.Appointment{}, err
	}
	if a.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Appointment{}, err
	}
	if a.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Appointment{}, err
	}
	return a, nil
}
