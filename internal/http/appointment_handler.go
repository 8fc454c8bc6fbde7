package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/hours"
)

type appointmentService interface {
	CreateAppointment(ctx context.Context, principal application.Principal, input application.AppointmentInput) (application.Appointment, error)
	UpdateAppointment(ctx context.Context, principal application.Principal, appointmentID string, input application.AppointmentInput) (application.Appointment, error)
	DeleteAppointment(ctx context.Context, principal application.Principal, appointmentID string) error
	GetAppointment(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error)
	ListAppointments(ctx context.Context, params application.ListAppointmentsParams) ([]application.Appointment, error)
	Hours(date string) (application.DayHours, error)
	Location() *time.Location
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
	logger    *slog.Logger
}

func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	return &AppointmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

func (h *AppointmentHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Hours serves the opening hours and slots for ?date=, defaulting to today in
// the club time zone.
func (h *AppointmentHandler) Hours(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().In(h.service.Location()).Format("2006-01-02")
	}
	day, err := h.service.Hours(date)
	if err != nil {
		h.log(r.Context(), "Hours", "date", date).WarnContext(r.Context(), "hours lookup failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, hoursResponse{
		Date:    day.Date,
		DayName: day.DayName,
		Open:    day.Open,
		Hours:   day.Hours,
		Slots:   day.Slots,
	})
}

// Durations serves the appointment lengths the booking form offers.
func (h *AppointmentHandler) Durations(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, durationsResponse{Durations: hours.DurationOptions()})
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	mine, _ := strconv.ParseBool(query.Get("mine"))

	logger := h.log(r.Context(), "List")
	appointments, err := h.service.ListAppointments(r.Context(), application.ListAppointmentsParams{
		Principal: principal,
		ClubID:    query.Get("club_id"),
		From:      query.Get("from"),
		To:        query.Get("to"),
		Mine:      mine,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "appointment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("result_count", len(appointments)).InfoContext(r.Context(), "appointments listed")

	out := make([]appointmentDTO, 0, len(appointments))
	for _, appt := range appointments {
		out = append(out, toAppointmentDTO(appt))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{Appointments: out})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	appt, err := h.service.GetAppointment(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "Get", "appointment_id", id).WarnContext(r.Context(), "appointment lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{Appointment: toAppointmentDTO(appt)})
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	var req appointmentRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Create", "club_id", req.ClubID)
	appt, err := h.service.CreateAppointment(r.Context(), principal, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "appointment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("appointment_id", appt.ID).InfoContext(r.Context(), "appointment created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, appointmentResponse{Appointment: toAppointmentDTO(appt)})
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	var req appointmentRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Update", "appointment_id", id)
	appt, err := h.service.UpdateAppointment(r.Context(), principal, id, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "appointment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "appointment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{Appointment: toAppointmentDTO(appt)})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	logger := h.log(r.Context(), "Delete", "appointment_id", id)
	if err := h.service.DeleteAppointment(r.Context(), principal, id); err != nil {
		logger.WarnContext(r.Context(), "appointment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "appointment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// appointmentRequest uses the booking form's wire format. Calendar rules are
// checked by the service; the tags only catch malformed payloads.
type appointmentRequest struct {
	ClubID   string `json:"club_id"`
	UserID   string `json:"user_id"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required"`
	Duration int    `json:"duration" validate:"required"`
	Notes    string `json:"notes" validate:"max=2000"`
}

func (r appointmentRequest) toInput() application.AppointmentInput {
	return application.AppointmentInput{
		ClubID:   r.ClubID,
		UserID:   r.UserID,
		Date:     r.Date,
		Time:     r.Time,
		Duration: r.Duration,
		Notes:    r.Notes,
	}
}

type hoursResponse struct {
	Date    string   `json:"date"`
	DayName string   `json:"day_name"`
	Open    bool     `json:"open"`
	Hours   string   `json:"hours"`
	Slots   []string `json:"slots"`
}

type durationsResponse struct {
	Durations []int `json:"durations"`
}

type appointmentResponse struct {
	Appointment appointmentDTO `json:"appointment"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
}

type appointmentDTO struct {
	ID        string `json:"id"`
	ClubID    string `json:"club_id"`
	UserID    string `json:"user_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Duration  int    `json:"duration"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toAppointmentDTO(appt application.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:        appt.ID,
		ClubID:    appt.ClubID,
		UserID:    appt.UserID,
		Date:      appt.Start.Format("2006-01-02"),
		Time:      hours.Format12Hour(appt.Start.Hour(), appt.Start.Minute()),
		Duration:  appt.Duration,
		Start:     appt.Start.Format(time.RFC3339),
		End:       appt.End().Format(time.RFC3339),
		Notes:     appt.Notes,
		CreatedAt: formatTimestamp(appt.CreatedAt),
		UpdatedAt: formatTimestamp(appt.UpdatedAt),
	}
}
