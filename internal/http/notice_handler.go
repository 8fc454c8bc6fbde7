package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/clubhouse/internal/application"
)

type noticeService interface {
	PostNotice(ctx context.Context, principal application.Principal, input application.NoticeInput) (application.Notice, error)
	UpdateNotice(ctx context.Context, principal application.Principal, noticeID string, input application.NoticeInput) (application.Notice, error)
	DeleteNotice(ctx context.Context, principal application.Principal, noticeID string) error
	GetNotice(ctx context.Context, principal application.Principal, noticeID string) (application.Notice, error)
	ListNotices(ctx context.Context, params application.ListNoticesParams) ([]application.Notice, error)
}

type NoticeHandler struct {
	service   noticeService
	responder responder
	logger    *slog.Logger
}

func NewNoticeHandler(service noticeService, logger *slog.Logger) *NoticeHandler {
	base := defaultLogger(logger)
	return &NoticeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *NoticeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "NoticeHandler", operation, attrs...)
}

func (h *NoticeHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *NoticeHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	includeExpired, _ := strconv.ParseBool(query.Get("include_expired"))

	logger := h.log(r.Context(), "List")
	notices, err := h.service.ListNotices(r.Context(), application.ListNoticesParams{
		Principal:      principal,
		ClubID:         query.Get("club_id"),
		IncludeExpired: includeExpired,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "notice list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("result_count", len(notices)).InfoContext(r.Context(), "notices listed")

	out := make([]noticeDTO, 0, len(notices))
	for _, notice := range notices {
		out = append(out, toNoticeDTO(notice))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNoticesResponse{Notices: out})
}

func (h *NoticeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	notice, err := h.service.GetNotice(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "Get", "notice_id", id).WarnContext(r.Context(), "notice lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, noticeResponse{Notice: toNoticeDTO(notice)})
}

func (h *NoticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	var req noticeRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Create", "club_id", req.ClubID)
	notice, err := h.service.PostNotice(r.Context(), principal, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "notice post failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("notice_id", notice.ID).InfoContext(r.Context(), "notice posted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, noticeResponse{Notice: toNoticeDTO(notice)})
}

func (h *NoticeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	var req noticeRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Update", "notice_id", id)
	notice, err := h.service.UpdateNotice(r.Context(), principal, id, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "notice update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "notice updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, noticeResponse{Notice: toNoticeDTO(notice)})
}

func (h *NoticeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	logger := h.log(r.Context(), "Delete", "notice_id", id)
	if err := h.service.DeleteNotice(r.Context(), principal, id); err != nil {
		logger.WarnContext(r.Context(), "notice delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "notice deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type noticeRequest struct {
	ClubID    string     `json:"club_id" validate:"required"`
	Title     string     `json:"title" validate:"required,max=200"`
	Body      string     `json:"body" validate:"required,max=10000"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (r noticeRequest) toInput() application.NoticeInput {
	return application.NoticeInput{
		ClubID:    r.ClubID,
		Title:     r.Title,
		Body:      r.Body,
		ExpiresAt: r.ExpiresAt,
	}
}

type noticeResponse struct {
	Notice noticeDTO `json:"notice"`
}

type listNoticesResponse struct {
	Notices []noticeDTO `json:"notices"`
}

type noticeDTO struct {
	ID        string  `json:"id"`
	ClubID    string  `json:"club_id"`
	AuthorID  string  `json:"author_id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	ExpiresAt *string `json:"expires_at,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toNoticeDTO(notice application.Notice) noticeDTO {
	dto := noticeDTO{
		ID:        notice.ID,
		ClubID:    notice.ClubID,
		AuthorID:  notice.AuthorID,
		Title:     notice.Title,
		Body:      notice.Body,
		CreatedAt: formatTimestamp(notice.CreatedAt),
		UpdatedAt: formatTimestamp(notice.UpdatedAt),
	}
	if notice.ExpiresAt != nil {
		expires := formatTimestamp(*notice.ExpiresAt)
		dto.ExpiresAt = &expires
	}
	return dto
}
