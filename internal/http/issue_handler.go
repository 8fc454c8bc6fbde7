package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/clubhouse/internal/application"
)

type issueService interface {
	CreateIssue(ctx context.Context, principal application.Principal, input application.IssueInput) (application.Issue, error)
	UpdateIssue(ctx context.Context, principal application.Principal, issueID string, input application.IssueInput) (application.Issue, error)
	DeleteIssue(ctx context.Context, principal application.Principal, issueID string) error
	GetIssue(ctx context.Context, principal application.Principal, issueID string) (application.Issue, error)
	ListIssues(ctx context.Context, params application.ListIssuesParams) ([]application.Issue, error)
}

type IssueHandler struct {
	service   issueService
	responder responder
	logger    *slog.Logger
}

func NewIssueHandler(service issueService, logger *slog.Logger) *IssueHandler {
	base := defaultLogger(logger)
	return &IssueHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *IssueHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "IssueHandler", operation, attrs...)
}

func (h *IssueHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	mine, _ := strconv.ParseBool(query.Get("mine"))

	logger := h.log(r.Context(), "List")
	issues, err := h.service.ListIssues(r.Context(), application.ListIssuesParams{
		Principal: principal,
		ClubID:    query.Get("club_id"),
		Status:    application.IssueStatus(query.Get("status")),
		Mine:      mine,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "issue list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("result_count", len(issues)).InfoContext(r.Context(), "issues listed")

	out := make([]issueDTO, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toIssueDTO(issue))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listIssuesResponse{Issues: out})
}

func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	issue, err := h.service.GetIssue(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "Get", "issue_id", id).WarnContext(r.Context(), "issue lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, issueResponse{Issue: toIssueDTO(issue)})
}

func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	var req issueRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Create", "club_id", req.ClubID)
	issue, err := h.service.CreateIssue(r.Context(), principal, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "issue creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("issue_id", issue.ID).InfoContext(r.Context(), "issue created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, issueResponse{Issue: toIssueDTO(issue)})
}

func (h *IssueHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	var req issueRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Update", "issue_id", id)
	issue, err := h.service.UpdateIssue(r.Context(), principal, id, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "issue update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "issue updated", "status", string(issue.Status))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, issueResponse{Issue: toIssueDTO(issue)})
}

func (h *IssueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	logger := h.log(r.Context(), "Delete", "issue_id", id)
	if err := h.service.DeleteIssue(r.Context(), principal, id); err != nil {
		logger.WarnContext(r.Context(), "issue delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "issue deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type issueRequest struct {
	ClubID string `json:"club_id"`
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"max=10000"`
	Status string `json:"status" validate:"omitempty,oneof=open closed"`
}

func (r issueRequest) toInput() application.IssueInput {
	return application.IssueInput{
		ClubID: r.ClubID,
		Title:  r.Title,
		Body:   r.Body,
		Status: application.IssueStatus(r.Status),
	}
}

type issueResponse struct {
	Issue issueDTO `json:"issue"`
}

type listIssuesResponse struct {
	Issues []issueDTO `json:"issues"`
}

type issueDTO struct {
	ID        string `json:"id"`
	ClubID    string `json:"club_id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toIssueDTO(issue application.Issue) issueDTO {
	return issueDTO{
		ID:        issue.ID,
		ClubID:    issue.ClubID,
		UserID:    issue.UserID,
		Title:     issue.Title,
		Body:      issue.Body,
		Status:    string(issue.Status),
		CreatedAt: formatTimestamp(issue.CreatedAt),
		UpdatedAt: formatTimestamp(issue.UpdatedAt),
	}
}
