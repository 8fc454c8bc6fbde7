package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/clubhouse/internal/application"
)

type clubService interface {
	CreateClub(ctx context.Context, principal application.Principal, input application.ClubInput) (application.Club, error)
	UpdateClub(ctx context.Context, principal application.Principal, clubID string, input application.ClubInput) (application.Club, error)
	DeleteClub(ctx context.Context, principal application.Principal, clubID string) error
	GetClub(ctx context.Context, principal application.Principal, clubID string) (application.Club, error)
	ListClubs(ctx context.Context, principal application.Principal) ([]application.Club, error)
	AddMember(ctx context.Context, principal application.Principal, clubID, userID string) error
	RemoveMember(ctx context.Context, principal application.Principal, clubID, userID string) error
	ListMembers(ctx context.Context, principal application.Principal, clubID string) ([]application.User, error)
}

type ClubHandler struct {
	service   clubService
	responder responder
	logger    *slog.Logger
}

func NewClubHandler(service clubService, logger *slog.Logger) *ClubHandler {
	base := defaultLogger(logger)
	return &ClubHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ClubHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ClubHandler", operation, attrs...)
}

func (h *ClubHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *ClubHandler) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.WarnContext(ctx, msg, "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List")
	clubs, err := h.service.ListClubs(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, logger, "club list failed", err)
		return
	}
	logger.With("result_count", len(clubs)).InfoContext(r.Context(), "clubs listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listClubsResponse{Clubs: toClubDTOs(clubs)})
}

func (h *ClubHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	clubID := r.PathValue("id")
	club, err := h.service.GetClub(r.Context(), principal, clubID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "Get", "club_id", clubID), "club lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, clubResponse{Club: toClubDTO(club)})
}

func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	var req clubRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Create")
	club, err := h.service.CreateClub(r.Context(), principal, req.toInput())
	if err != nil {
		h.fail(r.Context(), w, logger, "club creation failed", err)
		return
	}
	logger.With("club_id", club.ID).InfoContext(r.Context(), "club created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, clubResponse{Club: toClubDTO(club)})
}

func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	clubID := r.PathValue("id")
	var req clubRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Update", "club_id", clubID)
	club, err := h.service.UpdateClub(r.Context(), principal, clubID, req.toInput())
	if err != nil {
		h.fail(r.Context(), w, logger, "club update failed", err)
		return
	}
	logger.InfoContext(r.Context(), "club updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, clubResponse{Club: toClubDTO(club)})
}

func (h *ClubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	clubID := r.PathValue("id")
	logger := h.log(r.Context(), "Delete", "club_id", clubID)
	if err := h.service.DeleteClub(r.Context(), principal, clubID); err != nil {
		h.fail(r.Context(), w, logger, "club delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "club deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ClubHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	clubID := r.PathValue("id")
	members, err := h.service.ListMembers(r.Context(), principal, clubID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListMembers", "club_id", clubID), "member list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: toUserDTOs(members)})
}

func (h *ClubHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	clubID := r.PathValue("id")
	var req memberRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "AddMember", "club_id", clubID, "user_id", req.UserID)
	if err := h.service.AddMember(r.Context(), principal, clubID, req.UserID); err != nil {
		h.fail(r.Context(), w, logger, "member add failed", err)
		return
	}
	logger.InfoContext(r.Context(), "member added")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ClubHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	clubID, userID := r.PathValue("id"), r.PathValue("userID")
	logger := h.log(r.Context(), "RemoveMember", "club_id", clubID, "user_id", userID)
	if err := h.service.RemoveMember(r.Context(), principal, clubID, userID); err != nil {
		h.fail(r.Context(), w, logger, "member removal failed", err)
		return
	}
	logger.InfoContext(r.Context(), "member removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type clubRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

func (r clubRequest) toInput() application.ClubInput {
	return application.ClubInput{Name: r.Name, Description: r.Description}
}

type memberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type clubResponse struct {
	Club clubDTO `json:"club"`
}

type listClubsResponse struct {
	Clubs []clubDTO `json:"clubs"`
}

type clubDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toClubDTO(club application.Club) clubDTO {
	return clubDTO{
		ID:          club.ID,
		Name:        club.Name,
		Description: club.Description,
		CreatedAt:   formatTimestamp(club.CreatedAt),
		UpdatedAt:   formatTimestamp(club.UpdatedAt),
	}
}

func toClubDTOs(clubs []application.Club) []clubDTO {
	out := make([]clubDTO, 0, len(clubs))
	for _, club := range clubs {
		out = append(out, toClubDTO(club))
	}
	return out
}
