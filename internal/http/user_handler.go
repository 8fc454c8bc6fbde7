package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/permission"
)

type userService interface {
	Me(ctx context.Context, principal application.Principal) (application.Profile, error)
	RegisterUser(ctx context.Context, principal application.Principal, input application.UserInput) (application.User, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	SetPermission(ctx context.Context, principal application.Principal, userID string, level permission.Level) (application.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	profile, err := h.service.Me(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Me").ErrorContext(r.Context(), "profile lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, profileResponse{
		User:    toUserDTO(profile.User),
		ClubIDs: nonNil(profile.ClubIDs),
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List")
	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		logger.WarnContext(r.Context(), "user list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(users)).InfoContext(r.Context(), "users listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: toUserDTOs(users)})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var req userRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Create")
	user, err := h.service.RegisterUser(r.Context(), principal, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "user registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "user registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) SetPermission(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	var req permissionRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "SetPermission", "user_id", userID)
	user, err := h.service.SetPermission(r.Context(), principal, userID, permission.Level(req.Level))
	if err != nil {
		logger.WarnContext(r.Context(), "permission change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "permission changed", "level", user.Level.String())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

type userRequest struct {
	Subject     string `json:"subject" validate:"required,max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"display_name" validate:"required,max=120"`
	Level       int    `json:"level" validate:"required,oneof=1 2 3 4"`
}

func (r userRequest) toInput() application.UserInput {
	return application.UserInput{
		Subject:     strings.TrimSpace(r.Subject),
		Email:       strings.TrimSpace(r.Email),
		DisplayName: strings.TrimSpace(r.DisplayName),
		Level:       permission.Level(r.Level),
	}
}

type permissionRequest struct {
	Level int `json:"level" validate:"required,oneof=1 2 3 4"`
}

type userResponse struct {
	User userDTO `json:"user"`
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}

type profileResponse struct {
	User    userDTO  `json:"user"`
	ClubIDs []string `json:"club_ids"`
}

type userDTO struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	Level       int    `json:"level"`
	LevelLabel  string `json:"level_label"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toUserDTO(user application.User) userDTO {
	raw := int(user.Level)
	return userDTO{
		ID:          user.ID,
		Subject:     user.Subject,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Level:       raw,
		LevelLabel:  permission.Label(&raw),
		CreatedAt:   formatTimestamp(user.CreatedAt),
		UpdatedAt:   formatTimestamp(user.UpdatedAt),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
