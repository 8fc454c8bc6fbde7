package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/clubhouse/internal/application"
)

type addressService interface {
	CreateAddress(ctx context.Context, principal application.Principal, input application.NumberedInput) (application.Address, error)
	UpdateAddress(ctx context.Context, principal application.Principal, addressID string, input application.NumberedInput) (application.Address, error)
	DeleteAddress(ctx context.Context, principal application.Principal, addressID string) error
	GetAddress(ctx context.Context, principal application.Principal, addressID string) (application.Address, error)
	ListAddresses(ctx context.Context, params application.ListNumberedParams) ([]application.Address, error)
}

type consistService interface {
	CreateConsist(ctx context.Context, principal application.Principal, input application.NumberedInput) (application.Consist, error)
	UpdateConsist(ctx context.Context, principal application.Principal, consistID string, input application.NumberedInput) (application.Consist, error)
	DeleteConsist(ctx context.Context, principal application.Principal, consistID string) error
	GetConsist(ctx context.Context, principal application.Principal, consistID string) (application.Consist, error)
	ListConsists(ctx context.Context, params application.ListNumberedParams) ([]application.Consist, error)
}

// numberedBackend lets one handler serve both addresses and consists.
type numberedBackend interface {
	create(ctx context.Context, principal application.Principal, input application.NumberedInput) (application.Address, error)
	update(ctx context.Context, principal application.Principal, id string, input application.NumberedInput) (application.Address, error)
	remove(ctx context.Context, principal application.Principal, id string) error
	get(ctx context.Context, principal application.Principal, id string) (application.Address, error)
	list(ctx context.Context, params application.ListNumberedParams) ([]application.Address, error)
}

type addressBackend struct{ svc addressService }

func (b addressBackend) create(ctx context.Context, p application.Principal, in application.NumberedInput) (application.Address, error) {
	return b.svc.CreateAddress(ctx, p, in)
}

func (b addressBackend) update(ctx context.Context, p application.Principal, id string, in application.NumberedInput) (application.Address, error) {
	return b.svc.UpdateAddress(ctx, p, id, in)
}

func (b addressBackend) remove(ctx context.Context, p application.Principal, id string) error {
	return b.svc.DeleteAddress(ctx, p, id)
}

func (b addressBackend) get(ctx context.Context, p application.Principal, id string) (application.Address, error) {
	return b.svc.GetAddress(ctx, p, id)
}

func (b addressBackend) list(ctx context.Context, params application.ListNumberedParams) ([]application.Address, error) {
	return b.svc.ListAddresses(ctx, params)
}

type consistBackend struct{ svc consistService }

func (b consistBackend) create(ctx context.Context, p application.Principal, in application.NumberedInput) (application.Address, error) {
	c, err := b.svc.CreateConsist(ctx, p, in)
	return application.Address(c), err
}

func (b consistBackend) update(ctx context.Context, p application.Principal, id string, in application.NumberedInput) (application.Address, error) {
	c, err := b.svc.UpdateConsist(ctx, p, id, in)
	return application.Address(c), err
}

func (b consistBackend) remove(ctx context.Context, p application.Principal, id string) error {
	return b.svc.DeleteConsist(ctx, p, id)
}

func (b consistBackend) get(ctx context.Context, p application.Principal, id string) (application.Address, error) {
	c, err := b.svc.GetConsist(ctx, p, id)
	return application.Address(c), err
}

func (b consistBackend) list(ctx context.Context, params application.ListNumberedParams) ([]application.Address, error) {
	consists, err := b.svc.ListConsists(ctx, params)
	if err != nil {
		return nil, err
	}
	out := make([]application.Address, 0, len(consists))
	for _, c := range consists {
		out = append(out, application.Address(c))
	}
	return out, nil
}

// NumberedHandler serves /addresses or /consists.
type NumberedHandler struct {
	name      string
	singular  string
	plural    string
	backend   numberedBackend
	responder responder
	logger    *slog.Logger
}

func NewAddressHandler(service addressService, logger *slog.Logger) *NumberedHandler {
	var backend numberedBackend
	if service != nil {
		backend = addressBackend{svc: service}
	}
	return newNumberedHandler("AddressHandler", "address", "addresses", backend, logger)
}

func NewConsistHandler(service consistService, logger *slog.Logger) *NumberedHandler {
	var backend numberedBackend
	if service != nil {
		backend = consistBackend{svc: service}
	}
	return newNumberedHandler("ConsistHandler", "consist", "consists", backend, logger)
}

func newNumberedHandler(name, singular, plural string, backend numberedBackend, logger *slog.Logger) *NumberedHandler {
	base := defaultLogger(logger)
	return &NumberedHandler{name: name, singular: singular, plural: plural, backend: backend, responder: newResponder(base), logger: base}
}

func (h *NumberedHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, h.name, operation, attrs...)
}

func (h *NumberedHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.backend == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *NumberedHandler) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.WarnContext(ctx, h.singular+" request failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *NumberedHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	params := application.ListNumberedParams{Principal: principal, ClubID: query.Get("club_id")}
	params.Mine, _ = strconv.ParseBool(query.Get("mine"))
	if raw := query.Get("in_use"); raw != "" {
		inUse, err := strconv.ParseBool(raw)
		if err != nil {
			h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
				Message: "The request contains invalid fields.",
				Errors:  map[string]string{"in_use": "in_use must be true or false"},
			})
			return
		}
		params.InUse = &inUse
	}

	logger := h.log(r.Context(), "List")
	items, err := h.backend.list(r.Context(), params)
	if err != nil {
		h.fail(r.Context(), w, logger, err)
		return
	}
	logger.With("result_count", len(items)).InfoContext(r.Context(), h.plural+" listed")

	out := make([]numberedDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toNumberedDTO(item))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]numberedDTO{h.plural: out})
}

func (h *NumberedHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	item, err := h.backend.get(r.Context(), principal, id)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "Get", "id", id), err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]numberedDTO{h.singular: toNumberedDTO(item)})
}

func (h *NumberedHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	var req numberedRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Create", "club_id", req.ClubID, "number", req.Number)
	item, err := h.backend.create(r.Context(), principal, req.toInput())
	if err != nil {
		h.fail(r.Context(), w, logger, err)
		return
	}
	logger.With("id", item.ID).InfoContext(r.Context(), h.singular+" created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, map[string]numberedDTO{h.singular: toNumberedDTO(item)})
}

func (h *NumberedHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	var req numberedRequest
	if !h.responder.decode(r.Context(), w, r, &req) {
		return
	}

	logger := h.log(r.Context(), "Update", "id", id)
	item, err := h.backend.update(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.fail(r.Context(), w, logger, err)
		return
	}
	logger.InfoContext(r.Context(), h.singular+" updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]numberedDTO{h.singular: toNumberedDTO(item)})
}

func (h *NumberedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	logger := h.log(r.Context(), "Delete", "id", id)
	if err := h.backend.remove(r.Context(), principal, id); err != nil {
		h.fail(r.Context(), w, logger, err)
		return
	}
	logger.InfoContext(r.Context(), h.singular+" deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// numberedRequest leaves owner_id out to mean the caller and accepts "" for
// an unassigned record.
type numberedRequest struct {
	ClubID      string  `json:"club_id"`
	OwnerID     *string `json:"owner_id"`
	Number      int     `json:"number" validate:"required,min=1"`
	Description string  `json:"description" validate:"max=500"`
	InUse       bool    `json:"in_use"`
}

func (r numberedRequest) toInput() application.NumberedInput {
	return application.NumberedInput{
		ClubID:      r.ClubID,
		OwnerID:     r.OwnerID,
		Number:      r.Number,
		Description: r.Description,
		InUse:       r.InUse,
	}
}

type numberedDTO struct {
	ID          string `json:"id"`
	ClubID      string `json:"club_id"`
	OwnerID     string `json:"owner_id,omitempty"`
	Number      int    `json:"number"`
	Description string `json:"description,omitempty"`
	InUse       bool   `json:"in_use"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toNumberedDTO(item application.Address) numberedDTO {
	return numberedDTO{
		ID:          item.ID,
		ClubID:      item.ClubID,
		OwnerID:     item.OwnerID,
		Number:      item.Number,
		Description: item.Description,
		InUse:       item.InUse,
		CreatedAt:   formatTimestamp(item.CreatedAt),
		UpdatedAt:   formatTimestamp(item.UpdatedAt),
	}
}
