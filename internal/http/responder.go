package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/logging"
)

const maxRequestBody = 1 << 20

var (
	errBadRequestBody  = errors.New("request body is not valid JSON")
	errMissingIdentity = errors.New("a bearer token is required")
	errInvalidIdentity = errors.New("the bearer token is invalid or expired")
	errUnknownIdentity = errors.New("no club member is registered for this identity")
)

// validate checks request DTO tags. Field errors are reported under their
// JSON names.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthenticated):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_REQUIRED", Message: errUnknownIdentity.Error()})
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "You do not have permission to perform this action.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "The requested resource was not found."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: conflictMessage(err)})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "The request contains invalid fields.",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "An internal server error occurred."})
	}
}

// decode reads a JSON body into dst and checks its validate tags. It writes
// the error response itself and reports whether the handler may continue.
func (r responder) decode(ctx context.Context, w http.ResponseWriter, req *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		r.writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return false
	}

	if err := validate.StructCtx(ctx, dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			r.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
			return false
		}
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = describeFieldError(fe)
		}
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "The request contains invalid fields.",
			Errors:  details,
		})
		return false
	}
	return true
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " is invalid"
	}
	return fe.Field() + " is invalid"
}

func conflictMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "+application.ErrAlreadyExists.Error()); i > 0 {
		return msg[:i]
	}
	return "The resource conflicts with an existing record."
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
