package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/logging"
)

// PrincipalResolver maps a verified token subject to the caller's current
// level and memberships.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, subject string) (application.Principal, error)
}

// IdentityConfig describes how identity provider tokens are verified. Issuer
// and Audience are checked only when set.
type IdentityConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

func (c IdentityConfig) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.Leeway),
	}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}
	if c.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.Audience))
	}
	return opts
}

// RequireIdentity verifies the bearer token on each request and attaches the
// resolved principal to the request context.
func RequireIdentity(resolver PrincipalResolver, cfg IdentityConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)
	parser := jwt.NewParser(cfg.parserOptions()...)
	keyFunc := func(*jwt.Token) (any, error) { return cfg.Secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := bearerToken(r)
			if raw == "" {
				responder.writeError(ctx, w, http.StatusUnauthorized, errMissingIdentity)
				return
			}

			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				responder.loggerFor(ctx).WarnContext(ctx, "token rejected", "error", err)
				responder.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_INVALID", Message: errInvalidIdentity.Error()})
				return
			}

			principal, err := resolver.ResolvePrincipal(ctx, claims.Subject)
			if err != nil {
				switch {
				case errors.Is(err, application.ErrUnauthenticated):
					responder.loggerFor(ctx).WarnContext(ctx, "unknown identity", "subject", claims.Subject)
					responder.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_REQUIRED", Message: errUnknownIdentity.Error()})
				default:
					responder.loggerFor(ctx).ErrorContext(ctx, "failed to resolve principal", "error", err)
					responder.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "An internal server error occurred."})
				}
				return
			}

			ctx = ContextWithPrincipal(ctx, principal)
			if logger := logging.FromContext(ctx); logger != nil {
				ctx = logging.ContextWithLogger(ctx, logger.With("principal_id", principal.UserID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequestLogger attaches a request scoped logger and logs each request's
// start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", recorder.statusCode(), "duration", time.Since(start))
		})
	}
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) statusCode() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
