package http

import (
	"context"
	"net/http"
)

type RouterConfig struct {
	Users        *UserHandler
	Clubs        *ClubHandler
	Appointments *AppointmentHandler
	Addresses    *NumberedHandler
	Consists     *NumberedHandler
	Issues       *IssueHandler
	Notices      *NoticeHandler
	// Identity guards every route except hours, durations, health and metrics.
	Identity   func(http.Handler) http.Handler
	Metrics    *Metrics
	Health     func(ctx context.Context) error
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.Identity == nil {
			return h
		}
		return cfg.Identity(h)
	}

	if cfg.Appointments != nil {
		mux.HandleFunc("GET /hours", cfg.Appointments.Hours)
		mux.HandleFunc("GET /durations", cfg.Appointments.Durations)
		mux.Handle("GET /appointments", protect(cfg.Appointments.List))
		mux.Handle("POST /appointments", protect(cfg.Appointments.Create))
		mux.Handle("GET /appointments/{id}", protect(cfg.Appointments.Get))
		mux.Handle("PUT /appointments/{id}", protect(cfg.Appointments.Update))
		mux.Handle("DELETE /appointments/{id}", protect(cfg.Appointments.Delete))
	}

	if cfg.Users != nil {
		mux.Handle("GET /me", protect(cfg.Users.Me))
		mux.Handle("GET /users", protect(cfg.Users.List))
		mux.Handle("POST /users", protect(cfg.Users.Create))
		mux.Handle("PUT /users/{id}/permission", protect(cfg.Users.SetPermission))
	}

	if cfg.Clubs != nil {
		mux.Handle("GET /clubs", protect(cfg.Clubs.List))
		mux.Handle("POST /clubs", protect(cfg.Clubs.Create))
		mux.Handle("GET /clubs/{id}", protect(cfg.Clubs.Get))
		mux.Handle("PUT /clubs/{id}", protect(cfg.Clubs.Update))
		mux.Handle("DELETE /clubs/{id}", protect(cfg.Clubs.Delete))
		mux.Handle("GET /clubs/{id}/members", protect(cfg.Clubs.ListMembers))
		mux.Handle("POST /clubs/{id}/members", protect(cfg.Clubs.AddMember))
		mux.Handle("DELETE /clubs/{id}/members/{userID}", protect(cfg.Clubs.RemoveMember))
	}

	numbered := func(prefix string, h *NumberedHandler) {
		if h == nil {
			return
		}
		mux.Handle("GET "+prefix, protect(h.List))
		mux.Handle("POST "+prefix, protect(h.Create))
		mux.Handle("GET "+prefix+"/{id}", protect(h.Get))
		mux.Handle("PUT "+prefix+"/{id}", protect(h.Update))
		mux.Handle("DELETE "+prefix+"/{id}", protect(h.Delete))
	}
	numbered("/addresses", cfg.Addresses)
	numbered("/consists", cfg.Consists)

	if cfg.Issues != nil {
		mux.Handle("GET /issues", protect(cfg.Issues.List))
		mux.Handle("POST /issues", protect(cfg.Issues.Create))
		mux.Handle("GET /issues/{id}", protect(cfg.Issues.Get))
		mux.Handle("PUT /issues/{id}", protect(cfg.Issues.Update))
		mux.Handle("DELETE /issues/{id}", protect(cfg.Issues.Delete))
	}

	if cfg.Notices != nil {
		mux.Handle("GET /notices", protect(cfg.Notices.List))
		mux.Handle("POST /notices", protect(cfg.Notices.Create))
		mux.Handle("GET /notices/{id}", protect(cfg.Notices.Get))
		mux.Handle("PUT /notices/{id}", protect(cfg.Notices.Update))
		mux.Handle("DELETE /notices/{id}", protect(cfg.Notices.Delete))
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := cfg.Health(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	var handler http.Handler = cfg.Metrics.Middleware(mux)
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
