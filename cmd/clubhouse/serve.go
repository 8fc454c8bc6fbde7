package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/config"
	httptransport "github.com/example/clubhouse/internal/http"
	"github.com/example/clubhouse/internal/persistence/sqlite"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := flags.open(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.close()

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", e.cfg.HTTPPort),
				Handler:           newHandler(e.cfg, e.storage, e.logger),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			return run(ctx, server, e.cfg.ShutdownTimeout, e.logger)
		},
	}
}

// newHandler wires every service and handler over storage.
func newHandler(cfg config.Config, storage *sqlite.Storage, logger *slog.Logger) http.Handler {
	idGenerator := uuid.NewString
	now := time.Now

	userService := application.NewUserServiceWithLogger(storage, storage, idGenerator, now, logger)
	clubService := application.NewClubServiceWithLogger(storage, storage, idGenerator, now, logger)
	appointmentService := application.NewAppointmentServiceWithLogger(storage, storage, storage, cfg.Calendar(), cfg.Location, idGenerator, now, logger)
	addressService := application.NewAddressServiceWithLogger(storage, storage, storage, idGenerator, now, logger)
	consistService := application.NewConsistServiceWithLogger(storage, storage, storage, idGenerator, now, logger)
	issueService := application.NewIssueServiceWithLogger(storage, idGenerator, now, logger)
	noticeService := application.NewNoticeServiceWithLogger(storage, idGenerator, now, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Users:        httptransport.NewUserHandler(userService, logger),
		Clubs:        httptransport.NewClubHandler(clubService, logger),
		Appointments: httptransport.NewAppointmentHandler(appointmentService, logger),
		Addresses:    httptransport.NewAddressHandler(addressService, logger),
		Consists:     httptransport.NewConsistHandler(consistService, logger),
		Issues:       httptransport.NewIssueHandler(issueService, logger),
		Notices:      httptransport.NewNoticeHandler(noticeService, logger),
		Identity: httptransport.RequireIdentity(userService, httptransport.IdentityConfig{
			Secret:   []byte(cfg.Auth.Secret),
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
			Leeway:   cfg.Auth.Leeway,
		}, logger),
		Metrics:    httptransport.NewMetrics(registry),
		Health:     storage.Ping,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errs := make(chan error, 1)
	go func() {
		logger.Info("clubhouse API listening", "addr", server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server encountered error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
