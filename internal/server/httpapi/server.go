// Package httpapi is the HTTP transport: a chi router over the services,
// session cookie resolution, and the mapping of error kinds to status codes.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Services are the business operations the router calls into.
type Services struct {
	Identity    *services.IdentityService
	Conferences *services.ConferenceService
	Sessions    *services.SessionService
	Attendees   *services.AttendeeService
	Payments    *services.PaymentService
	Reports     *services.ReportService
	Uploads     *services.UploadService
}

type Server struct {
	cfg     *config.Config
	log     logging.Logger
	svc     Services
	metrics *Metrics
	mux     *chi.Mux
}

// NewServer builds the router. metrics may be nil, which disables
// collection and the /metrics endpoint.
func NewServer(cfg *config.Config, log logging.Logger, svc Services, metrics *Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log.With("module", "http_server"),
		svc:     svc,
		metrics: metrics,
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID, middleware.RealIP, logContext, s.accessLog, middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/health", s.handleHealth)
	// logout reads the cookie itself and must work without a resolvable identity
	r.Get("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.identify)

		r.Get("/", s.handleIndex)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/signup", s.handleSignupPage)
		r.Post("/signup", s.handleSignup)

		// page routes
		r.Group(func(r chi.Router) {
			r.Use(requirePage)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/profile", s.handleProfile)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/conference/{id}", s.handleConferenceReport)
				r.Post("/conference/{id}", s.handleConferenceReport)
				r.Get("/attendees/{id}", s.handleAttendeesReport)
				r.Get("/sessions/{id}", s.handleSessionsReport)
				r.Get("/download/{type}/{id}", s.handleDownloadReport)
			})
		})

		// API routes
		r.Group(func(r chi.Router) {
			r.Use(requireAPI)
			r.Get("/api/me", s.handleMe)

			r.Route("/conferences/api", func(r chi.Router) {
				r.Get("/create", s.handleConferenceForm)
				r.Post("/create", s.handleCreateConference)
				r.Get("/all", s.handleListConferences)
				r.Get("/{id}", s.handleGetConference)
				r.Put("/{id}", s.handleUpdateConference)
				r.Delete("/{id}", s.handleDeleteConference)
				r.Post("/{id}/join", s.handleJoinConference)
				r.Post("/{id}/leave", s.handleLeaveConference)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/create", s.handleCreateSession)
				r.Get("/conference/{conference_id}", s.handleListSessions)
				r.Get("/{id}", s.handleGetSession)
				r.Put("/{id}", s.handleUpdateSession)
				r.Post("/{id}/edit", s.handleUpdateSession)
				r.Delete("/{id}", s.handleDeleteSession)
				r.Post("/{id}/delete", s.handleDeleteSession)
				r.Post("/{id}/register", s.handleRegisterSession)
				r.Post("/{id}/unregister", s.handleUnregisterSession)
			})

			r.Post("/api/register-attendee", s.handleRegisterAttendee)
			r.Route("/attendees", func(r chi.Router) {
				r.Post("/", s.handleRegisterAttendee)
				r.Get("/", s.handleListAttendees)
				r.Get("/{id}", s.handleGetAttendee)
				r.Post("/{id}/sessions/{session_id}", s.handleAddAttendeeToSession)
				r.Delete("/{id}/sessions/{session_id}", s.handleRemoveAttendeeFromSession)
			})

			r.Route("/payment", func(r chi.Router) {
				r.Post("/initiate", s.handleInitiatePayment)
				r.Post("/process", s.handleProcessPayment)
				r.Get("/status/{id}", s.handlePaymentStatus)
				r.Get("/history", s.handlePaymentHistory)
				r.Post("/refund/{id}", s.handleRefundPayment)
			})

			r.Route("/api/upload", func(r chi.Router) {
				r.Post("/upload-paper", s.handleUpload(services.UploadPapers))
				r.Post("/upload-certificate", s.handleUpload(services.UploadCertificates))
			})
		})
	})
}

// Run serves on cfg.HTTPAddr until ctx is cancelled, then shuts down within
// cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
