package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"pairline/config"
	"pairline/metrics"
	"pairline/realtime"
	"pairline/service"
)

// Server is the HTTP surface of the coordination core
type Server struct {
	httpServer *http.Server
}

// NewServer wires the services and the realtime hub into a configured
// HTTP server. It does not start listening.
func NewServer(
	cfg *config.Config,
	matchmaker service.MatchmakerService,
	presence service.PresenceService,
	moderation service.ModerationService,
	hub *realtime.Hub,
) *Server {
	authenticator := NewAuthenticator(cfg.JWTSecret)
	h := &handlers{
		matchmaker: matchmaker,
		presence:   presence,
		moderation: moderation,
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      NewRouter(cfg, authenticator, h, hub),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// NewRouter builds the route tree. Split out from NewServer so handler
// tests can mount it without binding a listener.
func NewRouter(cfg *config.Config, authenticator *Authenticator, h *handlers, hub *realtime.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Display-only mirror; carries no caller-specific data
	if hub != nil {
		r.Get("/ws/rooms", hub.HandleWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticator.Middleware)

		r.Route("/match", func(r chi.Router) {
			r.Post("/find", h.findMatch)
			r.Post("/stop", h.stopSearch)
			r.Post("/{id}/end", h.endMatch)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", h.createRoom)
			r.Get("/", h.listRooms)
			r.Post("/{id}/join", h.joinRoom)
			r.Post("/{id}/leave", h.leaveRoom)
			r.Post("/{id}/touch", h.touchPresence)
		})

		r.Post("/reports", h.createReport)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/bans", h.createBan)
			r.Delete("/bans/{userID}", h.deleteBans)
			r.Get("/bans/check", h.checkBan)
			r.Get("/reports", h.listReports)
			r.Post("/matches/end", h.endMatchForUser)
			r.Post("/codes", h.generateCodes)
		})
	})

	return r
}

// Start begins serving and blocks until the listener fails or is shut down
func (s *Server) Start() error {
	log.WithFields(log.Fields{
		"addr": s.httpServer.Addr,
	}).Info("HTTP server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
