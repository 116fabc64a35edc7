// Package api exposes the HTTP surface: the call webhook, profile and
// conversation reads and edits, and outbound call requests.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/factfind/internal/processor"
	"github.com/MikeSquared-Agency/factfind/internal/profile"
	"github.com/MikeSquared-Agency/factfind/internal/store"
)

type Store interface {
	GetProfile(ctx context.Context, userID string) (json.RawMessage, error)
	SaveProfile(ctx context.Context, p *profile.FinancialProfile) error
	FindProfiles(ctx context.Context, filters []store.Filter, sort *store.Sort, page store.Page) (store.Result, error)
	GetConversation(ctx context.Context, conversationID string) (json.RawMessage, error)
	FindConversations(ctx context.Context, filters []store.Filter, sort *store.Sort, page store.Page) (store.Result, error)
}

type WebhookHandler interface {
	HandleWebhook(ctx context.Context, body []byte) (processor.Result, error)
}

type Caller interface {
	Configured() bool
	OutboundCall(ctx context.Context, toNumber string) (json.RawMessage, error)
}

// Deps are the collaborators behind the routes. Calls may be nil, in which
// case outbound calls report the platform as not configured.
type Deps struct {
	Store         Store
	Webhooks      WebhookHandler
	Calls         Caller
	WebhookSecret string
}

type Server struct {
	router *chi.Mux
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
	http   *http.Server
}

func NewServer(port int, deps Deps, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		deps:   deps,
		logger: logger,
		now:    time.Now,
	}

	router.Get("/health", s.health)
	router.Post("/webhooks/holly-conversation", s.hollyConversation)

	router.Route("/profiles", func(r chi.Router) {
		r.Post("/", s.createProfile)
		r.Get("/", s.listProfiles)
		r.Get("/search/by-name", s.profilesByName)
		r.Get("/search/by-status", s.profilesByStatus)
		r.Get("/search/by-employment", s.profilesByEmployment)
		r.Get("/search/by-net-worth-range", s.profilesByNetWorth)
		r.Get("/search/by-risk-attitude", s.profilesByRiskAttitude)
		r.Get("/search/by-income-range", s.profilesByIncome)
		r.Get("/{user_id}", s.getProfile)
		r.Put("/{user_id}", s.updateProfile)
	})

	router.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.listConversations)
		r.Get("/user/{user_id}", s.conversationsByUser)
		r.Get("/search/by-status", s.conversationsByStatus)
		r.Get("/search/by-agent", s.conversationsByAgent)
		r.Get("/search/by-date-range", s.conversationsByDateRange)
		r.Get("/{conversation_id}", s.getConversation)
	})

	router.Post("/calls/outbound", s.outboundCall)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
