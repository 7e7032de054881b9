// Package server exposes the inbound HTTP surface: the Moneybird webhook
// endpoint and the Slack interactivity endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/internal/worker"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
)

// Processor applies document pipeline runs and callback decisions. It is
// satisfied by *bot.Processor; tests substitute a fake.
type Processor interface {
	ProcessDocument(ctx context.Context, kind document.Kind, documentID string) error
	Book(ctx context.Context, kind document.Kind, documentID, channelID, timestamp string) error
	Skip(ctx context.Context, kind document.Kind, documentID, channelID, timestamp string) error
	LinkPayment(ctx context.Context, kind document.Kind, documentID, mutationID, channelID, timestamp string) error
}

// Server routes inbound webhook and interactivity requests, verifies
// them, and dispatches work to the background pool. It never blocks a
// caller on downstream completion.
type Server struct {
	processor     Processor
	pool          *worker.Pool
	signingSecret string
	logger        *slog.Logger
	router        chi.Router
}

// New creates a Server with its routes and middleware configured.
func New(processor Processor, pool *worker.Pool, signingSecret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		processor:     processor,
		pool:          pool,
		signingSecret: signingSecret,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)

	// Moneybird sends a GET to verify the URL on registration.
	r.Get("/webhook", s.handleWebhookVerify)
	r.Post("/webhook", s.handleWebhook)

	r.Post("/slack/actions", s.handleSlackActions)

	s.router = r
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}
