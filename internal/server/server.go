package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/user/wagerwiz/internal/chat"
	"github.com/user/wagerwiz/internal/history"
)

// Responder starts a response stream for a conversation.
type Responder interface {
	Respond(ctx context.Context, conv []chat.Message) (<-chan chat.Event, error)
}

// Options configures a Server.
type Options struct {
	Responder Responder
	Store     history.ExchangeStore
	Log       *zap.Logger
	Owner     string
	// MaxConcurrent caps in-flight chat requests. Zero means 8.
	MaxConcurrent int64
}

// Server exposes the chat pipeline over HTTP: a streaming chat endpoint,
// conversation history, and a liveness probe.
type Server struct {
	responder Responder
	store     history.ExchangeStore
	log       *zap.Logger
	owner     string
	sem       *semaphore.Weighted
	router    chi.Router
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	if opts.Owner == "" {
		opts.Owner = history.GuestOwner
	}

	s := &Server{
		responder: opts.Responder,
		store:     opts.Store,
		log:       opts.Log,
		owner:     opts.Owner,
		sem:       semaphore.NewWeighted(opts.MaxConcurrent),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/history", s.handleHistory)
	r.Get("/health", s.handleHealth)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

// streamFrame is one server-sent event payload on the chat stream.
type streamFrame struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`
	Tool  string `json:"tool,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := chat.ValidateConversation(req.Messages); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		// Client gave up while queued.
		return
	}
	defer s.sem.Release(1)

	events, err := s.responder.Respond(ctx, req.Messages)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chat.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	s.streamEvents(w, events)
}

// streamEvents relays orchestrator events as server-sent events. Headers
// are written lazily so a failure before the first event can still map to
// a plain HTTP error status.
func (s *Server) streamEvents(w http.ResponseWriter, events <-chan chat.Event) {
	flusher, _ := w.(http.Flusher)
	headersSent := false

	send := func(frame streamFrame) {
		if !headersSent {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			headersSent = true
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			s.log.Error("stream frame marshal failed", zap.Error(err))
			return
		}
		w.Write([]byte("data: "))
		w.Write(payload)
		w.Write([]byte("\n\n"))
		if flusher != nil {
			flusher.Flush()
		}
	}

	for ev := range events {
		switch ev.Kind {
		case chat.EventTextDelta:
			send(streamFrame{Type: "text-delta", Delta: ev.TextDelta})
		case chat.EventToolCall:
			send(streamFrame{Type: "tool-call", Tool: ev.Tool})
		case chat.EventToolResult:
			send(streamFrame{Type: "tool-result", Tool: ev.Tool})
		case chat.EventDone:
			send(streamFrame{Type: "done"})
		case chat.EventError:
			if !headersSent {
				status := http.StatusInternalServerError
				if errors.Is(ev.Err, chat.ErrRequestTimeout) {
					status = http.StatusRequestTimeout
				}
				http.Error(w, ev.Err.Error(), status)
				headersSent = true
				continue
			}
			send(streamFrame{Type: "error", Error: ev.Err.Error()})
		}
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	exchanges, err := s.store.ListByOwner(r.Context(), s.owner)
	if err != nil {
		s.log.Error("history listing failed", zap.Error(err))
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, chat.HydrateHistory(exchanges))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encoding failed", zap.Error(err))
	}
}
