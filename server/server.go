package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Chative-Sales-Assistant/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
)

type Config struct {
	Addr         string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	AuthToken    string        `envconfig:"AUTH_TOKEN" split_words:"true"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"60s"`
	TurnTimeout  time.Duration `envconfig:"TURN_TIMEOUT" split_words:"true" default:"45s"`
}

// TurnRunner is the part of the orchestrator the HTTP layer needs.
type TurnRunner interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (contractx.TurnResponse, error)
}

// Server exposes the assistant over HTTP. One POST per user turn.
type Server struct {
	cfg    Config
	runner TurnRunner
	http   *http.Server
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(cfg Config, runner TurnRunner) (*Server, error) {
	if runner == nil {
		return nil, errors.New("turn runner is required")
	}

	s := &Server{
		cfg:    cfg,
		runner: runner,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Heartbeat("/healthz"))
	r.Use(chimiddleware.Timeout(cfg.TurnTimeout + 5*time.Second))

	r.Route("/api", func(r chi.Router) {
		if strings.TrimSpace(cfg.AuthToken) != "" {
			r.Use(s.requireBearer)
		}
		r.Post("/messages", s.handleMessage)
	})

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: "content type must be application/json"})
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	ctx := r.Context()
	if s.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TurnTimeout)
		defer cancel()
	}

	resp, err := s.runner.HandleMessage(ctx, req.SessionID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrInvalidSession):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id is required"})
		case errors.Is(err, orchestrator.ErrInvalidMessage):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		default:
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("turn failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != s.cfg.AuthToken {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response failed")
	}
}
