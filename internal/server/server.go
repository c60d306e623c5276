package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/partyshah/ai-math-tutor/internal/artifacts"
	"github.com/partyshah/ai-math-tutor/internal/deck"
	"github.com/partyshah/ai-math-tutor/internal/feedback"
	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/store"
	"github.com/partyshah/ai-math-tutor/internal/tutor"
)

// maxUploadBytes bounds multipart request bodies. Recordings of long
// presentations dominate the payload.
const maxUploadBytes = 100 << 20

// FeedbackGenerator runs the presentation-feedback pipeline. Implemented by
// feedback.Pipeline.
type FeedbackGenerator interface {
	Generate(ctx context.Context, req feedback.GenerateRequest) (*feedback.Report, error)
}

// Transcriber converts an uploaded audio blob to text. Implemented by the
// speech-to-text client.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Sweeper removes expired session artifacts. Implemented by artifacts.Store.
type Sweeper interface {
	Sweep(maxAge time.Duration) (artifacts.SweepResult, error)
}

// Options wires the server to its collaborators.
type Options struct {
	Bind      string
	Store     *store.Store
	Tutor     *tutor.Service
	STT       Transcriber
	Decks     *deck.Service
	Artifacts *artifacts.Store
	Pipeline  FeedbackGenerator
	Sweeper   Sweeper
	// SessionMaxAge controls how old artifact sessions must be before the
	// cleanup endpoint removes them.
	SessionMaxAge time.Duration
	Logger        *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	bind   string
	logger *slog.Logger

	store     *store.Store
	tutor     *tutor.Service
	stt       Transcriber
	decks     *deck.Service
	artifacts *artifacts.Store
	pipeline  FeedbackGenerator
	sweeper   Sweeper
	maxAge    time.Duration

	listener net.Listener
	server   *http.Server
}

// New constructs the server and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:      opts.Bind,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		store:     opts.Store,
		tutor:     opts.Tutor,
		stt:       opts.STT,
		decks:     opts.Decks,
		artifacts: opts.Artifacts,
		pipeline:  opts.Pipeline,
		sweeper:   opts.Sweeper,
		maxAge:    opts.SessionMaxAge,
	}
	if s.maxAge <= 0 {
		s.maxAge = 24 * time.Hour
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/session/create", s.handleCreateSession)
	mux.HandleFunc("PATCH /api/session/{id}", s.handlePatchSession)
	mux.HandleFunc("POST /api/session/{id}/conversations", s.handleAddConversations)
	mux.HandleFunc("PUT /api/session/{id}/reviewed", s.handleMarkReviewed)

	mux.HandleFunc("GET /api/professor/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/professor/session/{id}", s.handleSessionDetail)

	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /api/assignments", s.handleListAssignments)
	mux.HandleFunc("GET /api/assignments/{filename}", s.handleAssignmentFile)
	mux.HandleFunc("POST /api/assignments/{filename}/slides", s.handleAssignmentSlides)
	mux.HandleFunc("POST /api/process-upload", s.handleProcessUpload)

	mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	mux.HandleFunc("GET /api/slide-image/{session}/{slide}", s.handleSlideImage)
	mux.HandleFunc("GET /api/audio-segment/{session}/{slide}", s.handleAudioSegment)
	mux.HandleFunc("POST /api/cleanup", s.handleCleanup)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the route table for in-process testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured bind address and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// pathID parses a numeric path segment, writing a 400 on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
