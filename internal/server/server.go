// Package server exposes the matcher, scorer and commentary orchestrator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/abdulachik/fathom/internal/commentary"
	"github.com/abdulachik/fathom/internal/generator"
	"github.com/abdulachik/fathom/internal/relevance"
	"github.com/abdulachik/fathom/internal/tier"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// Config holds configuration for the HTTP server.
type Config struct {
	Orchestrator *commentary.Orchestrator
	Annotations  *annotation.Corpus
	Health       *Health
	CORSOrigins  []string
}

// Server serves the reading API.
type Server struct {
	orchestrator *commentary.Orchestrator
	sessions     *commentary.Sessions
	annotations  *annotation.Corpus
	health       *Health
	handler      http.Handler
}

// New creates a new Server and its routes.
func New(cfg Config) *Server {
	if cfg.Orchestrator == nil {
		cfg.Orchestrator = commentary.New(commentary.Config{})
	}
	if cfg.Annotations == nil {
		cfg.Annotations = annotation.Empty()
	}
	if cfg.Health == nil {
		cfg.Health = NewHealth()
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		orchestrator: cfg.Orchestrator,
		sessions:     commentary.NewSessions(cfg.Orchestrator),
		annotations:  cfg.Annotations,
		health:       cfg.Health,
	}

	router := mux.NewRouter()
	router.Use(requestLogger)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scenes", s.handleScenes).Methods(http.MethodGet)
	api.HandleFunc("/scenes/{scene}/lines", s.handleSceneLines).Methods(http.MethodGet)
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/context", s.handleContext).Methods(http.MethodPost)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})

	s.handler = corsHandler.Handler(router)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type healthResponse struct {
	Status     string                  `json:"status"`
	Components map[string]HealthStatus `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Components: s.health.Snapshot()}
	status := http.StatusOK
	if !s.health.IsOverallHealthy() {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type sceneSummary struct {
	Scene string `json:"scene"`
	Lines int    `json:"lines"`
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes := s.annotations.Scenes()
	out := make([]sceneSummary, 0, len(scenes))
	for _, scene := range scenes {
		lines, _ := s.annotations.Lines(scene)
		out = append(out, sceneSummary{Scene: scene, Lines: len(lines)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSceneLines(w http.ResponseWriter, r *http.Request) {
	scene := mux.Vars(r)["scene"]
	lines, ok := s.annotations.Lines(scene)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown scene: "+scene)
		return
	}
	if lines == nil {
		lines = []annotation.AnnotatedLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

type analyzeRequest struct {
	Text             string              `json:"text"`
	Tier             string              `json:"tier"`
	Scene            string              `json:"scene"`
	FollowUp         string              `json:"followUp,omitempty"`
	PreviousAnalysis []generator.Section `json:"previousAnalysis,omitempty"`
	SessionID        string              `json:"sessionId,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := tier.Parse(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel := commentary.Selection{
		Text:             req.Text,
		Scene:            req.Scene,
		Tier:             t,
		FollowUp:         req.FollowUp,
		PreviousAnalysis: req.PreviousAnalysis,
	}

	var out *commentary.Outcome
	if req.SessionID != "" {
		out, err = s.sessions.Get(req.SessionID).Analyze(r.Context(), sel)
	} else {
		out, err = s.orchestrator.Analyze(r.Context(), sel)
	}

	switch {
	case errors.Is(err, commentary.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, commentary.ErrInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Debug("analysis complete",
			"request_id", RequestID(r.Context()),
			"analysis_id", out.ID,
			"state", out.State,
		)
		writeJSON(w, http.StatusOK, out)
	}
}

type contextRequest struct {
	Text string `json:"text"`
	Tier string `json:"tier"`
}

type contextResponse struct {
	Available bool                    `json:"available"`
	Context   string                  `json:"context,omitempty"`
	Passages  []relevance.ScoredVerse `json:"passages"`
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := tier.Parse(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	passages := s.orchestrator.Passages(req.Text, t)
	if passages == nil {
		passages = []relevance.ScoredVerse{}
	}

	writeJSON(w, http.StatusOK, contextResponse{
		Available: len(passages) > 0,
		Context:   relevance.FormatPassages(passages),
		Passages:  passages,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}
