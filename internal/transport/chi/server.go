// Package chi is the HTTP transport: request decoding, error mapping,
// and response marshaling around the analysis and matching usecases.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/homies-app/matchsvc/internal/domain"
	analysisuc "github.com/homies-app/matchsvc/internal/usecase/analysis"
	healthuc "github.com/homies-app/matchsvc/internal/usecase/health"
	matchuc "github.com/homies-app/matchsvc/internal/usecase/match"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	analysis      *analysisuc.Service
	matches       *matchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	analysis *analysisuc.Service,
	matches *matchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		analysis: analysis,
		matches:  matches,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInsufficientSignal, http.StatusUnprocessableEntity, codeInsufficientSignal),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnknownModality, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrAnalyzerUnavailable, http.StatusBadGateway, codeAnalyzerUnavailable),
	}
	return s
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.Health)
	r.Post("/v1/match", s.Match)
	r.Post("/v1/analyze", s.Analyze)
}

// Root handles GET / with a liveness banner.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "matchsvc is running",
		"status":  "healthy",
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: string(report.Status), Checks: checks})
}

// Match handles POST /v1/match: analyzes both subjects' raw evidence and
// computes the compatibility score.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SubjectA.ID == "" || req.SubjectB.ID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "both subject ids are required")
		return
	}
	if req.SubjectA.ID == req.SubjectB.ID {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "subjects must be distinct")
		return
	}

	start := time.Now()
	ctx := r.Context()

	bundlesA, err := s.analysis.AnalyzeSubject(ctx, req.SubjectA.ID, profileFromDTO(req.SubjectA))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	bundlesB, err := s.analysis.AnalyzeSubject(ctx, req.SubjectB.ID, profileFromDTO(req.SubjectB))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	result, err := s.matches.ComputeMatch(bundlesA, bundlesB)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, matchResultToDTO(&result, time.Since(start).Milliseconds()))
}

// Analyze handles POST /v1/analyze: produces one subject's per-modality
// bundles. Absent modalities are simply missing from the response.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Subject.ID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "subject id is required")
		return
	}

	bundles, err := s.analysis.AnalyzeSubject(r.Context(), req.Subject.ID, profileFromDTO(req.Subject))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		SubjectID: req.Subject.ID,
		Bundles:   bundlesToDTO(bundles),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals. Schema mismatches deliberately stay
// internal: they are upstream analyzer bugs, not client errors.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInsufficientSignal,
		domain.ErrInvalidInput,
		domain.ErrUnknownModality,
		domain.ErrAnalyzerUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
