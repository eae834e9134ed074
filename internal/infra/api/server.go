package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"interview-analysis/internal/domain"
	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/infra/logging"
	"interview-analysis/internal/infra/presenter"
	"interview-analysis/internal/usecase"
)

const (
	// maximum accepted request body
	maxBody = 1 << 20

	defaultRequestTimeout = 5 * time.Second
)

// Server is the local console over one orchestrator and its history.
type Server struct {
	analysis usecase.AnalysisUseCase
	history  usecase.HistoryUseCase
	limit    Middleware
	timeout  time.Duration
	log      *zerolog.Logger
}

func NewServer(analysis usecase.AnalysisUseCase, history usecase.HistoryUseCase, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "ConsoleAPI").Logger()
	return &Server{analysis: analysis, history: history, timeout: defaultRequestTimeout, log: &l}
}

// WithRequestTimeout bounds every route except submission, which waits on
// the remote service under its own timeout.
func (s *Server) WithRequestTimeout(d time.Duration) *Server {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithSubmitLimit rate-limits job submissions only.
func (s *Server) WithSubmitLimit(mw Middleware) *Server {
	s.limit = mw
	return s
}

// Routes builds the router with trace, log and recover middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		submit := http.Handler(http.HandlerFunc(s.submitJob))
		if s.limit != nil {
			submit = s.limit(submit)
		}
		r.Method(http.MethodPost, "/jobs", submit)

		r.Group(func(r chi.Router) {
			r.Use(Timeout(s.timeout))
			r.Get("/jobs/current", s.currentJob)
			r.Delete("/jobs/current", s.cancelJob)
			r.Get("/history", s.listHistory)
			r.Delete("/history", s.clearHistory)
		})
	})
	return r
}

type viewResponse struct {
	model.JobView
	Outcome json.RawMessage `json:"outcome,omitempty"`
}

func (s *Server) render(v model.JobView) viewResponse {
	resp := viewResponse{JobView: v}
	if v.Outcome != nil {
		doc, err := presenter.Document(*v.Outcome)
		if err != nil {
			s.log.Error().Err(err).Msg("render outcome")
		} else {
			resp.Outcome = doc
		}
	}
	return resp
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req model.JobRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	_, err := s.analysis.Submit(r.Context(), req)
	view := s.analysis.View()
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, s.render(view))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, s.render(view))
	case errors.Is(err, domain.ErrJobSuperseded), errors.Is(err, domain.ErrJobCancelled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("submission failed")
		writeJSON(w, http.StatusBadGateway, s.render(view))
	}
}

func (s *Server) currentJob(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.render(s.analysis.View()))
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	s.analysis.Shutdown()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.history.List()})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(r.Context()); err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("clear history")
		writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
