// Package server exposes the curation pipeline over HTTP so upstream
// extraction jobs and review dashboards do not need shell access to the CLI.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/reflectic/curation-cli/internal/cleanup"
	"github.com/reflectic/curation-cli/internal/config"
	"github.com/reflectic/curation-cli/internal/feedback"
	"github.com/reflectic/curation-cli/internal/intake"
	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
	"github.com/reflectic/curation-cli/internal/validate"
)

const maxBodyBytes = 4 << 20

// Server wires the pipeline components behind an HTTP API.
type Server struct {
	cfg      *config.Config
	store    store.Store
	importer *intake.Importer
	orch     *cleanup.Orchestrator
	reviewer *cleanup.Reviewer
	agg      *feedback.Aggregator
	limiter  *rate.Limiter
}

// New creates a Server over an already-opened store.
func New(cfg *config.Config, st store.Store, orch *cleanup.Orchestrator) *Server {
	burst := int(cfg.Server.RPS)
	if burst < 1 {
		burst = 1
	}
	return &Server{
		cfg:      cfg,
		store:    st,
		importer: intake.NewImporter(st),
		orch:     orch,
		reviewer: cleanup.NewReviewer(st),
		agg:      feedback.NewAggregator(st, cfg.Freshness, cfg.CrossSource),
		limiter:  rate.NewLimiter(rate.Limit(cfg.Server.RPS), burst),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/balance", s.handleBalance)
	r.Get("/review", s.handleReviewList)

	// Mutating routes share one token bucket so a misbehaving upstream
	// cannot starve the store.
	r.Group(func(r chi.Router) {
		r.Use(s.throttle)
		r.Post("/import", s.handleImport)
		r.Post("/feedback", s.handleFeedback)
		r.Post("/cleanup", s.handleCleanup)
		r.Post("/review/{flagID}/decision", s.handleReviewDecision)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.Int("port", s.cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	entries, err := intake.ParsePayload(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.importer.ImportBatch(r.Context(), entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		InsightID      string `json:"insight_id"`
		Rating         string `json:"rating"`
		Category       string `json:"category"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}
	if !model.KnownRating(req.Rating) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown rating %q", req.Rating))
		return
	}

	entry := &model.UserFeedback{
		ID:             uuid.NewString(),
		ConversationID: req.ConversationID,
		InsightID:      req.InsightID,
		Rating:         model.Rating(req.Rating),
		Category:       req.Category,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.AppendFeedback(r.Context(), entry, s.cfg.Feedback.MaxEntries); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	opts := cleanup.Options{
		AutoRemove:          s.cfg.Cleanup.AutoRemove,
		ConfidenceThreshold: s.cfg.Cleanup.ConfidenceThreshold,
		IncludeCrossSource:  s.cfg.Cleanup.IncludeCrossSource,
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&opts); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	report, err := s.orch.Run(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("last") != "" {
		m, err := s.store.LatestMetrics(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if m == nil {
			writeError(w, http.StatusNotFound, "no metrics snapshot computed yet")
			return
		}
		writeJSON(w, http.StatusOK, m)
		return
	}

	m, err := s.agg.ComputeMetrics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	corpus, err := s.store.ListInsights(r.Context(), store.InsightFilter{Status: model.StatusApproved})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, validate.ComputeBalance(corpus))
}

func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request) {
	flags, err := s.store.ListFlags(r.Context(), store.FlagFilter{Undecided: true})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if flags == nil {
		flags = []model.FlaggedInsight{}
	}
	writeJSON(w, http.StatusOK, flags)
}

func (s *Server) handleReviewDecision(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")

	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.KnownDecision(req.Decision) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown decision %q", req.Decision))
		return
	}

	if err := s.reviewer.Decide(r.Context(), flagID, model.Decision(req.Decision)); err != nil {
		if flag, getErr := s.store.GetFlag(r.Context(), flagID); getErr == nil && flag == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("flag not found: %s", flagID))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"flag_id": flagID, "decision": req.Decision})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
