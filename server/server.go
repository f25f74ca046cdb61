// Package server exposes the analysis engine over HTTP: batch compare
// and analyze endpoints, stored submissions, metrics, and a websocket
// for scoring a performance while it is still being played.
package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/seejho/etude/compare"
	"github.com/seejho/etude/feedback"
	"github.com/seejho/etude/model"
	"github.com/seejho/etude/report"
	"github.com/seejho/etude/rhythm"
	"github.com/seejho/etude/segment"
	"github.com/seejho/etude/store"
	"github.com/seejho/etude/stream"
)

// defaultListLimit caps the submission listing when the client does not
// ask for a specific page size.
const defaultListLimit = 50

// Server ties the pipeline to its HTTP surface. The feedback client is
// optional; when nil, want_feedback requests score normally but come
// back without commentary.
type Server struct {
	log   *zap.Logger
	store *store.Store
	ai    feedback.Client
	stats *Stats
	cfg   compare.Config
}

// Option adjusts a Server at construction time.
type Option func(*Server)

// WithCompareConfig replaces the default scoring thresholds.
func WithCompareConfig(cfg compare.Config) Option {
	return func(s *Server) { s.cfg = cfg }
}

func New(log *zap.Logger, st *store.Store, ai feedback.Client, opts ...Option) *Server {
	s := &Server{
		log:   log,
		store: st,
		ai:    ai,
		stats: NewStats(),
		cfg:   compare.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router assembles the handler chain: CORS around request logging
// around the mux.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/compare", s.handleCompare).Methods("POST")
	api.HandleFunc("/analyze", s.handleAnalyze).Methods("POST")
	api.HandleFunc("/submissions", s.handleListSubmissions).Methods("GET")
	api.HandleFunc("/submissions/{id}", s.handleGetSubmission).Methods("GET")
	api.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	api.HandleFunc("/live", s.handleLive).Methods("GET")

	router.Handle("/metrics", s.stats.Handler()).Methods("GET")

	return cors.Default().Handler(s.requestLogger(router))
}

func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req model.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	reference, err := stream.Sanitize(req.Reference)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reference stream: %v", err))
		return
	}
	player, err := stream.Sanitize(req.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("player stream: %v", err))
		return
	}

	referenceName := req.ReferenceName
	if referenceName == "" {
		referenceName = "reference"
	}
	playerName := req.PlayerName
	if playerName == "" {
		playerName = "player"
	}

	segCfg := segment.DefaultConfig()
	referenceNotes := segment.Notes(reference.PitchHz, reference.OnsetTimes, segCfg)
	playerNotes := segment.Notes(player.PitchHz, player.OnsetTimes, segCfg)
	referenceRhythm := rhythm.Analyze(reference.OnsetTimes)
	playerRhythm := rhythm.Analyze(player.OnsetTimes)

	metrics := compare.Notes(referenceNotes, playerNotes, referenceRhythm, playerRhythm, s.cfg)

	referenceAnalysis := report.Assemble(referenceName, reference, referenceNotes, referenceRhythm)
	playerAnalysis := report.Assemble(playerName, player, playerNotes, playerRhythm)
	raw, err := json.Marshal(report.Compact(playerAnalysis, &referenceAnalysis, &metrics))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode report")
		return
	}

	sub := model.Submission{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		ReferenceName: referenceName,
		PlayerName:    playerName,
		Metrics:       metrics,
		Report:        raw,
	}
	if req.WantFeedback && s.ai != nil {
		fb, err := s.ai.Comparison(r.Context(), metrics, referenceName, playerName)
		if err != nil {
			s.log.Warn("feedback unavailable", zap.Error(err))
		} else {
			sub.Feedback = fb
		}
	}
	if err := s.store.PutSubmission(sub); err != nil {
		s.log.Error("store submission", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store submission")
		return
	}

	s.stats.Comparisons.Inc()
	s.stats.Similarity.Observe(metrics.OverallSimilarity)

	writeJSON(w, http.StatusOK, model.CompareResponse{
		ID:       sub.ID,
		Metrics:  metrics,
		Report:   raw,
		Feedback: sub.Feedback,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	fs, err := stream.Sanitize(req.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("stream: %v", err))
		return
	}
	name := req.Name
	if name == "" {
		name = "recording"
	}

	notes := segment.Notes(fs.PitchHz, fs.OnsetTimes, segment.DefaultConfig())
	pattern := rhythm.Analyze(fs.OnsetTimes)
	raw, err := json.Marshal(report.Compact(report.Assemble(name, fs, notes, pattern), nil, nil))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode report")
		return
	}

	writeJSON(w, http.StatusOK, model.AnalyzeResponse{
		Notes:  notes,
		Rhythm: pattern,
		Report: raw,
	})
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sub, err := s.store.GetSubmission(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		s.log.Error("get submission", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load submission")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.store.ListSubmissions(limit)
	if err != nil {
		s.log.Error("list submissions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &respWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		elapsed := time.Since(started)

		s.stats.Requests.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rw.status)).
			Observe(elapsed.Seconds())
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}

// respWriter captures the status code for logging and metrics.
type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack forwards to the wrapped writer so the websocket upgrade on
// /api/v1/live works through the logging middleware.
func (w *respWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying writer does not support hijacking")
	}
	return hj.Hijack()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, model.ErrorResponse{Error: detail})
}
