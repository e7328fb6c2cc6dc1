package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/pipeline"
	"github.com/mab-007/elrond-stock-analyzer-be/internal/store"
)

// Runner triggers a screen for a date. The server serializes runs; a
// request that arrives while one is in flight gets 409.
type Runner interface {
	Run(ctx context.Context, date time.Time, opts pipeline.RunOptions) (pipeline.RunOutcome, error)
}

type Server struct {
	runner Runner
	store  *store.Store

	mu      sync.Mutex
	running bool
}

func NewServer(runner Runner, st *store.Store) http.Handler {
	s := &Server{runner: runner, store: st}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/runs", s.handleRuns)
	mux.HandleFunc("/v1/predictions", s.handlePredictions)
	mux.HandleFunc("/v1/predictions/latest", s.handleLatest)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"ok":    false,
		"error": map[string]any{"message": message},
	})
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// parseRunDate accepts YYYY-MM-DD; empty means today.
func parseRunDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now(), true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Server) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func parseRunOptions(r *http.Request) (pipeline.RunOptions, string) {
	var opts pipeline.RunOptions
	q := r.URL.Query()
	if cutoff := strings.TrimSpace(q.Get("cutoff")); cutoff != "" {
		if _, err := time.Parse("15:04:05", cutoff); err != nil {
			return opts, "cutoff must be HH:MM:SS"
		}
		opts.Cutoff = cutoff
	}
	for param, dst := range map[string]*float64{
		"mcapStart": &opts.MarketCapMin,
		"mcapEnd":   &opts.MarketCapMax,
	} {
		raw := strings.TrimSpace(q.Get(param))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return opts, param + " must be a positive number"
		}
		*dst = v
	}
	return opts, ""
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	date, ok := parseRunDate(r.URL.Query().Get("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	opts, problem := parseRunOptions(r)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}
	if !s.tryAcquire() {
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	defer s.release()

	outcome, err := s.runner.Run(r.Context(), date, opts)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		// The scheduler triggers runs outside this server, so the pipeline
		// can be busy even when our own gate was free.
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Printf("httpapi: run %s failed at %s: %v",
			date.Format("2006-01-02"), pipeline.StageNameFromError(err), err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "run": outcome})
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "prediction store not configured")
		return
	}
	date, ok := parseRunDate(r.URL.Query().Get("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	runDate := date.Format("2006-01-02")
	predictions, err := s.store.PredictionsByDate(runDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_date":    runDate,
		"predictions": predictions,
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "prediction store not configured")
		return
	}
	latest, err := s.store.Latest()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prediction": latest})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"run_active": running,
		"checked_at": time.Now().UTC().Format(time.RFC3339),
	})
}
