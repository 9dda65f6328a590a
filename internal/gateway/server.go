package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/drudge/internal/events"
	"github.com/dohr-michael/drudge/internal/gateway/ws"
	"github.com/dohr-michael/drudge/internal/journal"
	"github.com/dohr-michael/drudge/internal/saves"
	"github.com/dohr-michael/drudge/internal/sim"
	"github.com/dohr-michael/drudge/internal/storage"
)

// Server is the Drudge gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	sim        *sim.Sim
	saves      *saves.FileStore
	journal    *journal.Journal
	stats      *storage.StatsTracker
	host       string
	port       int
}

// NewServer creates a new gateway server wrapping a running simulation.
func NewServer(bus *events.Bus, s *sim.Sim, host string, port int) *Server {
	hub := ws.NewHub(bus, s)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	srv := &Server{
		hub:  hub,
		bus:  bus,
		sim:  s,
		host: host,
		port: port,
	}

	// Routes
	r.Get("/api/health", srv.handleHealth)
	r.Get("/api/ws", hub.ServeWS)
	r.Get("/api/events", srv.handleEvents)
	r.Get("/api/state", srv.handleState)
	r.Get("/api/kinds", srv.handleKinds)
	r.Get("/api/saves", srv.handleSaves)

	// API: run history
	r.Get("/api/runs", srv.handleRuns)
	r.Get("/api/runs/{runID}", srv.handleRun)
	r.Get("/api/runs/{runID}/log", srv.handleRunLog)
	r.Get("/api/runs/{runID}/stats", srv.handleRunStats)

	srv.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: r,
	}

	return srv
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("Drudge gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}

	history := s.bus.History(limit)

	w.Header().Set("Content-Type", "application/json")

	// Format timestamps nicely
	type eventJSON struct {
		ID        string             `json:"id"`
		RunID     string             `json:"run_id,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			RunID:     e.RunID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.sim.State())
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"kinds": s.sim.Kinds()})
}

func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	if s.saves == nil {
		http.Error(w, "save store not available", http.StatusServiceUnavailable)
		return
	}

	list, err := s.saves.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "run journal not available", http.StatusServiceUnavailable)
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}

	runs, err := s.journal.ListRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "run journal not available", http.StatusServiceUnavailable)
		return
	}

	runID := chi.URLParam(r, "runID")
	run, err := s.journal.GetRun(runID)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

func (s *Server) handleRunLog(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "run journal not available", http.StatusServiceUnavailable)
		return
	}

	runID := chi.URLParam(r, "runID")
	entries, err := s.journal.ActivityLog(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		http.Error(w, "stats tracker not available", http.StatusServiceUnavailable)
		return
	}

	runID := chi.URLParam(r, "runID")
	stats, ok := s.stats.Get(runID)
	if !ok {
		http.Error(w, "no stats recorded for run", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// SetSaves configures the save store served by /api/saves.
func (s *Server) SetSaves(store *saves.FileStore) {
	s.saves = store
}

// SetJournal configures the run journal served by /api/runs.
func (s *Server) SetJournal(j *journal.Journal) {
	s.journal = j
}

// SetStats configures the stats tracker served by /api/runs/{id}/stats.
func (s *Server) SetStats(st *storage.StatsTracker) {
	s.stats = st
}
