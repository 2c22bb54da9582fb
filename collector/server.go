package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the daemon query interface: one read endpoint per
// resource domain, a collect trigger, health, and prometheus
// self-metrics. It binds to the loopback address only.
type Server struct {
	cfg        *Config
	collector  *Collector
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer wires the query interface around a collector.
func NewServer(cfg *Config, collector *Collector) *Server {
	s := &Server{
		cfg:       cfg,
		collector: collector,
		startedAt: time.Now(),
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the query interface routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/cpu", s.handleCPU).Methods(http.MethodGet)
	r.HandleFunc("/memory", s.handleMemory).Methods(http.MethodGet)
	r.HandleFunc("/network", s.handleNetwork).Methods(http.MethodGet)
	r.HandleFunc("/disk", s.handleDisk).Methods(http.MethodGet)
	r.HandleFunc("/collect", s.handleCollect).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Start binds the listener, records the daemon state file, starts the
// sampling loop and serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to bind query interface: %w", err)
	}

	port := ln.Addr().(*net.TCPAddr).Port
	state := &State{
		PID:       os.Getpid(),
		Port:      port,
		SessionID: s.collector.SessionID(),
		StartedAt: s.startedAt,
	}
	if err := WriteState(s.cfg.StateDir, state); err != nil {
		ln.Close()
		return err
	}

	s.collector.Start()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Query interface listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("query interface failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		s.collector.Stop()
		return err
	}
}

// Shutdown stops sampling, drains the HTTP server and removes the state
// file.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down collector daemon")
	s.collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if removeErr := RemoveState(s.cfg.StateDir); removeErr != nil {
		slog.Warn("Failed to remove state file", "error", removeErr)
	}
	return err
}

func (s *Server) handleCPU(w http.ResponseWriter, r *http.Request) {
	queriesTotal.WithLabelValues("cpu").Inc()
	writeJSON(w, s.collector.Store().CPU())
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	queriesTotal.WithLabelValues("memory").Inc()
	writeJSON(w, s.collector.Store().Memory())
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	queriesTotal.WithLabelValues("network").Inc()
	writeJSON(w, s.collector.Store().Network())
}

func (s *Server) handleDisk(w http.ResponseWriter, r *http.Request) {
	queriesTotal.WithLabelValues("disk").Inc()
	writeJSON(w, s.collector.Store().Disk())
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	queriesTotal.WithLabelValues("collect").Inc()
	s.collector.CollectNow()
	writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":     "healthy",
		"session_id": s.collector.SessionID(),
		"uptime_s":   int(time.Since(s.startedAt).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
