// Package web serves health, metrics and the decision stream over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vadiminshakov/momentum/internal/domain"
)

const (
	defaultPollInterval      = 2 * time.Second
	defaultHeartbeatInterval = 30 * time.Second
)

type decisionReader interface {
	EventsAfter(index uint64) ([]domain.DecisionEventRecord, error)
}

// Server exposes /healthz, /metrics and an SSE stream of journaled decisions.
type Server struct {
	Addr              string
	DecisionStore     decisionReader
	Gatherer          prometheus.Gatherer
	PollInterval      time.Duration
	HeartbeatInterval time.Duration

	logger *zap.Logger
}

// NewServer creates a new web server instance. store and gatherer may be nil.
func NewServer(addr string, logger *zap.Logger, store decisionReader, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:              addr,
		DecisionStore:     store,
		Gatherer:          gatherer,
		PollInterval:      defaultPollInterval,
		HeartbeatInterval: defaultHeartbeatInterval,
		logger:            logger,
	}
}

// Handler returns the routing mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/decisions/stream", s.handleDecisionStream)
	if s.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("status server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleDecisionStream(w http.ResponseWriter, r *http.Request) {
	if s.DecisionStore == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "decision store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	heartbeatEvery := s.HeartbeatInterval
	if heartbeatEvery <= 0 {
		heartbeatEvery = defaultHeartbeatInterval
	}

	// headers stay unsent until the first load succeeds so a failure can still become a 500
	records, err := s.DecisionStore.EventsAfter(0)
	if err != nil {
		s.logger.Error("decision stream initial load", zap.Error(err))
		http.Error(w, "failed to load decisions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	lastIndex, err := writeDecisions(w, records, 0)
	if err != nil {
		s.logger.Warn("decision stream write", zap.Error(err))
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(interval)
	defer pollTicker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				s.logger.Debug("decision stream heartbeat", zap.Error(err))
				return
			}
			flusher.Flush()
		case <-pollTicker.C:
			records, err := s.DecisionStore.EventsAfter(lastIndex)
			if err != nil {
				s.logger.Warn("decision stream poll", zap.Error(err))
				continue
			}
			if lastIndex, err = writeDecisions(w, records, lastIndex); err != nil {
				s.logger.Warn("decision stream write", zap.Error(err))
				return
			}
			if len(records) > 0 {
				flusher.Flush()
			}
		}
	}
}

// writeDecisions emits one SSE event per record and returns the index of the last one written.
func writeDecisions(w io.Writer, records []domain.DecisionEventRecord, lastIndex uint64) (uint64, error) {
	for _, record := range records {
		payload, err := json.Marshal(record.Event)
		if err != nil {
			return lastIndex, fmt.Errorf("encode decision %d: %w", record.Index, err)
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: decision\ndata: %s\n\n", record.Index, payload); err != nil {
			return lastIndex, fmt.Errorf("write decision %d: %w", record.Index, err)
		}
		lastIndex = record.Index
	}
	return lastIndex, nil
}
