// Package api serves the tool registry over HTTP so outer agent frameworks
// can discover and invoke the incident tools.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/snowkit-io/snowkit/internal/calllog"
	"github.com/snowkit-io/snowkit/internal/snow"
	"github.com/snowkit-io/snowkit/internal/tool"
	"github.com/snowkit-io/snowkit/pkg/protocol"
)

// Config holds API server configuration.
type Config struct {
	Host string
	Port int
	Key  string // Bearer key, empty disables auth
}

// Server exposes the tool registry and the outbound call log.
type Server struct {
	registry *tool.Registry
	cfg      Config
	logger   *slog.Logger
	calls    *calllog.Buffer
	srv      *http.Server
}

// NewServer creates the server. calls may be nil.
func NewServer(registry *tool.Registry, cfg Config, logger *slog.Logger, calls *calllog.Buffer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		calls:    calls,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/tools", s.requireAuth(s.handleListTools))
	mux.HandleFunc("POST /api/tools/{name}", s.requireAuth(s.handleCallTool))
	mux.HandleFunc("GET /api/calls", s.requireAuth(s.handleGetCalls))

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening. Blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutCtx)
	}()

	s.logger.Info("tool api server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key == "" {
			next(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.Key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Definitions())
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.registry.Get(name); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("tool %q not found", name)})
		return
	}

	var req protocol.ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	requestID := uuid.NewString()
	ctx := snow.WithRequestID(r.Context(), requestID)

	start := time.Now()
	output, err := s.registry.Execute(ctx, name, req.Params)
	if err != nil {
		// Parameter rejections and defects; remote failures come back
		// inside the envelope in output.
		s.logger.Warn("tool call rejected",
			"request_id", requestID, "tool", name, "error", err)
		writeJSON(w, http.StatusBadRequest, protocol.ToolCallResult{
			RequestID: requestID,
			Error:     err.Error(),
		})
		return
	}

	s.logger.Info("tool call",
		"request_id", requestID, "tool", name, "duration_ms", time.Since(start).Milliseconds())
	writeJSON(w, http.StatusOK, protocol.ToolCallResult{
		RequestID: requestID,
		Output:    output,
	})
}

func (s *Server) handleGetCalls(w http.ResponseWriter, r *http.Request) {
	if s.calls == nil {
		writeJSON(w, http.StatusOK, []calllog.Record{})
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	var records []calllog.Record
	if r.URL.Query().Get("failed") == "true" {
		records = s.calls.Failed(limit)
	} else {
		records = s.calls.Recent(limit)
	}
	if records == nil {
		records = []calllog.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
