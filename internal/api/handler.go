package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/usecase"
)

// Server exposes the read-only query views over localhost HTTP so the MCP
// sidecar (and debugging tools) can reach them.
type Server struct {
	query  *usecase.Query
	server *http.Server
	port   int
}

// NewServer creates a new API server.
func NewServer(query *usecase.Query, port int) *Server {
	return &Server{
		query: query,
		port:  port,
	}
}

// Start starts the HTTP server. Blocks until shutdown.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/api/promises", s.handlePromises)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: mux,
	}

	fmt.Printf("[API] Starting HTTP server on port %d\n", s.port)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// GetPort returns the server port.
func (s *Server) GetPort() int {
	return s.port
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := usecase.DefaultLeaderboardSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries := s.query.Leaderboard(limit)
	s.writeJSON(w, map[string]interface{}{"entries": entries})
}

func (s *Server) handlePromises(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	views := s.query.PromisesOf(userID)
	s.writeJSON(w, map[string]interface{}{
		"user_id":  userID,
		"name":     s.query.DisplayNameOf(userID),
		"promises": views,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
