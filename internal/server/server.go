// Package server is the HTTP transport over the responder engine.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"rulebot/internal/engine"
	"rulebot/internal/store"
)

const defaultHistoryLimit = 200

type Server struct {
	engine    *engine.Engine
	server    *http.Server
	addr      string
	startTime time.Time
}

func New(eng *engine.Engine, addr string) *Server {
	return &Server{
		engine:    eng,
		addr:      addr,
		startTime: time.Now(),
	}
}

// Handler builds the route table. Split out from Start so tests can drive
// the mux directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("starting HTTP server on %s", s.addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type chatRequest struct {
	Message  string `json:"message"`
	UserName string `json:"user_name"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	UserName string `json:"user_name"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	reply, newName := s.engine.Respond(req.Message, req.UserName)
	writeJSON(w, chatResponse{Reply: reply, UserName: newName})
}

type historyResponse struct {
	History []store.Turn `json:"history"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	turns, err := s.engine.History(r.URL.Query().Get("user_name"), limit)
	if err != nil {
		// degraded durability must not become a transport fault
		log.Printf("history lookup failed: %v", err)
		turns = nil
	}
	if turns == nil {
		turns = []store.Turn{}
	}
	writeJSON(w, historyResponse{History: turns})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
