package server

import (
	"encoding/json"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"webrag/internal/domain"
)

const requestIDHeader = "X-Request-ID"

// QueryRequest is the JSON form of a query submission.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the success payload of POST /query.
type QueryResponse struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// ErrorResponse is returned with 4xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness and how many chunks are searchable.
type HealthResponse struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Chunks: s.chunks()})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query, err := readQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body."})
		return
	}
	if strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Query cannot be empty."})
		return
	}

	id := w.Header().Get(requestIDHeader)
	log.Printf("[server] %s query: %s", id, domain.Preview(query, 80))
	start := time.Now()
	answer := s.composer.Compose(r.Context(), query)
	log.Printf("[server] %s answered in %s", id, time.Since(start).Round(time.Millisecond))

	writeJSON(w, http.StatusOK, QueryResponse{Query: query, Answer: answer})
}

// readQuery accepts either a JSON body or a regular form submission.
func readQuery(r *http.Request) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
		return req.Query, nil
	}
	return r.FormValue("query"), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] Encode response failed: %v", err)
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
