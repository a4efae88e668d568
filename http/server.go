package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/mbialas/leadscout"
)

// Searcher runs one search end to end. *scrape.Pipeline implements it.
type Searcher interface {
	Run(ctx context.Context, searchTerm string) (*leadscout.ResultSet, error)
}

// Server is the request layer between the web front end and the pipeline.
// It owns the JSON envelope, status mapping, and request logging; it knows
// nothing about how searches are executed.
type Server struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewServer creates a Server around the given searcher.
func NewServer(searcher Searcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{searcher: searcher, logger: logger}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/search", s.handleSearch)
	r.Post("/api/search", s.handleSearch)
	return r
}

// searchResponse is the success envelope the front end consumes. Absent
// contact fields render as explicit nulls inside Data.
type searchResponse struct {
	Status       string                     `json:"status"`
	SearchTerm   string                     `json:"search_term"`
	ResultsCount int                        `json:"results_count"`
	Data         []*leadscout.ContactRecord `json:"data"`
	Message      string                     `json:"message,omitempty"`
	Timestamp    string                     `json:"timestamp"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var term string
	if r.Method == http.MethodPost {
		var body struct {
			SearchTerm string `json:"search_term"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		term = body.SearchTerm
	} else {
		term = r.URL.Query().Get("search_term")
	}

	term = strings.TrimSpace(term)
	if term == "" {
		s.writeError(w, http.StatusBadRequest, "search term is required")
		return
	}

	set, err := s.searcher.Run(r.Context(), term)
	if err != nil {
		status, msg := statusFromError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("search failed", "term", term, "error", err)
		}
		s.writeError(w, status, msg)
		return
	}

	resp := searchResponse{
		Status:       "success",
		SearchTerm:   set.SearchTerm,
		ResultsCount: set.Count,
		Data:         set.Results,
		Timestamp:    set.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if set.Count == 0 {
		resp.Message = "No results found for the given search term"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"service": "leadscout",
		"message": "Service is running. Use /api/search to search.",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "leadscout API",
		"endpoints": map[string]string{
			"/api/search": "GET or POST - search business contacts",
			"/api/status": "GET - check API status",
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Status: "error", Message: msg})
}

// statusFromError maps application error codes to HTTP statuses. Internal
// error details never reach the client.
func statusFromError(err error) (int, string) {
	switch leadscout.ErrorCode(err) {
	case leadscout.EINVALID:
		return http.StatusBadRequest, leadscout.ErrorMessage(err)
	case leadscout.ENOTFOUND:
		return http.StatusNotFound, leadscout.ErrorMessage(err)
	case leadscout.EUNAVAILABLE:
		return http.StatusBadGateway, leadscout.ErrorMessage(err)
	default:
		return http.StatusInternalServerError, "Internal error."
	}
}

// logRequests emits one structured log line per request, tagged with a
// generated request ID.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(begin),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
