// Package handler exposes document search and viewing as a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/memory"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/perf"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/search"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searchmgr"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
)

// Service is the search surface the handler drives. *searchmgr.Manager
// implements it.
type Service interface {
	Search(ctx context.Context, query string, overrides search.Overrides) []search.Result
	Document(ctx context.Context, id string) (docs.Record, string, error)
	Refresh(ctx context.Context) error
	Stats() searchmgr.Stats
}

type Handler struct {
	service  Service
	monitor  *perf.Monitor
	memory   *memory.Manager
	maxLimit int
	logger   *slog.Logger
}

// New creates a Handler. monitor and mem may be nil; maxLimit caps the
// limit query parameter.
func New(service Service, monitor *perf.Monitor, mem *memory.Manager, maxLimit int) *Handler {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Handler{
		service:  service,
		monitor:  monitor,
		memory:   mem,
		maxLimit: maxLimit,
		logger:   slog.Default().With("component", "http-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/docs/{id...}", h.Document)
	mux.HandleFunc("POST /api/v1/index/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
}

type searchResponse struct {
	Query   string          `json:"query"`
	Total   int             `json:"total"`
	Results []search.Result `json:"results"`
}

// Search handles /api/v1/search?q=...&tags=&fuzzy=&case=&limit=. Options not
// given fall back to the service defaults.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	var overrides search.Overrides
	var err error
	if overrides.SearchInTags, err = boolParam(params.Get("tags")); err != nil {
		h.writeError(w, http.StatusBadRequest, "tags must be a boolean")
		return
	}
	if overrides.FuzzySearch, err = boolParam(params.Get("fuzzy")); err != nil {
		h.writeError(w, http.StatusBadRequest, "fuzzy must be a boolean")
		return
	}
	if overrides.CaseSensitive, err = boolParam(params.Get("case")); err != nil {
		h.writeError(w, http.StatusBadRequest, "case must be a boolean")
		return
	}
	if limitStr := params.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit > h.maxLimit {
			limit = h.maxLimit
		}
		overrides.MaxResults = &limit
	}

	results := h.service.Search(r.Context(), query, overrides)
	h.writeJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Total:   len(results),
		Results: results,
	})
}

type documentResponse struct {
	Document docs.Record `json:"document"`
	Content  string      `json:"content"`
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, body, err := h.service.Document(r.Context(), id)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("document load failed", "id", id, "error", err)
			h.writeError(w, status, "document could not be loaded")
			return
		}
		h.writeError(w, status, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, documentResponse{Document: record, Content: body})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("index refresh failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.writeError(w, status, "index refresh failed")
		return
	}
	h.writeJSON(w, http.StatusOK, h.service.Stats())
}

type statsResponse struct {
	Search      searchmgr.Stats       `json:"search"`
	Performance map[string]perf.Stats `json:"performance,omitempty"`
	Memory      *memory.Stats         `json:"memory,omitempty"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Search: h.service.Stats()}
	if h.monitor != nil {
		resp.Performance = h.monitor.AllMetrics()
	}
	if h.memory != nil {
		s := h.memory.Stats()
		resp.Memory = &s
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// boolParam parses an optional boolean. Empty means not given.
func boolParam(v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
