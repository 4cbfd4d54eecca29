// Package api exposes the knowledge base over HTTP and MCP. All handlers
// answer JSON with the shared error envelope; adapters hold no state of
// their own beyond the facade.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deidexdd-hash/numBase/internal/corpus"
	"github.com/deidexdd-hash/numBase/internal/kb"
	"github.com/deidexdd-hash/numBase/internal/numerology"
)

const maxRequestBodySize = 1 << 20 // 1MB

// maxBulkRequests caps one bulk-calculate call.
const maxBulkRequests = 50

// CalculateRequest is the body of POST /api/calculate.
type CalculateRequest struct {
	Day   int    `json:"day"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
	Name  string `json:"name,omitempty"`
}

// BulkCalculateRequest is the body of POST /api/bulk-calculate.
type BulkCalculateRequest struct {
	Requests []CalculateRequest `json:"requests"`
}

// BulkResult is one entry of a bulk-calculate response.
type BulkResult struct {
	Bundle *numerology.Bundle `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// AddDocumentRequest is the body of POST /api/documents.
type AddDocumentRequest struct {
	Filename   string   `json:"filename"`
	Title      string   `json:"title,omitempty"`
	DocType    string   `json:"doc_type,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Content    string   `json:"content"`
}

// NewHandler builds the HTTP surface over the knowledge base.
func NewHandler(base *kb.KnowledgeBase) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/calculate", handleCalculate(base))
		r.Post("/bulk-calculate", handleBulkCalculate(base))
		r.Get("/search", handleSearch(base))
		r.Get("/document/{id}", handleDocument(base))
		r.Post("/documents", handleAddDocument(base))
		r.Get("/stats", handleStats(base))
		r.Get("/categories", handleCategories(base))
		r.Get("/formulas", handleFormulas(base))
		r.Get("/formulas/{id}", handleFormula(base))
		r.Get("/number-meanings/{number}", handleMeaning(base))
		r.Get("/practices", handlePractices(base))
		r.Get("/export", handleExport(base))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleCalculate(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req CalculateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		bundle, err := base.CalculateAll(req.Day, req.Month, req.Year, req.Name)
		if err != nil {
			var invalid *numerology.InvalidInputError
			if errors.As(err, &invalid) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "calculation failed: %v", err)
			return
		}

		writeJSON(w, bundle)
	}
}

func handleBulkCalculate(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req BulkCalculateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(req.Requests) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "requests is required and must not be empty")
			return
		}
		if len(req.Requests) > maxBulkRequests {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at most %d requests per call", maxBulkRequests)
			return
		}

		results := make([]BulkResult, len(req.Requests))
		for i, cr := range req.Requests {
			bundle, err := base.CalculateAll(cr.Day, cr.Month, cr.Year, cr.Name)
			if err != nil {
				results[i] = BulkResult{Error: err.Error()}
				continue
			}
			results[i] = BulkResult{Bundle: &bundle}
		}

		writeJSON(w, map[string]any{"results": results})
	}
}

func handleSearch(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if len([]rune(query)) < 2 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "q must be at least 2 characters")
			return
		}

		limit := parseIntParam(r, "limit", 10, 50)
		if limit < 1 {
			limit = 1
		}
		category := r.URL.Query().Get("category")

		writeJSON(w, base.Search(r.Context(), query, limit, category))
	}
}

func handleDocument(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "document id must be an integer")
			return
		}

		doc, err := base.Document(id)
		if errors.Is(err, corpus.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		if errors.Is(err, kb.ErrStoreUnavailable) {
			httpError(w, http.StatusServiceUnavailable, "store_unavailable", "document store unavailable")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load document: %v", err)
			return
		}

		writeJSON(w, doc)
	}
}

func handleAddDocument(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AddDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Filename == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "filename is required")
			return
		}
		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}
		if req.Title == "" {
			req.Title = req.Filename
		}

		id, err := base.AddDocument(r.Context(), corpus.Document{
			Filename:   req.Filename,
			Title:      req.Title,
			DocType:    req.DocType,
			Categories: req.Categories,
			Content:    req.Content,
			Method:     corpus.MethodManual,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to store document: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": id, "status": "stored"})
	}
}

func handleStats(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, base.Stats())
	}
}

func handleCategories(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"categories": base.Categories()})
	}
}

func handleFormulas(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat := base.Catalogue()
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			writeJSON(w, map[string]any{"formulas": cat.FindFormulas(q)})
			return
		}
		writeJSON(w, map[string]any{"formulas": cat.Formulas()})
	}
}

func handleFormula(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := base.Catalogue().Formula(chi.URLParam(r, "id"))
		if f == nil {
			httpError(w, http.StatusNotFound, "not_found", "formula not found")
			return
		}
		writeJSON(w, f)
	}
}

func handleMeaning(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(r, "number"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "number must be an integer")
			return
		}
		writeJSON(w, base.Catalogue().MeaningFor(n))
	}
}

func handlePractices(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"practices": base.Catalogue().Practices()})
	}
}

// handleExport renders a calculation bundle as a plain-text report for
// download or forwarding to a chat channel.
func handleExport(base *kb.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		day, err1 := strconv.Atoi(q.Get("day"))
		month, err2 := strconv.Atoi(q.Get("month"))
		year, err3 := strconv.Atoi(q.Get("year"))
		if err1 != nil || err2 != nil || err3 != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "day, month, and year query parameters are required integers")
			return
		}

		bundle, err := base.CalculateAll(day, month, year, q.Get("name"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, RenderReport(bundle))
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
