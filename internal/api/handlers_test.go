package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deidexdd-hash/numBase/internal/catalogue"
	"github.com/deidexdd-hash/numBase/internal/kb"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	cat := catalogue.New(
		[]catalogue.Formula{
			{ID: "life_path", Name: "Life Path", Description: "Sum of the full birth date."},
		},
		[]catalogue.NumberMeaning{
			{Value: 4, Title: "The Builder", Color: "#112233"},
			{Value: 11, Title: "The Visionary"},
		},
	)
	base := kb.New(cat, ":memory:")
	t.Cleanup(func() { base.Close() })
	return NewHandler(base)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestHandler(t), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCalculate(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/calculate", CalculateRequest{Day: 15, Month: 6, Year: 1990})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		LifePath struct {
			Value   int `json:"value"`
			Meaning struct {
				Title string `json:"title"`
			} `json:"meaning"`
		} `json:"life_path"`
		Destiny *json.RawMessage `json:"destiny"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.LifePath.Value != 4 {
		t.Errorf("life_path.value = %d, want 4", got.LifePath.Value)
	}
	if got.LifePath.Meaning.Title != "The Builder" {
		t.Errorf("meaning.title = %q", got.LifePath.Meaning.Title)
	}
	// Explicit null, not omitted.
	if !strings.Contains(rec.Body.String(), `"destiny":null`) {
		t.Errorf("destiny not serialized as explicit null: %s", rec.Body.String())
	}
}

func TestCalculateRejectsBadDate(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/calculate", CalculateRequest{Day: 32, Month: 6, Year: 1990})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_request_error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCalculateInvalidBody(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBulkCalculate(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/bulk-calculate", BulkCalculateRequest{
		Requests: []CalculateRequest{
			{Day: 15, Month: 6, Year: 1990},
			{Day: 40, Month: 6, Year: 1990}, // invalid, reported per entry
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Results []BulkResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(got.Results))
	}
	if got.Results[0].Error != "" || got.Results[0].Bundle == nil {
		t.Errorf("first result = %+v, want success", got.Results[0])
	}
	if got.Results[1].Error == "" {
		t.Errorf("second result = %+v, want per-entry error", got.Results[1])
	}
}

func TestBulkCalculateLimit(t *testing.T) {
	h := newTestHandler(t)
	reqs := make([]CalculateRequest, maxBulkRequests+1)
	for i := range reqs {
		reqs[i] = CalculateRequest{Day: 1, Month: 1, Year: 2000}
	}
	rec := doJSON(t, h, http.MethodPost, "/api/bulk-calculate", BulkCalculateRequest{Requests: reqs})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchValidation(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/search?q=a", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for one-character query", rec.Code)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/documents", AddDocumentRequest{
		Filename:   "note.txt",
		Categories: []string{"numerology"},
		Content:    "The karmic tail shows up in repeated digits.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/document/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "karmic tail") {
		t.Errorf("document body = %s", rec.Body.String())
	}

	// Searchable right after the POST.
	rec = doJSON(t, h, http.MethodGet, "/api/search?q=karmic", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	var sr struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sr); err != nil {
		t.Fatalf("decoding search response: %v", err)
	}
	if sr.Total != 1 {
		t.Errorf("search total = %d, want 1", sr.Total)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/document/9999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing document status = %d, want 404", rec.Code)
	}
}

func TestAddDocumentValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/documents", AddDocumentRequest{Content: "text"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing filename status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/documents", AddDocumentRequest{Filename: "a.txt"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing content status = %d, want 400", rec.Code)
	}
}

func TestFormulas(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/formulas", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Life Path") {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/formulas/life_path", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/formulas/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown formula status = %d, want 404", rec.Code)
	}
}

func TestMeaning(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/number-meanings/11", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "The Visionary") {
		t.Errorf("body = %s", rec.Body.String())
	}

	// Absent meanings synthesize a default rather than 404.
	rec = doJSON(t, h, http.MethodGet, "/api/number-meanings/7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Number 7") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestExport(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/export?day=15&month=6&year=1990&name=anna", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"15.06.1990", "Life path", "Chakra balance", "Destiny number"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q:\n%s", want, body)
		}
	}

	rec = doJSON(t, h, http.MethodGet, "/api/export?day=15", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete query status = %d, want 400", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st struct {
		Formulas       int  `json:"formulas"`
		StoreAvailable bool `json:"store_available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if st.Formulas != 1 {
		t.Errorf("formulas = %d, want 1", st.Formulas)
	}
}
