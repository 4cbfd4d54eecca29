// Package kb unifies the formula catalogue, corpus store, and full-text
// index behind one query surface. The catalogue is always present; the
// corpus database is optional and attached lazily, so every corpus-backed
// operation degrades cleanly when the database file does not exist yet.
package kb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/deidexdd-hash/numBase/internal/catalogue"
	"github.com/deidexdd-hash/numBase/internal/corpus"
	"github.com/deidexdd-hash/numBase/internal/numerology"
	"github.com/deidexdd-hash/numBase/internal/search"
)

// ErrStoreUnavailable is returned by corpus-backed operations when the
// document database cannot be opened.
var ErrStoreUnavailable = errors.New("document store unavailable")

// SearchResponse is the facade's answer to a document query.
type SearchResponse struct {
	Query          string          `json:"query"`
	Results        []search.Result `json:"results"`
	Total          int             `json:"total"`
	StoreAvailable bool            `json:"store_available"`
}

// Stats aggregates catalogue and corpus counts.
type Stats struct {
	Formulas       int           `json:"formulas"`
	Practices      int           `json:"practices"`
	NumberMeanings int           `json:"number_meanings"`
	StoreAvailable bool          `json:"store_available"`
	Corpus         *corpus.Stats `json:"corpus,omitempty"`
}

// KnowledgeBase is the single integration point for all adapters.
type KnowledgeBase struct {
	cat    *catalogue.Catalogue
	engine *numerology.Engine
	dbPath string
	logger *slog.Logger

	mu    sync.Mutex
	store *corpus.Store
	index *search.Index
}

// New builds a knowledge base over a loaded catalogue. The corpus
// database at dbPath is opened on first use; a missing file is not an
// error at construction time.
func New(cat *catalogue.Catalogue, dbPath string) *KnowledgeBase {
	return &KnowledgeBase{
		cat:    cat,
		engine: numerology.NewEngine(cat, nil),
		dbPath: dbPath,
		logger: slog.Default(),
	}
}

// Close releases the corpus store if it was opened.
func (k *KnowledgeBase) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.store == nil {
		return nil
	}
	err := k.store.Close()
	k.store = nil
	k.index = nil
	return err
}

// openStore attaches the corpus database, opening it on first call. The
// database file may appear after process start, so absence is re-checked
// on every call until the open succeeds.
func (k *KnowledgeBase) openStore() (*corpus.Store, *search.Index, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.store != nil {
		return k.store, k.index, nil
	}
	if k.dbPath == "" {
		return nil, nil, ErrStoreUnavailable
	}
	if k.dbPath != ":memory:" {
		if _, err := os.Stat(k.dbPath); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	store, err := corpus.Open(k.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	k.store = store
	k.index = search.New(store, 0)
	k.logger.Info("corpus store attached", "path", k.dbPath)
	return k.store, k.index, nil
}

// AttachStore opens the corpus database eagerly, creating the file if
// needed. Used by ingestion, which must be able to start from nothing.
func (k *KnowledgeBase) AttachStore() (*corpus.Store, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.store != nil {
		return k.store, nil
	}
	if k.dbPath == "" {
		return nil, ErrStoreUnavailable
	}
	store, err := corpus.Open(k.dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening corpus store: %w", err)
	}
	k.store = store
	k.index = search.New(store, 0)
	return k.store, nil
}

// Catalogue exposes the loaded formula catalogue.
func (k *KnowledgeBase) Catalogue() *catalogue.Catalogue {
	return k.cat
}

// CalculateAll validates the inputs and runs the full calculation bundle.
func (k *KnowledgeBase) CalculateAll(day, month, year int, name string) (numerology.Bundle, error) {
	if err := numerology.ValidateDate(day, month, year); err != nil {
		return numerology.Bundle{}, err
	}
	return k.engine.CalculateAll(day, month, year, name)
}

// PersonalYear computes the personal year for a birth day and month.
func (k *KnowledgeBase) PersonalYear(day, month int) (numerology.Calculation, error) {
	if err := numerology.ValidateDate(day, month, 2000); err != nil {
		return numerology.Calculation{}, err
	}
	return k.engine.PersonalYear(day, month), nil
}

// Search queries the corpus index. Without a corpus database the
// catalogue itself is searched so the caller always gets an answer.
func (k *KnowledgeBase) Search(ctx context.Context, query string, limit int, category string) SearchResponse {
	resp := SearchResponse{Query: query, Results: []search.Result{}}
	if limit <= 0 {
		limit = 10
	}

	_, index, err := k.openStore()
	if err != nil {
		k.logger.Warn("searching catalogue only", "error", err)
		resp.Results = k.searchCatalogue(query)
		resp.Total = len(resp.Results)
		return resp
	}

	resp.StoreAvailable = true
	resp.Results = index.Search(ctx, query, limit, category)
	resp.Total = len(resp.Results)
	return resp
}

// searchCatalogue matches formulas by name and description substring.
func (k *KnowledgeBase) searchCatalogue(query string) []search.Result {
	results := []search.Result{}
	q := strings.TrimSpace(query)
	if q == "" {
		return results
	}
	for _, f := range k.cat.FindFormulas(q) {
		results = append(results, search.Result{
			Title:         f.Name,
			DocType:       "formula",
			Snippet:       f.Description,
			ContentLength: len(f.Description),
		})
	}
	return results
}

// Document returns a corpus document by id.
func (k *KnowledgeBase) Document(id int64) (corpus.Document, error) {
	store, _, err := k.openStore()
	if err != nil {
		return corpus.Document{}, err
	}
	return store.Get(id)
}

// DocumentContent returns the full text of a corpus document.
func (k *KnowledgeBase) DocumentContent(id int64) (string, error) {
	store, _, err := k.openStore()
	if err != nil {
		return "", err
	}
	return store.Content(id)
}

// Categories lists the distinct corpus categories. Without a store the
// list is empty, not an error.
func (k *KnowledgeBase) Categories() []string {
	store, _, err := k.openStore()
	if err != nil {
		return []string{}
	}
	cats, err := store.Categories()
	if err != nil {
		k.logger.Warn("listing categories failed", "error", err)
		return []string{}
	}
	if cats == nil {
		cats = []string{}
	}
	return cats
}

// AddDocument inserts a manually supplied document and rebuilds the
// full-text index so it is immediately searchable.
func (k *KnowledgeBase) AddDocument(ctx context.Context, doc corpus.Document) (int64, error) {
	store, err := k.AttachStore()
	if err != nil {
		return 0, err
	}
	if doc.Method == "" {
		doc.Method = corpus.MethodManual
	}
	id, err := store.Insert(doc)
	if err != nil {
		return 0, fmt.Errorf("storing document: %w", err)
	}

	k.mu.Lock()
	index := k.index
	k.mu.Unlock()
	if _, err := index.Rebuild(ctx); err != nil {
		return id, fmt.Errorf("rebuilding index: %w", err)
	}
	return id, nil
}

// RebuildIndex regenerates the full-text index from the corpus.
func (k *KnowledgeBase) RebuildIndex(ctx context.Context) (int, error) {
	_, index, err := k.openStore()
	if err != nil {
		return 0, err
	}
	return index.Rebuild(ctx)
}

// Stats reports catalogue counts plus corpus aggregates when available.
func (k *KnowledgeBase) Stats() Stats {
	formulas, practices, meanings := k.cat.Counts()
	st := Stats{Formulas: formulas, Practices: practices, NumberMeanings: meanings}

	store, _, err := k.openStore()
	if err != nil {
		return st
	}
	st.StoreAvailable = true
	cs, err := store.Stats()
	if err != nil {
		k.logger.Warn("corpus stats failed", "error", err)
		return st
	}
	st.Corpus = &cs
	return st
}
