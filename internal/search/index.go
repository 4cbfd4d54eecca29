// Package search maintains the FTS5 full-text index over the corpus and
// answers ranked queries. The index is a derived artifact: it is dropped
// and rebuilt from the corpus store, never patched incrementally. When
// the index is missing or rejects a query, searches degrade to a
// substring scan over the store itself.
package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deidexdd-hash/numBase/internal/corpus"
)

// DefaultSnippetContext is the number of characters kept on each side of
// the first query occurrence in a snippet.
const DefaultSnippetContext = 150

// overFetchFactor widens the underlying query when a category post-filter
// will discard rows.
const overFetchFactor = 4

// Result is one ranked search hit.
type Result struct {
	ID            int64    `json:"id"`
	Filename      string   `json:"filename"`
	Title         string   `json:"title"`
	DocType       string   `json:"type"`
	Categories    []string `json:"categories"`
	Snippet       string   `json:"snippet"`
	ContentLength int      `json:"content_length"`
	Score         float64  `json:"score"`
}

// Index answers full-text queries against the corpus database.
type Index struct {
	db      *sql.DB
	context int
	logger  *slog.Logger
}

// New creates an index over the corpus store's database handle.
// snippetContext <= 0 selects the default.
func New(store *corpus.Store, snippetContext int) *Index {
	if snippetContext <= 0 {
		snippetContext = DefaultSnippetContext
	}
	return &Index{db: store.DB(), context: snippetContext, logger: slog.Default()}
}

// Rebuild drops and recreates the FTS5 table from the documents table,
// inserting rows in store order, then merges index segments. It is a
// full-replace maintenance operation; readers should not query during it.
func (ix *Index) Rebuild(ctx context.Context) (int, error) {
	if _, err := ix.db.ExecContext(ctx, "DROP TABLE IF EXISTS documents_fts"); err != nil {
		return 0, fmt.Errorf("dropping old index: %w", err)
	}

	if _, err := ix.db.ExecContext(ctx, `
		CREATE VIRTUAL TABLE documents_fts USING fts5(
			title,
			content,
			content='documents',
			content_rowid='id',
			tokenize='unicode61 remove_diacritics 1'
		)`); err != nil {
		return 0, fmt.Errorf("creating index: %w", err)
	}

	res, err := ix.db.ExecContext(ctx, `
		INSERT INTO documents_fts(rowid, title, content)
		SELECT id, COALESCE(title, ''), COALESCE(content, '')
		FROM documents ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("populating index: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting indexed rows: %w", err)
	}

	if _, err := ix.db.ExecContext(ctx, "INSERT INTO documents_fts(documents_fts) VALUES('optimize')"); err != nil {
		return 0, fmt.Errorf("optimizing index: %w", err)
	}

	return int(n), nil
}

// Search runs a ranked MATCH query, falling back to a substring scan on
// any index error. It never returns an error: absence of results is an
// empty slice. A non-empty category is applied as a post-filter over the
// retrieved rows, never inside the ranking query.
func (ix *Index) Search(ctx context.Context, query string, limit int, category string) []Result {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []Result{}
	}

	fetch := limit
	if category != "" {
		fetch = limit * overFetchFactor
	}

	results, err := ix.matchQuery(ctx, query, fetch)
	if err != nil {
		ix.logger.Warn("full-text query failed, falling back to substring scan", "query", query, "error", err)
		results = ix.scanQuery(ctx, query, fetch)
	}

	if category != "" {
		filtered := results[:0]
		for _, r := range results {
			if containsString(r.Categories, category) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// matchQuery queries the FTS5 index, best rank first, ties broken by
// descending content length.
func (ix *Index) matchQuery(ctx context.Context, query string, limit int) ([]Result, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT d.id, d.filename, d.title, d.doc_type, d.categories, d.content, d.content_length, rank
		FROM documents_fts f
		JOIN documents d ON f.rowid = d.id
		WHERE documents_fts MATCH ?
		ORDER BY rank, d.content_length DESC
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var cats, content string
		var rank float64
		if err := rows.Scan(&r.ID, &r.Filename, &r.Title, &r.DocType, &cats, &content, &r.ContentLength, &rank); err != nil {
			return nil, err
		}
		r.Categories = parseCategories(cats)
		r.Snippet = Snippet(content, query, ix.context)
		// fts5 rank is a negated bm25 weight; flip it so higher is better.
		r.Score = -rank
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Result{}
	}
	return out, nil
}

// scanQuery is the degradation path: a case-insensitive substring scan
// directly over the documents table. Title matches sort before
// content-only matches, then longer documents first. It never raises;
// scan failures yield an empty result set.
func (ix *Index) scanQuery(ctx context.Context, query string, limit int) []Result {
	pattern := "%" + query + "%"
	rows, err := ix.db.QueryContext(ctx, `
		SELECT id, filename, title, doc_type, categories, content, content_length
		FROM documents
		WHERE content LIKE ? OR title LIKE ?
		ORDER BY
			CASE
				WHEN title LIKE ? THEN 1
				WHEN content LIKE ? THEN 2
				ELSE 3
			END,
			content_length DESC
		LIMIT ?`, pattern, pattern, pattern, pattern, limit)
	if err != nil {
		ix.logger.Warn("substring scan failed", "query", query, "error", err)
		return []Result{}
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var r Result
		var cats, content string
		if err := rows.Scan(&r.ID, &r.Filename, &r.Title, &r.DocType, &cats, &content, &r.ContentLength); err != nil {
			ix.logger.Warn("substring scan row failed", "error", err)
			return out
		}
		r.Categories = parseCategories(cats)
		r.Snippet = Snippet(content, query, ix.context)
		out = append(out, r)
	}
	return out
}

func parseCategories(catsJSON string) []string {
	var cats []string
	if err := json.Unmarshal([]byte(catsJSON), &cats); err != nil {
		return nil
	}
	return cats
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
