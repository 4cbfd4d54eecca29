// Package corpus persists extracted documents and their derived category
// index in SQLite. The store holds a single connection for the process
// lifetime; the full-text index over it lives in the search package.
package corpus

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the document corpus.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the corpus database at path and runs pending
// migrations. Pass ":memory:" for an in-memory database (used by tests).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for the full-text index, which lives
// in the same database file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate reads embedded SQL migration files and applies any that haven't run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Insert stores a document. Re-ingestion of the same filename replaces
// the previous row entirely; the replaced row's id is never reused. The
// derived category index rows for the document are rebuilt wholesale.
// ContentLength is always computed from Content.
func (s *Store) Insert(doc Document) (int64, error) {
	categories := doc.Categories
	if categories == nil {
		categories = []string{}
	}
	catsJSON, err := json.Marshal(categories)
	if err != nil {
		return 0, fmt.Errorf("marshaling categories: %w", err)
	}

	extractedAt := doc.ExtractedAt
	if extractedAt.IsZero() {
		extractedAt = time.Now().UTC()
	}
	method := doc.Method
	if method == "" {
		method = MethodStructural
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback()

	var oldID int64
	err = tx.QueryRow("SELECT id FROM documents WHERE filename = ?", doc.Filename).Scan(&oldID)
	switch {
	case err == sql.ErrNoRows:
		// first ingestion of this filename
	case err != nil:
		return 0, fmt.Errorf("checking existing document: %w", err)
	default:
		if _, err := tx.Exec("DELETE FROM category_index WHERE doc_id = ?", oldID); err != nil {
			return 0, fmt.Errorf("clearing category index: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM documents WHERE id = ?", oldID); err != nil {
			return 0, fmt.Errorf("replacing document: %w", err)
		}
	}

	res, err := tx.Exec(`
		INSERT INTO documents (filename, title, doc_type, categories, content, content_length, extraction_method, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Filename, doc.Title, doc.DocType, string(catsJSON), doc.Content,
		len(doc.Content), string(method), extractedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}

	for _, cat := range categories {
		if _, err := tx.Exec("INSERT INTO category_index (category, doc_id) VALUES (?, ?)", cat, id); err != nil {
			return 0, fmt.Errorf("indexing category %q: %w", cat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing insert: %w", err)
	}
	return id, nil
}

const docColumns = "id, filename, title, doc_type, categories, content, content_length, extraction_method, extracted_at"

// Get returns the document with the given id, including content.
func (s *Store) Get(id int64) (Document, error) {
	row := s.db.QueryRow("SELECT "+docColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// Content returns just the text of a document.
func (s *Store) Content(id int64) (string, error) {
	var content string
	err := s.db.QueryRow("SELECT content FROM documents WHERE id = ?", id).Scan(&content)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// ListByCategory returns documents carrying the category, newest first.
func (s *Store) ListByCategory(category string) ([]Document, error) {
	rows, err := s.db.Query(`
		SELECT `+docColumns+` FROM documents
		WHERE id IN (SELECT doc_id FROM category_index WHERE category = ?)
		ORDER BY id DESC`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// All returns every document in id order. Used by the full-text index rebuild.
func (s *Store) All() ([]Document, error) {
	rows, err := s.db.Query("SELECT " + docColumns + " FROM documents ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Categories returns all distinct categories in the index, sorted.
func (s *Store) Categories() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT category FROM category_index ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of documents in the corpus.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// Stats aggregates corpus counts by type, extraction method, and category.
func (s *Store) Stats() (Stats, error) {
	st := Stats{
		ByType:     make(map[string]int),
		ByMethod:   make(map[string]int),
		ByCategory: make(map[string]int),
	}

	var totalChars sql.NullInt64
	if err := s.db.QueryRow("SELECT COUNT(*), SUM(content_length) FROM documents").Scan(&st.Documents, &totalChars); err != nil {
		return Stats{}, err
	}
	st.TotalChars = totalChars.Int64

	if err := s.countGroup("SELECT doc_type, COUNT(*) FROM documents GROUP BY doc_type", st.ByType); err != nil {
		return Stats{}, err
	}
	if err := s.countGroup("SELECT extraction_method, COUNT(*) FROM documents GROUP BY extraction_method", st.ByMethod); err != nil {
		return Stats{}, err
	}
	if err := s.countGroup("SELECT category, COUNT(DISTINCT doc_id) FROM category_index GROUP BY category", st.ByCategory); err != nil {
		return Stats{}, err
	}

	return st, nil
}

func (s *Store) countGroup(query string, into map[string]int) error {
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	var cats, method, extractedAt string
	err := row.Scan(&d.ID, &d.Filename, &d.Title, &d.DocType, &cats, &d.Content, &d.ContentLength, &method, &extractedAt)
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}

	if err := json.Unmarshal([]byte(cats), &d.Categories); err != nil {
		return Document{}, fmt.Errorf("parsing categories: %w", err)
	}
	d.Method = ExtractionMethod(method)
	t, err := time.Parse(time.RFC3339, extractedAt)
	if err != nil {
		return Document{}, fmt.Errorf("parsing extracted_at: %w", err)
	}
	d.ExtractedAt = t
	return d, nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
