package corpus

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// ExtractionMethod records how a document's text was obtained.
type ExtractionMethod string

const (
	// MethodStructural means the text came from the file's own text layer.
	MethodStructural ExtractionMethod = "structural"
	// MethodRecognized means the text came from page-image recognition.
	MethodRecognized ExtractionMethod = "recognized"
	// MethodManual means the document was inserted directly, not extracted.
	MethodManual ExtractionMethod = "manual"
)

// Document is one row of the corpus. Content is immutable after insert;
// re-ingestion replaces the whole row under a fresh id.
type Document struct {
	ID            int64            `json:"id"`
	Filename      string           `json:"filename"`
	Title         string           `json:"title"`
	DocType       string           `json:"doc_type"`
	Categories    []string         `json:"categories"`
	Content       string           `json:"content,omitempty"`
	ContentLength int              `json:"content_length"`
	Method        ExtractionMethod `json:"extraction_method"`
	ExtractedAt   time.Time        `json:"extracted_at"`
}

// Stats summarizes the corpus by size and composition.
type Stats struct {
	Documents  int            `json:"documents"`
	TotalChars int64          `json:"total_chars"`
	ByType     map[string]int `json:"by_type"`
	ByMethod   map[string]int `json:"by_method"`
	ByCategory map[string]int `json:"by_category"`
}
