// Package ingest walks source files through extraction, classification,
// and corpus storage, then rebuilds the full-text index once per batch.
// Per-file failures are recorded and skipped; they never abort the batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deidexdd-hash/numBase/internal/corpus"
	"github.com/deidexdd-hash/numBase/internal/extract"
)

// TextExtractor produces cleaned text for one file.
type TextExtractor interface {
	File(path string) (extract.Result, error)
}

// Categorizer tags extracted text.
type Categorizer interface {
	Classify(text, filename string) (categories []string, docType string)
}

// DocumentStore persists classified documents.
type DocumentStore interface {
	Insert(doc corpus.Document) (int64, error)
}

// IndexRebuilder refreshes the derived full-text index after a batch.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// FileStatus is the per-file outcome inside a Report.
type FileStatus struct {
	Filename string `json:"filename"`
	DocID    int64  `json:"doc_id,omitempty"`
	Status   string `json:"status"` // processed, skipped, failed
	Error    string `json:"error,omitempty"`
	Chars    int    `json:"chars,omitempty"`
}

// Report summarizes one ingestion batch.
type Report struct {
	ID         string        `json:"id"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Recognized int           `json:"recognized"`
	TotalChars int64         `json:"total_chars"`
	Indexed    int           `json:"indexed"`
	Elapsed    time.Duration `json:"elapsed"`
	Files      []FileStatus  `json:"files"`
}

// Pipeline ingests files into the corpus.
type Pipeline struct {
	extractor  TextExtractor
	classifier Categorizer
	store      DocumentStore
	index      IndexRebuilder
	workers    int
	logger     *slog.Logger
}

// New creates a Pipeline. workers <= 0 selects a single worker, which
// matches the single-connection store.
func New(extractor TextExtractor, classifier Categorizer, store DocumentStore, index IndexRebuilder, workers int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		extractor:  extractor,
		classifier: classifier,
		store:      store,
		index:      index,
		workers:    workers,
		logger:     slog.Default(),
	}
}

// supported extensions, everything else is skipped rather than failed.
var supportedExts = map[string]bool{
	".pdf": true, ".txt": true, ".md": true, ".html": true, ".htm": true,
}

// Dir ingests every supported file directly under dir, then rebuilds the
// full-text index once.
func (p *Pipeline) Dir(ctx context.Context, dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("reading source directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return p.Files(ctx, paths)
}

// Files ingests the given files, then rebuilds the full-text index once.
func (p *Pipeline) Files(ctx context.Context, paths []string) (Report, error) {
	start := time.Now()
	report := Report{ID: uuid.New().String()}

	var mu sync.Mutex
	record := func(fs FileStatus) {
		mu.Lock()
		defer mu.Unlock()
		report.Files = append(report.Files, fs)
		switch fs.Status {
		case "processed":
			report.Processed++
			report.TotalChars += int64(fs.Chars)
		case "skipped":
			report.Skipped++
		case "failed":
			report.Failed++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			fs, recognized := p.one(path)
			record(fs)
			if recognized {
				mu.Lock()
				report.Recognized++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	// Deterministic report order regardless of worker scheduling.
	sort.Slice(report.Files, func(i, j int) bool {
		return report.Files[i].Filename < report.Files[j].Filename
	})

	if p.index != nil && report.Processed > 0 {
		n, err := p.index.Rebuild(ctx)
		if err != nil {
			return report, fmt.Errorf("rebuilding index: %w", err)
		}
		report.Indexed = n
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// one ingests a single file and never returns an error; failures become
// the file's status.
func (p *Pipeline) one(path string) (FileStatus, bool) {
	name := filepath.Base(path)

	if !supportedExts[strings.ToLower(filepath.Ext(name))] {
		return FileStatus{Filename: name, Status: "skipped", Error: "unsupported extension"}, false
	}

	res, err := p.extractor.File(path)
	if err != nil {
		p.logger.Warn("extraction failed", "file", name, "error", err)
		return FileStatus{Filename: name, Status: "failed", Error: err.Error()}, false
	}
	if res.Text == "" {
		return FileStatus{Filename: name, Status: "skipped", Error: "no text extracted"}, false
	}

	categories, docType := p.classifier.Classify(res.Text, name)

	method := corpus.MethodStructural
	if res.Recognized {
		method = corpus.MethodRecognized
	}

	id, err := p.store.Insert(corpus.Document{
		Filename:   name,
		Title:      TitleFromFilename(name),
		DocType:    docType,
		Categories: categories,
		Content:    res.Text,
		Method:     method,
	})
	if err != nil {
		p.logger.Warn("storing document failed", "file", name, "error", err)
		return FileStatus{Filename: name, Status: "failed", Error: err.Error()}, false
	}

	p.logger.Info("ingested document", "file", name, "doc_id", id, "chars", len(res.Text), "method", method)
	return FileStatus{Filename: name, DocID: id, Status: "processed", Chars: len(res.Text)}, res.Recognized
}

// TitleFromFilename derives a human title from a filename: extension
// stripped, underscores become spaces.
func TitleFromFilename(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))
}
