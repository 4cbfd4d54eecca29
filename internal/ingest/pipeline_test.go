package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/deidexdd-hash/numBase/internal/classify"
	"github.com/deidexdd-hash/numBase/internal/corpus"
	"github.com/deidexdd-hash/numBase/internal/extract"
	"github.com/deidexdd-hash/numBase/internal/search"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func newTestPipeline(t *testing.T) (*Pipeline, *corpus.Store) {
	t.Helper()
	s, err := corpus.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })

	p := New(extract.New(nil), classify.New(nil, nil), s, search.New(s, 0), 1)
	return p, s
}

func TestDirIngestsSupportedFiles(t *testing.T) {
	p, s := newTestPipeline(t)
	dir := t.TempDir()

	writeSource(t, dir, "chakra_guide.txt", "Практика работы с чакрами и энергией. Поток и вибрации.")
	writeSource(t, dir, "notes.md", "# Notes\n\nThe life path number and destiny in numerology.")
	writeSource(t, dir, "image.png", "binary-ish")

	report, err := p.Dir(context.Background(), dir)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}

	if report.Processed != 2 {
		t.Errorf("Processed = %d, want 2", report.Processed)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (unsupported extension)", report.Skipped)
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}
	if report.ID == "" {
		t.Error("report ID is empty")
	}
	if report.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", report.Indexed)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("store Count = %d, want 2", n)
	}

	// Index rebuilt: search finds the new documents without extra calls.
	ix := search.New(s, 0)
	if got := ix.Search(context.Background(), "чакрами", 10, ""); len(got) != 1 {
		t.Errorf("post-ingest search returned %d results, want 1", len(got))
	}
}

func TestFailureDoesNotAbortBatch(t *testing.T) {
	p, s := newTestPipeline(t)
	dir := t.TempDir()

	writeSource(t, dir, "broken.pdf", "%PDF-1.4 not really a pdf")
	writeSource(t, dir, "fine.txt", "Расчет финансового канала по формуле дохода.")

	report, err := p.Dir(context.Background(), dir)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if report.Processed != 1 {
		t.Errorf("Processed = %d, want 1", report.Processed)
	}

	n, _ := s.Count()
	if n != 1 {
		t.Errorf("store Count = %d, want 1", n)
	}
}

func TestReportFilesSortedByName(t *testing.T) {
	p, _ := newTestPipeline(t)
	dir := t.TempDir()

	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		writeSource(t, dir, name, "содержимое про число судьбы и нумерологию")
	}

	report, err := p.Dir(context.Background(), dir)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if len(report.Files) != 3 {
		t.Fatalf("got %d file entries, want 3", len(report.Files))
	}
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if report.Files[i].Filename != want {
			t.Errorf("Files[%d] = %q, want %q", i, report.Files[i].Filename, want)
		}
	}
}

func TestMissingDirectory(t *testing.T) {
	p, _ := newTestPipeline(t)
	if _, err := p.Dir(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

type failingStore struct{}

func (failingStore) Insert(corpus.Document) (int64, error) {
	return 0, errors.New("disk full")
}

func TestStoreFailureIsPerFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "doc.txt", "нумерология и число судьбы в расчетах")

	p := New(extract.New(nil), classify.New(nil, nil), failingStore{}, nil, 1)
	report, err := p.Dir(context.Background(), dir)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if report.Failed != 1 || report.Processed != 0 {
		t.Errorf("report = %+v, want one failure", report)
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"life_path_guide.pdf", "life path guide"},
		{"расчет_судьбы.pdf", "расчет судьбы"},
		{"plain.txt", "plain"},
		{"no_ext", "no ext"},
	}
	for _, tc := range tests {
		if got := TitleFromFilename(tc.in); got != tc.want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
