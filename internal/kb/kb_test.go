package kb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/deidexdd-hash/numBase/internal/catalogue"
	"github.com/deidexdd-hash/numBase/internal/corpus"
	"github.com/deidexdd-hash/numBase/internal/numerology"
)

func testCatalogue() *catalogue.Catalogue {
	return catalogue.New(
		[]catalogue.Formula{
			{ID: "life_path", Name: "Life Path", Description: "Sum of the full birth date."},
			{ID: "financial_channel", Name: "Financial Channel", Description: "Money flow by date."},
		},
		[]catalogue.NumberMeaning{
			{Value: 4, Title: "The Builder"},
		},
	)
}

func TestCalculateAll(t *testing.T) {
	k := New(testCatalogue(), "")

	bundle, err := k.CalculateAll(15, 6, 1990, "")
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}
	if bundle.LifePath.Value != 4 {
		t.Errorf("LifePath = %d, want 4", bundle.LifePath.Value)
	}
	if bundle.Destiny != nil {
		t.Error("Destiny != nil for blank name")
	}
	if bundle.LifePath.Meaning.Title != "The Builder" {
		t.Errorf("Meaning.Title = %q", bundle.LifePath.Meaning.Title)
	}
}

func TestCalculateAllRejectsBadDate(t *testing.T) {
	k := New(testCatalogue(), "")

	_, err := k.CalculateAll(32, 6, 1990, "")
	var invalid *numerology.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidInputError", err)
	}
}

func TestSearchWithoutStoreFallsBackToCatalogue(t *testing.T) {
	k := New(testCatalogue(), filepath.Join(t.TempDir(), "absent.db"))

	resp := k.Search(context.Background(), "financial", 10, "")
	if resp.StoreAvailable {
		t.Error("StoreAvailable = true without a database file")
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Financial Channel" {
		t.Errorf("Results = %+v, want the matching formula", resp.Results)
	}
	if resp.Results[0].DocType != "formula" {
		t.Errorf("DocType = %q, want formula", resp.Results[0].DocType)
	}
}

func TestDocumentContentWithoutStore(t *testing.T) {
	k := New(testCatalogue(), filepath.Join(t.TempDir(), "absent.db"))

	if _, err := k.DocumentContent(1); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
}

func TestAddDocumentAndSearch(t *testing.T) {
	k := New(testCatalogue(), ":memory:")
	t.Cleanup(func() { k.Close() })
	ctx := context.Background()

	id, err := k.AddDocument(ctx, corpus.Document{
		Filename:   "manual_note.txt",
		Title:      "manual note",
		Categories: []string{"numerology"},
		Content:    "The karmic number appears in the birth chart.",
	})
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if id == 0 {
		t.Fatal("AddDocument returned id 0")
	}

	doc, err := k.Document(id)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.Method != corpus.MethodManual {
		t.Errorf("Method = %q, want manual", doc.Method)
	}

	// Immediately searchable without an explicit rebuild.
	resp := k.Search(ctx, "karmic", 10, "")
	if !resp.StoreAvailable {
		t.Fatal("StoreAvailable = false after AddDocument")
	}
	if resp.Total != 1 || resp.Results[0].ID != id {
		t.Errorf("search = %+v, want the new document", resp)
	}

	content, err := k.DocumentContent(id)
	if err != nil {
		t.Fatalf("DocumentContent: %v", err)
	}
	if content != doc.Content {
		t.Errorf("content mismatch: %q", content)
	}
}

func TestDocumentNotFound(t *testing.T) {
	k := New(testCatalogue(), ":memory:")
	t.Cleanup(func() { k.Close() })

	if _, err := k.AttachStore(); err != nil {
		t.Fatalf("AttachStore: %v", err)
	}
	if _, err := k.Document(999); !errors.Is(err, corpus.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestStats(t *testing.T) {
	k := New(testCatalogue(), ":memory:")
	t.Cleanup(func() { k.Close() })

	st := k.Stats()
	if st.Formulas != 2 || st.NumberMeanings != 1 {
		t.Errorf("Stats = %+v", st)
	}
	if !st.StoreAvailable {
		t.Error("StoreAvailable = false for in-memory store")
	}
	if st.Corpus == nil || st.Corpus.Documents != 0 {
		t.Errorf("Corpus stats = %+v, want zero documents", st.Corpus)
	}
}

func TestStatsWithoutStore(t *testing.T) {
	k := New(testCatalogue(), filepath.Join(t.TempDir(), "absent.db"))

	st := k.Stats()
	if st.StoreAvailable {
		t.Error("StoreAvailable = true without a database file")
	}
	if st.Corpus != nil {
		t.Errorf("Corpus = %+v, want nil", st.Corpus)
	}
}

func TestCategoriesWithoutStoreIsEmpty(t *testing.T) {
	k := New(testCatalogue(), "")
	if got := k.Categories(); len(got) != 0 {
		t.Errorf("Categories = %v, want empty", got)
	}
}
