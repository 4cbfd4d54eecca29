package corpus

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsIdempotent(t *testing.T) {
	path := t.TempDir() + "/corpus.db"

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestInsertAndGet(t *testing.T) {
	s := openTestStore(t)

	want := Document{
		Filename:   "life_path_guide.pdf",
		Title:      "life path guide",
		DocType:    "guide",
		Categories: []string{"numerology", "calculations"},
		Content:    "The life path number is derived from the full birth date.",
		Method:     MethodStructural,
	}

	id, err := s.Insert(want)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == 0 {
		t.Fatal("Insert returned id 0")
	}

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != want.Filename {
		t.Errorf("Filename = %q, want %q", got.Filename, want.Filename)
	}
	if got.Title != want.Title {
		t.Errorf("Title = %q, want %q", got.Title, want.Title)
	}
	if got.DocType != want.DocType {
		t.Errorf("DocType = %q, want %q", got.DocType, want.DocType)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "numerology" {
		t.Errorf("Categories = %v, want %v", got.Categories, want.Categories)
	}
	if got.ContentLength != len(want.Content) {
		t.Errorf("ContentLength = %d, want %d", got.ContentLength, len(want.Content))
	}
	if got.Method != MethodStructural {
		t.Errorf("Method = %q, want %q", got.Method, MethodStructural)
	}
	if got.ExtractedAt.IsZero() {
		t.Error("ExtractedAt is zero, want defaulted timestamp")
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Get(999); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if _, err := s.Content(999); err != ErrNotFound {
		t.Errorf("Content error = %v, want ErrNotFound", err)
	}
}

func TestInsertReplacesByFilename(t *testing.T) {
	s := openTestStore(t)

	first, err := s.Insert(Document{
		Filename:   "doc.pdf",
		Title:      "doc",
		Categories: []string{"numerology"},
		Content:    "first version",
	})
	if err != nil {
		t.Fatalf("first Insert: %v", err)
	}

	second, err := s.Insert(Document{
		Filename:   "doc.pdf",
		Title:      "doc",
		Categories: []string{"practices"},
		Content:    "second version",
	})
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}

	if second <= first {
		t.Errorf("replacement id %d not fresh (first was %d)", second, first)
	}

	// Exactly one live row for the filename.
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 after re-ingestion", n)
	}

	if _, err := s.Get(first); err != ErrNotFound {
		t.Errorf("old row still readable: err = %v, want ErrNotFound", err)
	}

	// Category index fully rebuilt: old category gone, new one present.
	if docs, _ := s.ListByCategory("numerology"); len(docs) != 0 {
		t.Errorf("old category still indexed: %v", docs)
	}
	docs, err := s.ListByCategory("practices")
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != second {
		t.Errorf("new category lookup = %v, want the replacement row", docs)
	}
}

func TestReIngestUnchangedFileIdempotent(t *testing.T) {
	s := openTestStore(t)

	doc := Document{Filename: "same.txt", Title: "same", Content: "unchanged content"}
	if _, err := s.Insert(doc); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if _, err := s.Insert(doc); err != nil {
		t.Fatalf("second Insert: %v", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want exactly 1 live row", n)
	}
}

func TestCategoriesAndStats(t *testing.T) {
	s := openTestStore(t)

	docs := []Document{
		{Filename: "a.pdf", DocType: "guide", Categories: []string{"numerology", "energy"}, Content: "aaaa", Method: MethodStructural},
		{Filename: "b.pdf", DocType: "practice", Categories: []string{"energy"}, Content: "bbbbbb", Method: MethodRecognized},
		{Filename: "c.txt", DocType: "guide", Categories: nil, Content: "cc", Method: MethodManual},
	}
	for _, d := range docs {
		if _, err := s.Insert(d); err != nil {
			t.Fatalf("Insert %s: %v", d.Filename, err)
		}
	}

	cats, err := s.Categories()
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 2 || cats[0] != "energy" || cats[1] != "numerology" {
		t.Errorf("Categories = %v, want [energy numerology]", cats)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Documents != 3 {
		t.Errorf("Documents = %d, want 3", st.Documents)
	}
	if st.TotalChars != 12 {
		t.Errorf("TotalChars = %d, want 12", st.TotalChars)
	}
	if st.ByType["guide"] != 2 || st.ByType["practice"] != 1 {
		t.Errorf("ByType = %v", st.ByType)
	}
	if st.ByMethod["recognized"] != 1 {
		t.Errorf("ByMethod = %v", st.ByMethod)
	}
	if st.ByCategory["energy"] != 2 {
		t.Errorf("ByCategory = %v", st.ByCategory)
	}
}

func TestAllReturnsInsertOrder(t *testing.T) {
	s := openTestStore(t)

	names := []string{"one.txt", "two.txt", "three.txt"}
	for _, n := range names {
		if _, err := s.Insert(Document{Filename: n, Content: n, ExtractedAt: time.Now()}); err != nil {
			t.Fatalf("Insert %s: %v", n, err)
		}
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d docs, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Errorf("All not in ascending id order: %d after %d", all[i].ID, all[i-1].ID)
		}
	}
}
