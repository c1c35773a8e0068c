package index

import (
	"path/filepath"
	"testing"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() {
		if err := ix.Close(); err != nil {
			t.Errorf("failed to close index: %v", err)
		}
	})
	return ix
}

func TestLookupAfterUpsert(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t)
	rec := Record{Path: "a/img.jpg", MTime: 1000, Width: 800, Height: 600, Landscape: true}
	if err := ix.Upsert(rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, ok := ix.Lookup("a/img.jpg", 1000)
	if !ok {
		t.Fatal("Lookup missed a fresh record")
	}
	if got.Width != 800 || got.Height != 600 || !got.Landscape {
		t.Fatalf("record = %+v", got)
	}
}

func TestLookupStaleMTimeIsMiss(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t)
	if err := ix.Upsert(Record{Path: "a/img.jpg", MTime: 1000, Width: 10, Height: 20}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if _, ok := ix.Lookup("a/img.jpg", 2000); ok {
		t.Fatal("stale mtime must be a miss")
	}
	if _, ok := ix.Lookup("missing.jpg", 1000); ok {
		t.Fatal("unknown path must be a miss")
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t)
	ix.Upsert(Record{Path: "p.jpg", MTime: 1, Width: 10, Height: 5, Landscape: true})
	if err := ix.Upsert(Record{Path: "p.jpg", MTime: 2, Width: 5, Height: 10, Landscape: false}); err != nil {
		t.Fatalf("replacing upsert failed: %v", err)
	}

	got, ok := ix.Lookup("p.jpg", 2)
	if !ok || got.Landscape {
		t.Fatalf("record not replaced: %+v (ok=%v)", got, ok)
	}
	if n, _ := ix.Count(); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestUpsertBatchAndPrune(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t)
	batch := []Record{
		{Path: "keep1.jpg", MTime: 1, Width: 4, Height: 2, Landscape: true},
		{Path: "keep2.jpg", MTime: 1, Width: 2, Height: 4},
		{Path: "gone.jpg", MTime: 1, Width: 4, Height: 4, Landscape: true},
	}
	if err := ix.UpsertBatch(batch); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
	if err := ix.UpsertBatch(nil); err != nil {
		t.Fatalf("empty batch errored: %v", err)
	}

	pruned, err := ix.Prune(map[string]bool{"keep1.jpg": true, "keep2.jpg": true})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}

	if _, ok := ix.Lookup("gone.jpg", 1); ok {
		t.Fatal("pruned record still loads")
	}
	if n, _ := ix.Count(); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}
