package source

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gallery-player/internal/index"
	"gallery-player/internal/mediatypes"
)

// writePNG drops a w x h PNG at rel under root, creating directories as
// needed.
func writePNG(t *testing.T, root, rel string, w, h int) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if err := os.WriteFile(full, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func testTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	writePNG(t, root, "a/img2.png", 8, 4)
	writePNG(t, root, "a/img10.png", 4, 8)
	writePNG(t, root, "b/pic.png", 6, 6)
	writePNG(t, root, ".cache/skip.png", 4, 4)

	if err := os.WriteFile(filepath.Join(root, "a/notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write notes: %v", err)
	}
	return root
}

func TestLocalListScansAndOrders(t *testing.T) {
	t.Parallel()

	l, err := NewLocal(testTree(t), nil)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	entries, err := l.List(context.Background(), ListRequest{Sort: mediatypes.SortName})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"a/img2.png", "a/img10.png", "b/pic.png"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.ID != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, e.ID, want[i])
		}
		if !e.OrientationKnown {
			t.Errorf("entries[%d] orientation unknown after probe", i)
		}
	}
	if !entries[0].Landscape || entries[1].Landscape {
		t.Error("probed orientations wrong")
	}
}

func TestLocalListOrientationFilter(t *testing.T) {
	t.Parallel()

	l, err := NewLocal(testTree(t), nil)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	entries, err := l.List(context.Background(), ListRequest{
		Sort:        mediatypes.SortName,
		Orientation: mediatypes.OrientationPortrait,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "a/img10.png" {
		t.Fatalf("portrait entries = %+v", entries)
	}
}

func TestLocalListSelectedSubfolder(t *testing.T) {
	t.Parallel()

	l, err := NewLocal(testTree(t), nil)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	entries, err := l.List(context.Background(), ListRequest{
		Paths: []string{"a"},
		Sort:  mediatypes.SortName,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if filepath.Dir(e.ID) != "a" {
			t.Errorf("entry %q outside selected folder", e.ID)
		}
	}
}

func TestLocalListMemoizesProbesInIndex(t *testing.T) {
	t.Parallel()

	root := testTree(t)
	ix, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() { ix.Close() })

	l, err := NewLocal(root, ix)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	if _, err := l.List(context.Background(), ListRequest{Sort: mediatypes.SortName}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if n, _ := ix.Count(); n != 3 {
		t.Fatalf("index count = %d, want 3", n)
	}

	// A root scan prunes entries whose files vanished.
	if err := os.Remove(filepath.Join(root, "b/pic.png")); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}
	entries, err := l.List(context.Background(), ListRequest{Sort: mediatypes.SortName})
	if err != nil {
		t.Fatalf("second List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries after removal, want 2", len(entries))
	}
	if n, _ := ix.Count(); n != 2 {
		t.Fatalf("index count after prune = %d, want 2", n)
	}
}

func TestLocalRetrieveAndEscapeRejection(t *testing.T) {
	t.Parallel()

	l, err := NewLocal(testTree(t), nil)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	data, err := l.Retrieve(context.Background(), "a/img2.png")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty bytes")
	}

	if _, err := l.Retrieve(context.Background(), "../outside.png"); err == nil {
		t.Fatal("escaping id must be rejected")
	}
}

func TestLocalValidatePlaylist(t *testing.T) {
	t.Parallel()

	l, err := NewLocal(testTree(t), nil)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	valid, err := l.ValidatePlaylist(context.Background(), []string{
		"a/img2.png",
		"deleted/gone.png",
		"b/pic.png",
		"../escape.png",
	})
	if err != nil {
		t.Fatalf("ValidatePlaylist failed: %v", err)
	}
	if len(valid) != 2 || valid[0] != "a/img2.png" || valid[1] != "b/pic.png" {
		t.Fatalf("valid = %v", valid)
	}
}

func TestLocalPinnedAndLocator(t *testing.T) {
	t.Parallel()

	root := testTree(t)
	l, err := NewLocal(root, nil)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	// Local handles carry materialized bytes, so they must stay
	// evictable; display falls back to re-reading the file.
	if l.Pinned() {
		t.Error("local handles must not be exempt from reclamation")
	}
	if got := l.Locator("a/img2.png"); got != filepath.Join(l.Root(), "a", "img2.png") {
		t.Errorf("locator = %q", got)
	}
}
