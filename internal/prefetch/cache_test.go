package prefetch

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"gallery-player/internal/media"
)

func testImageBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func testHandle(t *testing.T, locator string, pinned bool) *media.Handle {
	t.Helper()
	h, err := media.Materialize(locator, testImageBytes(t, 4, 2), pinned)
	if err != nil {
		t.Fatalf("failed to materialize: %v", err)
	}
	return h
}

func TestCacheReserveStates(t *testing.T) {
	t.Parallel()

	c := NewCache()

	h, state := c.Reserve("loc1")
	if state != Reserved || h != nil {
		t.Fatalf("first reserve = (%v, %v), want (nil, Reserved)", h, state)
	}

	if _, state := c.Reserve("loc1"); state != ReserveBusy {
		t.Fatalf("concurrent reserve = %v, want ReserveBusy", state)
	}
	if !c.Busy("loc1") {
		t.Fatal("Busy = false while reserved")
	}

	committed := testHandle(t, "loc1", false)
	c.Commit("loc1", committed)

	if c.Busy("loc1") {
		t.Fatal("Busy = true after commit")
	}
	got, state := c.Reserve("loc1")
	if state != ReserveHit || got != committed {
		t.Fatalf("reserve after commit = (%v, %v), want hit", got, state)
	}
}

func TestCacheReleaseClearsInFlightOnly(t *testing.T) {
	t.Parallel()

	c := NewCache()
	c.Reserve("loc1")
	c.Release("loc1")

	if c.Busy("loc1") {
		t.Fatal("Busy = true after release")
	}
	if _, ok := c.Get("loc1"); ok {
		t.Fatal("release must not store an entry")
	}

	// The slot is claimable again after a failed materialization.
	if _, state := c.Reserve("loc1"); state != Reserved {
		t.Fatalf("re-reserve after release = %v, want Reserved", state)
	}
}

func TestCacheCommitReplacesAndReleasesOld(t *testing.T) {
	t.Parallel()

	c := NewCache()
	old := testHandle(t, "loc1", false)
	c.Reserve("loc1")
	c.Commit("loc1", old)

	replacement := testHandle(t, "loc1", false)
	c.Reserve("loc1") // hit, but Commit must still replace cleanly
	c.Commit("loc1", replacement)

	if !old.Released() {
		t.Fatal("replaced handle was not released")
	}
	got, _ := c.Get("loc1")
	if got != replacement {
		t.Fatal("cache does not hold the replacement")
	}
}

func TestCacheRetainOnly(t *testing.T) {
	t.Parallel()

	c := NewCache()
	keepMe := testHandle(t, "keep", false)
	dropMe := testHandle(t, "drop", false)
	pinned := testHandle(t, "pinned", true)

	for loc, h := range map[string]*media.Handle{"keep": keepMe, "drop": dropMe, "pinned": pinned} {
		c.Reserve(loc)
		c.Commit(loc, h)
	}

	evicted := c.RetainOnly(map[string]bool{"keep": true})
	if evicted != 1 {
		t.Fatalf("evicted = %d, want 1", evicted)
	}
	if _, ok := c.Get("keep"); !ok {
		t.Fatal("kept entry evicted")
	}
	if _, ok := c.Get("pinned"); !ok {
		t.Fatal("pinned entry evicted")
	}
	if _, ok := c.Get("drop"); ok {
		t.Fatal("dropped entry survived")
	}
	if !dropMe.Released() {
		t.Fatal("evicted handle was not released")
	}
	if keepMe.Released() || pinned.Released() {
		t.Fatal("surviving handle was released")
	}
}

func TestCacheRetainOnlyNilEvictsUnpinned(t *testing.T) {
	t.Parallel()

	c := NewCache()
	plain := testHandle(t, "plain", false)
	pinned := testHandle(t, "pinned", true)
	c.Reserve("plain")
	c.Commit("plain", plain)
	c.Reserve("pinned")
	c.Commit("pinned", pinned)

	if evicted := c.RetainOnly(nil); evicted != 1 {
		t.Fatalf("evicted = %d, want 1", evicted)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}

func TestCacheBytesAccounting(t *testing.T) {
	t.Parallel()

	c := NewCache()
	h := testHandle(t, "loc1", false)
	c.Reserve("loc1")
	c.Commit("loc1", h)

	if got := c.Bytes(); got != int64(h.Size()) {
		t.Fatalf("bytes = %d, want %d", got, h.Size())
	}

	c.RetainOnly(nil)
	if got := c.Bytes(); got != 0 {
		t.Fatalf("bytes after eviction = %d, want 0", got)
	}
}
