package playlist

import (
	"testing"

	"gallery-player/internal/media"
)

func makeItems(ids ...string) []Item {
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item{ID: id, Locator: "loc:" + id, DisplayName: id}
	}
	return items
}

func TestReplaceResetsIndexAndBumpsVersion(t *testing.T) {
	t.Parallel()

	s := NewStore()
	if got := s.CurrentIndex(); got != -1 {
		t.Fatalf("empty store index = %d, want -1", got)
	}

	v1, idx := s.Replace(makeItems("a", "b", "c"), Criteria{}, "")
	if v1 != 1 || idx != 0 {
		t.Fatalf("first replace = (%d, %d), want (1, 0)", v1, idx)
	}

	s.Advance()
	v2, idx := s.Replace(makeItems("x", "y"), Criteria{}, "")
	if v2 != 2 || idx != 0 {
		t.Fatalf("second replace = (%d, %d), want (2, 0)", v2, idx)
	}
}

func TestReplaceAnchorResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ids       []string
		anchor    string
		wantIndex int
	}{
		{"anchor present", []string{"a", "b", "c"}, "b", 1},
		{"anchor missing", []string{"a", "b", "c"}, "zz", 0},
		{"no anchor", []string{"a", "b", "c"}, "", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStore()
			_, idx := s.Replace(makeItems(tt.ids...), Criteria{}, tt.anchor)
			if idx != tt.wantIndex {
				t.Errorf("index = %d, want %d", idx, tt.wantIndex)
			}
		})
	}
}

func TestReplaceEmptyList(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Replace(makeItems("a"), Criteria{}, "")

	_, idx := s.Replace(nil, Criteria{}, "")
	if idx != -1 {
		t.Fatalf("index after empty replace = %d, want -1", idx)
	}
	if _, _, ok := s.Current(); ok {
		t.Fatal("Current returned ok on empty playlist")
	}
	if got := s.Advance(); got != -1 {
		t.Fatalf("Advance on empty playlist = %d, want -1", got)
	}
}

func TestWraparoundNavigation(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Replace(makeItems("a", "b", "c"), Criteria{}, "c")
	if got := s.CurrentIndex(); got != 2 {
		t.Fatalf("start index = %d, want 2", got)
	}

	if got := s.Advance(); got != 0 {
		t.Fatalf("advance from end = %d, want 0", got)
	}
	if got := s.Retreat(); got != 2 {
		t.Fatalf("retreat from start = %d, want 2", got)
	}
	if got := s.Retreat(); got != 1 {
		t.Fatalf("second retreat = %d, want 1", got)
	}
}

func TestReplaceAtClampsIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"in bounds", 1, 1},
		{"beyond end", 10, 2},
		{"negative", -5, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStore()
			_, idx := s.ReplaceAt(makeItems("a", "b", "c"), Criteria{}, tt.index)
			if idx != tt.want {
				t.Errorf("index = %d, want %d", idx, tt.want)
			}
		})
	}
}

func TestAttachHandleVersionCheck(t *testing.T) {
	t.Parallel()

	s := NewStore()
	v1, _ := s.Replace(makeItems("a", "b"), Criteria{}, "")

	h := mustHandle(t)
	if !s.AttachHandle(v1, 1, "loc:b", h) {
		t.Fatal("attach with current version rejected")
	}
	it, _ := s.Item(1)
	if it.Handle != h || !it.OrientationKnown {
		t.Fatal("handle not recorded on item")
	}

	v2, _ := s.Replace(makeItems("a", "b"), Criteria{}, "")
	if s.AttachHandle(v1, 0, "loc:a", h) {
		t.Fatal("attach with superseded version accepted")
	}
	if s.AttachHandle(v2, 0, "loc:other", h) {
		t.Fatal("attach with mismatched locator accepted")
	}
}

func TestStripHandleLeavesResourceAlive(t *testing.T) {
	t.Parallel()

	s := NewStore()
	v, _ := s.Replace(makeItems("a"), Criteria{}, "")
	h := mustHandle(t)
	s.AttachHandle(v, 0, "loc:a", h)

	got := s.StripHandle(0)
	if got != h {
		t.Fatal("StripHandle returned wrong handle")
	}
	if h.Released() {
		t.Fatal("StripHandle must not release the resource")
	}
	it, _ := s.Item(0)
	if it.Handle != nil {
		t.Fatal("item still references stripped handle")
	}
	if s.StripHandle(0) != nil {
		t.Fatal("second strip should return nil")
	}
}

func mustHandle(t *testing.T) *media.Handle {
	t.Helper()
	h, err := media.Materialize("test", testPNG(t), false)
	if err != nil {
		t.Fatalf("failed to materialize test image: %v", err)
	}
	return h
}
