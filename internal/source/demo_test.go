package source

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"testing"

	"gallery-player/internal/mediatypes"
)

func TestDemoListOrientationFilter(t *testing.T) {
	t.Parallel()

	demo := NewDemo(10)
	ctx := context.Background()

	tests := []struct {
		name        string
		orientation mediatypes.Orientation
		wantCount   int
	}{
		{"any", mediatypes.OrientationAny, 10},
		{"landscape only", mediatypes.OrientationLandscape, 5},
		{"portrait only", mediatypes.OrientationPortrait, 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries, err := demo.List(ctx, ListRequest{
				Sort:        mediatypes.SortName,
				Orientation: tt.orientation,
			})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(entries) != tt.wantCount {
				t.Fatalf("count = %d, want %d", len(entries), tt.wantCount)
			}
			for _, e := range entries {
				if !tt.orientation.Matches(e.Landscape) {
					t.Errorf("entry %s violates orientation filter", e.ID)
				}
			}
		})
	}
}

func TestDemoListNaturalOrderAndReverse(t *testing.T) {
	t.Parallel()

	demo := NewDemo(12)
	ctx := context.Background()

	entries, err := demo.List(ctx, ListRequest{Sort: mediatypes.SortName})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if entries[0].ID != "slide1.jpg" || entries[2].ID != "slide3.jpg" || entries[11].ID != "slide12.jpg" {
		t.Fatalf("natural order wrong: %s ... %s", entries[0].ID, entries[11].ID)
	}

	reversed, err := demo.List(ctx, ListRequest{Sort: mediatypes.SortName, Direction: mediatypes.DirectionReverse})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if reversed[0].ID != "slide12.jpg" {
		t.Fatalf("reverse order wrong: first = %s", reversed[0].ID)
	}
}

func TestDemoRetrieveProducesDecodableImage(t *testing.T) {
	t.Parallel()

	demo := NewDemo(4)
	data, err := demo.Retrieve(context.Background(), "slide1.jpg")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("generated image does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %s, want jpeg", format)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
}

func TestDemoRetrieveUnknownID(t *testing.T) {
	t.Parallel()

	demo := NewDemo(4)
	if _, err := demo.Retrieve(context.Background(), "slide99.jpg"); err == nil {
		t.Fatal("expected error for out-of-range item")
	}
	if _, err := demo.Retrieve(context.Background(), "nonsense"); err == nil {
		t.Fatal("expected error for malformed id")
	}
}
