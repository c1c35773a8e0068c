package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"gallery-player/internal/mediatypes"

	"github.com/disintegration/imaging"
)

// Demo generates a synthetic playlist with no server or photo tree,
// useful for first-run setups and for exercising the full prefetch path
// in development. Items alternate landscape/portrait so orientation
// filtering has something to bite on.
type Demo struct {
	count int
}

// NewDemo creates a demo source with count generated items.
func NewDemo(count int) *Demo {
	if count <= 0 {
		count = 24
	}
	return &Demo{count: count}
}

// ID returns the source identity used for signatures and session keying.
func (d *Demo) ID() string {
	return fmt.Sprintf("demo:%d", d.count)
}

// Pinned reports false: demo handles are synthesized in memory and
// reclaimed like remote ones.
func (d *Demo) Pinned() bool {
	return false
}

// Locator returns a synthetic address for an item id.
func (d *Demo) Locator(id string) string {
	return "demo://" + id
}

func (d *Demo) idAt(i int) string {
	return fmt.Sprintf("slide%d.jpg", i+1)
}

func (d *Demo) landscapeAt(i int) bool {
	return i%2 == 0
}

// List produces the generated item list under the requested ordering.
// Date order follows generation order, newest last, so reverse-date
// walks the set backwards.
func (d *Demo) List(_ context.Context, req ListRequest) ([]Entry, error) {
	items := make([]itemMeta, d.count)
	for i := 0; i < d.count; i++ {
		items[i] = itemMeta{
			id:        d.idAt(i),
			name:      d.idAt(i),
			mtime:     int64(i),
			landscape: d.landscapeAt(i),
		}
	}

	filtered := items[:0]
	for _, it := range items {
		if req.Orientation.Matches(it.landscape) {
			filtered = append(filtered, it)
		}
	}

	orderItems(filtered, req.Sort)
	return toEntries(filtered, req.Direction == mediatypes.DirectionReverse), nil
}

// Retrieve synthesizes the image bytes for an item id: a flat-shaded
// frame whose hue is derived from the slide number.
func (d *Demo) Retrieve(_ context.Context, id string) ([]byte, error) {
	var n int
	if _, err := fmt.Sscanf(id, "slide%d.jpg", &n); err != nil || n < 1 || n > d.count {
		return nil, &TransportError{Op: "retrieve " + id, Err: fmt.Errorf("unknown demo item")}
	}

	w, h := 640, 480
	if !d.landscapeAt(n - 1) {
		w, h = 480, 640
	}

	base := imaging.New(w, h, shade(n))
	frame := imaging.Paste(base, imaging.New(w-40, h-40, shade(n+7)), image.Pt(20, 20))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode demo image: %w", err)
	}
	return buf.Bytes(), nil
}

// shade maps a slide number onto a stable, distinct color.
func shade(n int) color.NRGBA {
	return color.NRGBA{
		R: uint8(37 * n),
		G: uint8(91 * n),
		B: uint8(151 * n),
		A: 255,
	}
}
