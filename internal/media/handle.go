package media

import (
	"bytes"
	"fmt"
	"image"
	"sync/atomic"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

// DecodeError indicates that retrieved bytes could not be decoded as an
// image. It is swallowed by the prefetcher; the affected item falls back
// to direct retrieval at display time.
type DecodeError struct {
	Locator string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Locator, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Handle is a materialized, directly renderable image resource: the raw
// bytes plus the probed dimensions. Handles are created by the prefetcher
// and must be released exactly once, by cache eviction.
type Handle struct {
	data     []byte
	released atomic.Bool

	// Width and Height come from the image header probe.
	Width  int
	Height int
	// Format is the decoded format name ("jpeg", "png", ...).
	Format string
	// Pinned marks handles backed by a stable local reference.
	// Pinned handles are exempt from window reclamation.
	Pinned bool
}

// Materialize probes the image header in data and wraps it into a Handle.
// A probe failure returns a *DecodeError.
func Materialize(locator string, data []byte, pinned bool) (*Handle, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Locator: locator, Err: err}
	}
	return &Handle{
		data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Pinned: pinned,
	}, nil
}

// Bytes returns the raw image bytes, or nil after release.
func (h *Handle) Bytes() []byte {
	if h == nil || h.released.Load() {
		return nil
	}
	return h.data
}

// Size returns the byte size of the held resource.
func (h *Handle) Size() int {
	if h == nil || h.released.Load() {
		return 0
	}
	return len(h.data)
}

// Landscape reports whether the image is at least as wide as it is tall.
func (h *Handle) Landscape() bool {
	return h.Width >= h.Height
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	return h.released.Load()
}

// Release drops the held bytes. Safe to call more than once.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	if h.released.CompareAndSwap(false, true) {
		h.data = nil
	}
}
