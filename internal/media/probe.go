package media

import (
	"image"
	"os"

	"gallery-player/internal/logging"

	"github.com/disintegration/imaging"
)

// Dimensions holds a probed image width and height.
type Dimensions struct {
	Width  int
	Height int
}

// Landscape reports whether the probed image is at least as wide as tall.
func (d Dimensions) Landscape() bool {
	return d.Width >= d.Height
}

// ProbeFile reads the dimensions of an image file without fully decoding it.
// When the header probe fails (truncated or unusual files), it falls back to
// a full decode with EXIF auto-orientation applied.
func ProbeFile(path string) (Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}

	cfg, _, err := image.DecodeConfig(file)
	if cerr := file.Close(); cerr != nil {
		logging.Warn("failed to close image file %s: %v", path, cerr)
	}
	if err == nil {
		return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
	}

	logging.Debug("header probe failed for %s: %v, decoding fully", path, err)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Dimensions{}, &DecodeError{Locator: path, Err: err}
	}
	bounds := img.Bounds()
	return Dimensions{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
