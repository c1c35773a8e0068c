package mediatypes

import "strings"

// SortMode specifies how a playlist request orders its results.
type SortMode string

const (
	// SortShuffle orders items randomly.
	SortShuffle SortMode = "shuffle"
	// SortName orders items by natural (numeric-aware) name comparison.
	SortName SortMode = "name"
	// SortDate orders items by modification time, newest first.
	SortDate SortMode = "date"
	// SortSubfolderShuffle shuffles subfolders, natural name order inside each.
	SortSubfolderShuffle SortMode = "subfolder_random"
	// SortSubfolderDate orders subfolders by modification time, natural name order inside each.
	SortSubfolderDate SortMode = "subfolder_date"
)

// Direction specifies whether the ordered result is consumed front-to-back
// or reversed.
type Direction string

const (
	// DirectionForward keeps the sorted order as-is.
	DirectionForward Direction = "forward"
	// DirectionReverse reverses the sorted order.
	DirectionReverse Direction = "reverse"
)

// Orientation filters items by their aspect.
type Orientation string

const (
	// OrientationAny accepts both landscape and portrait items.
	OrientationAny Orientation = "any"
	// OrientationLandscape accepts only items at least as wide as tall.
	OrientationLandscape Orientation = "landscape"
	// OrientationPortrait accepts only items taller than wide.
	OrientationPortrait Orientation = "portrait"
)

// ParseSortMode normalizes a user- or wire-supplied sort mode string.
// Unknown values fall back to SortShuffle.
func ParseSortMode(s string) SortMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "natural", "natural-name":
		return SortName
	case "date", "modification-date", "mtime":
		return SortDate
	case "subfolder_random", "subfolder-random":
		return SortSubfolderShuffle
	case "subfolder_date", "subfolder-date":
		return SortSubfolderDate
	default:
		return SortShuffle
	}
}

// ParseDirection normalizes a direction string, defaulting to forward.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(DirectionReverse)) {
		return DirectionReverse
	}
	return DirectionForward
}

// ParseOrientation normalizes an orientation filter string, defaulting to any.
func ParseOrientation(s string) Orientation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "landscape":
		return OrientationLandscape
	case "portrait":
		return OrientationPortrait
	default:
		return OrientationAny
	}
}

// Matches reports whether an item with the given aspect passes the filter.
func (o Orientation) Matches(landscape bool) bool {
	switch o {
	case OrientationLandscape:
		return landscape
	case OrientationPortrait:
		return !landscape
	default:
		return true
	}
}

// ImageExtensions maps file extensions to whether they are supported image formats.
// SVG is excluded because its dimensions cannot be probed from the header.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// MimeTypes maps supported image extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// IsImage reports whether the extension (with leading dot, any case)
// is a supported image format.
func IsImage(ext string) bool {
	return ImageExtensions[strings.ToLower(ext)]
}

// MimeType returns the MIME type for a supported image extension,
// or application/octet-stream when unknown.
func MimeType(ext string) string {
	if mt, ok := MimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}
