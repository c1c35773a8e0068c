// Package mediatypes defines the shared vocabulary for playlist requests:
// sort modes, direction, orientation filtering, and the supported image
// extensions with their MIME types.
package mediatypes
