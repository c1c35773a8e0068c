// Package index persists probed image metadata (dimensions, orientation)
// for the local source in a SQLite database keyed by root-relative path
// and modification time.
package index
