// Package playlist owns the ordered slideshow state: item descriptors,
// the versioned snapshot store, and the canonical criteria signature that
// identifies a filter/sort/source configuration.
package playlist
