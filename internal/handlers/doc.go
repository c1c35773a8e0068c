// Package handlers implements the HTTP control surface: player state,
// the current image, navigation, pause/overlay toggles, criteria
// updates, and health/version probes.
package handlers
