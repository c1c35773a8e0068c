// Package media provides image resource handling: materialized handles
// holding retrieved bytes with probed dimensions, and dimension probing
// for local files.
package media
