// Package workers computes worker pool sizes from available CPUs,
// honoring container CPU limits and a SCAN_WORKERS override.
package workers
