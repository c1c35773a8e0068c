// Package memory provides heap-pressure backpressure for the prefetcher.
//
// A Monitor samples runtime heap usage against a soft limit (explicit or
// GOMEMLIMIT) and raises a pause signal above a critical watermark. The
// prefetch scheduler checks the signal before enqueueing new
// materializations, so an image burst cannot OOM a memory-constrained
// player box. The signal clears once usage drops below the resume
// watermark.
package memory
