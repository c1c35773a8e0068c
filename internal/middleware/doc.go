// Package middleware provides HTTP middleware for the gallery player.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - Response compression (gzip) for the JSON control surface
package middleware
