package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes before compression
	// is applied.
	MinSize int
	// Level is the gzip compression level.
	Level int
	// CompressibleTypes is a list of content types that should be
	// compressed. Image payloads are deliberately absent: they are
	// already compressed and re-encoding only burns CPU.
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults for compression.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"text/html",
			"text/plain",
			"application/json",
		},
	}
}

// gzipWriterPool reduces allocations by reusing gzip writers.
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter buffers the response until it either exceeds
// MinSize with a compressible content type, in which case the rest
// streams through gzip, or completes small enough to pass through.
type gzipResponseWriter struct {
	http.ResponseWriter
	config        CompressionConfig
	gzipWriter    *gzip.Writer
	buffer        []byte
	statusCode    int
	headerWritten bool
	compressing   bool
	decided       bool
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{
		ResponseWriter: w,
		config:         config,
		statusCode:     http.StatusOK,
		buffer:         make([]byte, 0, config.MinSize+1),
	}
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if g.headerWritten {
		return
	}
	g.statusCode = statusCode
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if g.decided {
		if g.compressing {
			return g.gzipWriter.Write(b)
		}
		return g.ResponseWriter.Write(b)
	}

	g.buffer = append(g.buffer, b...)
	if len(g.buffer) > g.config.MinSize {
		if err := g.decide(); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// decide commits to compressing or passing through based on what has
// been buffered so far.
func (g *gzipResponseWriter) decide() error {
	g.decided = true

	contentType := g.Header().Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(g.buffer)
		g.Header().Set("Content-Type", contentType)
	}

	if len(g.buffer) > g.config.MinSize && g.isCompressible(contentType) {
		g.compressing = true
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")
		g.writeHeaderNow()

		gz := gzipWriterPool.Get().(*gzip.Writer)
		gz.Reset(g.ResponseWriter)
		g.gzipWriter = gz

		_, err := gz.Write(g.buffer)
		g.buffer = nil
		return err
	}

	g.writeHeaderNow()
	_, err := g.ResponseWriter.Write(g.buffer)
	g.buffer = nil
	return err
}

func (g *gzipResponseWriter) writeHeaderNow() {
	if !g.headerWritten {
		g.headerWritten = true
		g.ResponseWriter.WriteHeader(g.statusCode)
	}
}

func (g *gzipResponseWriter) isCompressible(contentType string) bool {
	for _, t := range g.config.CompressibleTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// close flushes whatever state the writer ended in.
func (g *gzipResponseWriter) close() error {
	if !g.decided {
		if !g.headerWritten {
			if len(g.buffer) > 0 && g.Header().Get("Content-Type") == "" {
				g.Header().Set("Content-Type", http.DetectContentType(g.buffer))
			}
			g.Header().Set("Content-Length", strconv.Itoa(len(g.buffer)))
			g.writeHeaderNow()
		}
		if len(g.buffer) > 0 {
			_, err := g.ResponseWriter.Write(g.buffer)
			return err
		}
		return nil
	}

	if g.compressing {
		err := g.gzipWriter.Close()
		gzipWriterPool.Put(g.gzipWriter)
		g.gzipWriter = nil
		return err
	}
	return nil
}

// Compression returns a middleware that gzips compressible responses for
// clients that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := newGzipResponseWriter(w, config)
			next.ServeHTTP(gw, r)
			if err := gw.close(); err != nil {
				// The client likely went away mid-response.
				return
			}
		})
	}
}
