package source

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gallery-player/internal/filesystem"
	"gallery-player/internal/index"
	"gallery-player/internal/logging"
	"gallery-player/internal/media"
	"gallery-player/internal/mediatypes"
	"gallery-player/internal/metrics"
	"gallery-player/internal/workers"
)

// probeWorkerLimit caps the dimension-probe pool; photo trees on NFS do
// not benefit from more parallel readers.
const probeWorkerLimit = 8

// Local serves a photo tree on the filesystem. Item ids are root-relative
// slash-separated paths; dimension probes are memoized in the metadata
// index keyed by (path, mtime).
type Local struct {
	root  string
	idx   *index.Index
	retry filesystem.RetryConfig
}

// NewLocal creates a local source rooted at root. idx may be nil, in
// which case every scan probes dimensions from scratch.
func NewLocal(root string, idx *index.Index) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media root: %w", err)
	}
	if _, err := filesystem.StatWithRetry(abs, filesystem.DefaultRetryConfig()); err != nil {
		return nil, fmt.Errorf("media root not accessible: %w", err)
	}
	return &Local{
		root:  abs,
		idx:   idx,
		retry: filesystem.DefaultRetryConfig(),
	}, nil
}

// Root returns the absolute media root directory.
func (l *Local) Root() string {
	return l.root
}

// ID returns the source identity used for signatures and session keying.
func (l *Local) ID() string {
	return "local:" + l.root
}

// Pinned reports false: local handles hold fully decoded byte buffers
// just like remote ones, and keeping every visited image resident would
// void the keep-window memory bound. An evicted item re-reads from disk
// at display time.
func (l *Local) Pinned() bool {
	return false
}

// Locator returns the absolute file path for an item id.
func (l *Local) Locator(id string) string {
	return filepath.Join(l.root, filepath.FromSlash(id))
}

// Retrieve reads the raw bytes for an item id.
func (l *Local) Retrieve(_ context.Context, id string) ([]byte, error) {
	full, err := l.resolve(id)
	if err != nil {
		return nil, err
	}
	data, err := filesystem.ReadFileWithRetry(full, l.retry)
	if err != nil {
		return nil, &TransportError{Op: "read " + id, Err: err}
	}
	return data, nil
}

// resolve maps an id onto an absolute path, rejecting escapes from the root.
func (l *Local) resolve(id string) (string, error) {
	full := filepath.Clean(filepath.Join(l.root, filepath.FromSlash(id)))
	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("item id escapes media root: %s", id)
	}
	return full, nil
}

// List scans the requested paths, applies the orientation filter, and
// orders the result. An empty result is not an error.
func (l *Local) List(ctx context.Context, req ListRequest) ([]Entry, error) {
	start := time.Now()

	items, scannedRoot, err := l.scan(ctx, req.Paths)
	if err != nil {
		return nil, err
	}

	if err := l.probe(ctx, items); err != nil {
		return nil, err
	}

	if l.idx != nil && scannedRoot {
		keep := make(map[string]bool, len(items))
		for i := range items {
			keep[items[i].id] = true
		}
		if _, err := l.idx.Prune(keep); err != nil {
			logging.Warn("index prune failed: %v", err)
		}
	}

	filtered := items[:0]
	for _, it := range items {
		if req.Orientation.Matches(it.landscape) {
			filtered = append(filtered, it)
		}
	}

	orderItems(filtered, req.Sort)
	entries := toEntries(filtered, req.Direction == mediatypes.DirectionReverse)

	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	logging.Debug("local scan: %d items (%d after filter) in %v",
		len(items), len(entries), time.Since(start))
	return entries, nil
}

// scan walks the requested paths and collects candidate image files.
// scannedRoot reports whether the selection covered the entire root, which
// makes it safe to prune the metadata index afterwards.
func (l *Local) scan(ctx context.Context, paths []string) ([]itemMeta, bool, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var items []itemMeta
	seen := make(map[string]bool)
	folderMTimes := make(map[string]int64)
	scannedRoot := false

	for _, p := range paths {
		rel := strings.Trim(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
		if rel == "." || rel == "" {
			rel = "."
			scannedRoot = true
		}

		base, err := l.resolve(rel)
		if err != nil {
			logging.Warn("skipping invalid selection %q: %v", p, err)
			continue
		}

		walkErr := filepath.WalkDir(base, func(full string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				logging.Warn("error accessing %s: %v", full, err)
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !mediatypes.IsImage(filepath.Ext(d.Name())) {
				return nil
			}

			relPath, err := filepath.Rel(l.root, full)
			if err != nil {
				return nil
			}
			id := filepath.ToSlash(relPath)
			if seen[id] {
				return nil
			}
			seen[id] = true

			info, err := d.Info()
			if err != nil {
				logging.Warn("error getting info for %s: %v", full, err)
				return nil
			}

			parent := path.Dir(id)
			if parent == "." {
				parent = ""
			}
			if _, ok := folderMTimes[parent]; !ok {
				folderMTimes[parent] = l.folderMTime(parent)
			}

			items = append(items, itemMeta{
				id:          id,
				name:        d.Name(),
				parent:      parent,
				mtime:       info.ModTime().UnixNano(),
				folderMTime: folderMTimes[parent],
			})
			return nil
		})
		if walkErr != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			return nil, false, fmt.Errorf("failed to scan %s: %w", rel, walkErr)
		}
	}

	return items, scannedRoot, nil
}

func (l *Local) folderMTime(parent string) int64 {
	full := l.root
	if parent != "" {
		full = filepath.Join(l.root, filepath.FromSlash(parent))
	}
	info, err := filesystem.StatWithRetry(full, l.retry)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixNano()
}

// probe fills in orientation for every item, using the metadata index
// where possible and a bounded worker pool for the rest.
func (l *Local) probe(ctx context.Context, items []itemMeta) error {
	var missing []int
	for i := range items {
		if l.idx != nil {
			if rec, ok := l.idx.Lookup(items[i].id, items[i].mtime); ok {
				items[i].landscape = rec.Landscape
				continue
			}
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return nil
	}

	numWorkers := workers.ForIO(probeWorkerLimit)
	logging.Debug("probing %d images with %d workers", len(missing), numWorkers)

	jobs := make(chan int, len(missing))
	records := make(chan index.Record, len(missing))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				full, err := l.resolve(items[i].id)
				if err != nil {
					continue
				}
				dims, err := media.ProbeFile(full)
				if err != nil {
					logging.Debug("probe failed for %s: %v", items[i].id, err)
					continue
				}
				metrics.ScanFilesProbed.Inc()

				mu.Lock()
				items[i].landscape = dims.Landscape()
				mu.Unlock()

				records <- index.Record{
					Path:      items[i].id,
					MTime:     items[i].mtime,
					Width:     dims.Width,
					Height:    dims.Height,
					Landscape: dims.Landscape(),
				}
			}
		}()
	}

	for _, i := range missing {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(records)

	if l.idx != nil {
		batch := make([]index.Record, 0, len(missing))
		for rec := range records {
			batch = append(batch, rec)
		}
		if err := l.idx.UpsertBatch(batch); err != nil {
			logging.Warn("index batch upsert failed: %v", err)
		}
	} else {
		for range records {
		}
	}

	return ctx.Err()
}

// ValidatePlaylist drops ids that no longer resolve to a readable file,
// preserving order. Used by session resume.
func (l *Local) ValidatePlaylist(ctx context.Context, ids []string) ([]string, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		full, err := l.resolve(id)
		if err != nil {
			continue
		}
		if info, err := filesystem.StatWithRetry(full, l.retry); err == nil && !info.IsDir() {
			valid = append(valid, id)
		}
	}
	return valid, nil
}
