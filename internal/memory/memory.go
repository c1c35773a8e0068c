package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"gallery-player/internal/logging"
	"gallery-player/internal/metrics"
)

// Config holds memory management configuration
type Config struct {
	// MemoryLimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	MemoryLimitBytes int64

	// CriticalWaterMark is the fraction of the limit at which prefetching pauses (0.0-1.0)
	CriticalWaterMark float64

	// ResumeWaterMark is the fraction below which prefetching resumes (0.0-1.0)
	ResumeWaterMark float64

	// CheckInterval is how often to sample memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory management
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes:  0, // Use GOMEMLIMIT if set
		CriticalWaterMark: 0.85,
		ResumeWaterMark:   0.7,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor tracks heap usage and provides a backpressure signal the
// prefetch scheduler checks before enqueueing new work.
type Monitor struct {
	config   Config
	limit    int64
	stopChan chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	current  uint64
	isPaused bool
}

// NewMonitor creates a new memory monitor
func NewMonitor(config Config) *Monitor {
	limit := config.MemoryLimitBytes

	// If no explicit limit, fall back to GOMEMLIMIT
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %d bytes (%.1f MB)", limit, float64(limit)/(1024*1024))
		}
	}

	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		stopChan: make(chan struct{}),
	}
}

// Start begins monitoring memory usage
func (m *Monitor) Start() {
	if m.limit == 0 {
		return // No limit configured, nothing to monitor
	}
	go m.monitorLoop()
}

// Stop stops the memory monitor
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// IsPaused reports whether memory pressure currently blocks new prefetch work.
func (m *Monitor) IsPaused() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// Current returns the last sampled heap allocation in bytes.
func (m *Monitor) Current() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkMemory()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) checkMemory() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = stats.Alloc
	usage := float64(stats.Alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case !m.isPaused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Memory critical (%.1f%% of limit), pausing prefetch", usage*100)
		m.isPaused = true
		metrics.MemoryPaused.Set(1)
	case m.isPaused && usage < m.config.ResumeWaterMark:
		logging.Info("Memory recovered (%.1f%% of limit), resuming prefetch", usage*100)
		m.isPaused = false
		metrics.MemoryPaused.Set(0)
	}
}
