package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gallery-player/internal/logging"
	"gallery-player/internal/mediatypes"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	// Source selection: a server URL takes precedence over a local media
	// directory; with neither set the built-in demo source is used.
	ServerURL string
	MediaDir  string
	DataDir   string

	Port        string
	MetricsPort string

	SlideInterval   time.Duration
	DebounceWindow  time.Duration
	FetchTimeout    time.Duration
	RetrieveTimeout time.Duration
	PreloadRadius   int
	ReserveRadius   int

	Sort        mediatypes.SortMode
	Direction   mediatypes.Direction
	Orientation mediatypes.Orientation
	Paths       []string

	DemoCount int

	MemoryLimitBytes int64

	LogHealthChecks bool
	LogImageFetches bool
	MetricsEnabled  bool

	// Derived paths
	SessionPath string
	IndexPath   string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	serverURL := getEnv("SERVER_URL", "")
	mediaDir := getEnv("MEDIA_DIR", "")
	dataDir := getEnv("DATA_DIR", "/data")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	slideInterval := getEnvDuration("SLIDE_INTERVAL", 5*time.Second)
	debounceWindow := getEnvDuration("DEBOUNCE_WINDOW", 300*time.Millisecond)
	fetchTimeout := getEnvDuration("FETCH_TIMEOUT", 30*time.Second)
	retrieveTimeout := getEnvDuration("RETRIEVE_TIMEOUT", 30*time.Second)
	preloadRadius := getEnvInt("PRELOAD_RADIUS", 3)
	reserveRadius := getEnvInt("RESERVE_RADIUS", 2)
	sortStr := getEnv("SORT", "shuffle")
	directionStr := getEnv("DIRECTION", "forward")
	orientationStr := getEnv("ORIENTATION", "any")
	pathsStr := getEnv("PATHS", "")
	demoCount := getEnvInt("DEMO_COUNT", 24)
	memoryLimit := getEnvInt64("MEMORY_LIMIT_BYTES", 0)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	logImageFetches := getEnvBool("LOG_IMAGE_FETCHES", false)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  SERVER_URL:          %s", orUnset(serverURL))
	logging.Info("  MEDIA_DIR:           %s", orUnset(mediaDir))
	logging.Info("  DATA_DIR:            %s", dataDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  SLIDE_INTERVAL:      %s", slideInterval)
	logging.Info("  DEBOUNCE_WINDOW:     %s", debounceWindow)
	logging.Info("  FETCH_TIMEOUT:       %s", fetchTimeout)
	logging.Info("  RETRIEVE_TIMEOUT:    %s", retrieveTimeout)
	logging.Info("  PRELOAD_RADIUS:      %d", preloadRadius)
	logging.Info("  RESERVE_RADIUS:      %d", reserveRadius)
	logging.Info("  SORT:                %s", sortStr)
	logging.Info("  DIRECTION:           %s", directionStr)
	logging.Info("  ORIENTATION:         %s", orientationStr)
	logging.Info("  PATHS:               %s", orUnset(pathsStr))
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	sortMode := mediatypes.ParseSortMode(sortStr)
	direction := mediatypes.ParseDirection(directionStr)
	orientation := mediatypes.ParseOrientation(orientationStr)

	var paths []string
	for _, p := range strings.Split(pathsStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	if preloadRadius < 1 {
		logging.Warn("  Invalid PRELOAD_RADIUS, using default: 3")
		preloadRadius = 3
	}
	if reserveRadius < 0 {
		logging.Warn("  Invalid RESERVE_RADIUS, using default: 2")
		reserveRadius = 2
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	if mediaDir != "" {
		mediaDir, err = filepath.Abs(mediaDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
		}
		logging.Info("  Media directory (absolute): %s", mediaDir)
		if err := ensureDirectory(mediaDir, "media"); err != nil {
			logging.Warn("  Media directory issue: %v", err)
		}
	}

	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute): %s", dataDir)

	if err := ensureDirectory(dataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}

	logging.Debug("  Testing data directory write access...")
	if err := testWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for sessions): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	config := &Config{
		ServerURL:        serverURL,
		MediaDir:         mediaDir,
		DataDir:          dataDir,
		Port:             port,
		MetricsPort:      metricsPort,
		SlideInterval:    slideInterval,
		DebounceWindow:   debounceWindow,
		FetchTimeout:     fetchTimeout,
		RetrieveTimeout:  retrieveTimeout,
		PreloadRadius:    preloadRadius,
		ReserveRadius:    reserveRadius,
		Sort:             sortMode,
		Direction:        direction,
		Orientation:      orientation,
		Paths:            paths,
		DemoCount:        demoCount,
		MemoryLimitBytes: memoryLimit,
		LogHealthChecks:  logHealthChecks,
		LogImageFetches:  logImageFetches,
		MetricsEnabled:   metricsEnabled,
		SessionPath:      filepath.Join(dataDir, "sessions.db"),
		IndexPath:        filepath.Join(dataDir, "index.db"),
	}

	logging.Info("")
	logging.Info("  Source: %s", config.SourceDescription())
	logging.Info("  Metrics: %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// SourceDescription names the source this configuration selects.
func (c *Config) SourceDescription() string {
	switch {
	case c.ServerURL != "":
		return "remote (" + c.ServerURL + ")"
	case c.MediaDir != "":
		return "local (" + c.MediaDir + ")"
	default:
		return "demo (built-in)"
	}
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Path != routes[j].Path {
				return routes[i].Path < routes[j].Path
			}
			return routes[i].Method < routes[j].Method
		})

		for _, route := range routes {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
		logging.Debug("")
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   ______      ____                  ____  __
  / ____/___ _/ / /__  _______  __  / __ \/ /___ ___  _____  _____
 / / __/ __ '/ / / _ \/ ___/ / / / / /_/ / / __ '/ / / / _ \/ ___/
/ /_/ / /_/ / / /  __/ /  / /_/ / / ____/ / /_/ / /_/ /  __/ /
\____/\__,_/_/_/\___/_/   \__, / /_/   /_/\__,_/\__, /\___/_/
                         /____/                /____/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
