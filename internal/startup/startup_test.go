package startup

import (
	"os"
	"testing"
	"time"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Empty value falls back to default",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
		setEnv       bool
	}{
		{"unset uses default", "", true, true, false},
		{"true parses", "true", false, true, true},
		{"false parses", "false", true, false, true},
		{"numeric one parses", "1", false, true, true},
		{"garbage uses default", "maybe", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvBool(key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")
	if got := getEnvInt("TEST_INT_VAR", 7); got != 42 {
		t.Errorf("getEnvInt = %d, want 42", got)
	}

	t.Setenv("TEST_INT_VAR", "not-a-number")
	if got := getEnvInt("TEST_INT_VAR", 7); got != 7 {
		t.Errorf("getEnvInt with bad value = %d, want default 7", got)
	}

	os.Unsetenv("TEST_INT_VAR")
	if got := getEnvInt("TEST_INT_VAR", 7); got != 7 {
		t.Errorf("getEnvInt unset = %d, want default 7", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR_VAR", "1m30s")
	if got := getEnvDuration("TEST_DUR_VAR", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration = %s, want 1m30s", got)
	}

	t.Setenv("TEST_DUR_VAR", "soon")
	if got := getEnvDuration("TEST_DUR_VAR", time.Second); got != time.Second {
		t.Errorf("getEnvDuration with bad value = %s, want default 1s", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_URL", "MEDIA_DIR", "PORT", "METRICS_PORT", "SLIDE_INTERVAL",
		"SORT", "DIRECTION", "ORIENTATION", "PATHS", "DEMO_COUNT",
	} {
		os.Unsetenv(key)
	}
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %s, want 9090", cfg.MetricsPort)
	}
	if cfg.SlideInterval != 5*time.Second {
		t.Errorf("SlideInterval = %s, want 5s", cfg.SlideInterval)
	}
	if cfg.DemoCount != 24 {
		t.Errorf("DemoCount = %d, want 24", cfg.DemoCount)
	}
	if cfg.ServerURL != "" || cfg.MediaDir != "" {
		t.Error("source settings should default to empty (demo mode)")
	}
	if cfg.SessionPath == "" || cfg.IndexPath == "" {
		t.Error("derived data paths not set")
	}
}

func TestSourceDescription(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"remote", Config{ServerURL: "http://gallery:8000"}, "remote (http://gallery:8000)"},
		{"local", Config{MediaDir: "/photos"}, "local (/photos)"},
		{"demo", Config{}, "demo (built-in)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.SourceDescription(); got != tt.want {
				t.Errorf("SourceDescription() = %q, want %q", got, tt.want)
			}
		})
	}
}
