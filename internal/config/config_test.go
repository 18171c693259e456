package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/config"
	"github.com/rohmanhakim/wayback-archiver/internal/wayback"
)

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault()
	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if builtCfg.ArchiveEndpoint() != wayback.DefaultArchiveEndpoint {
		t.Errorf("expected ArchiveEndpoint %q, got %q", wayback.DefaultArchiveEndpoint, builtCfg.ArchiveEndpoint())
	}
	if builtCfg.CheckEndpoint() != wayback.DefaultCheckEndpoint {
		t.Errorf("expected CheckEndpoint %q, got %q", wayback.DefaultCheckEndpoint, builtCfg.CheckEndpoint())
	}
	if builtCfg.MaxRequestRetries() != 5 {
		t.Errorf("expected MaxRequestRetries 5, got %d", builtCfg.MaxRequestRetries())
	}
	if builtCfg.ArchiveThresholdDays() != 30 {
		t.Errorf("expected ArchiveThresholdDays 30, got %d", builtCfg.ArchiveThresholdDays())
	}
	if builtCfg.Concurrency() != 4 {
		t.Errorf("expected Concurrency 4, got %d", builtCfg.Concurrency())
	}
	if builtCfg.RequestsPerMinute() != 0 {
		t.Errorf("expected RequestsPerMinute 0, got %d", builtCfg.RequestsPerMinute())
	}
	if builtCfg.Timeout() != 30*time.Second {
		t.Errorf("expected Timeout 30s, got %v", builtCfg.Timeout())
	}
	if builtCfg.BackoffMultiplier() != 2.0 {
		t.Errorf("expected BackoffMultiplier 2.0, got %v", builtCfg.BackoffMultiplier())
	}
	if builtCfg.LogLevel() != "info" {
		t.Errorf("expected LogLevel info, got %q", builtCfg.LogLevel())
	}
	if len(builtCfg.ExcludedDomains()) != len(wayback.DefaultExcludedDomains) {
		t.Errorf("expected default excluded domains, got %v", builtCfg.ExcludedDomains())
	}
	if builtCfg.MetricsFile() != "" {
		t.Errorf("expected no metrics file, got %q", builtCfg.MetricsFile())
	}
}

func TestBuild_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"empty archive endpoint", config.WithDefault().WithArchiveEndpoint("")},
		{"relative check endpoint", config.WithDefault().WithCheckEndpoint("/cdx?url=")},
		{"negative retries", config.WithDefault().WithMaxRequestRetries(-1)},
		{"negative threshold", config.WithDefault().WithArchiveThresholdDays(-1)},
		{"zero concurrency", config.WithDefault().WithConcurrency(0)},
		{"negative rpm", config.WithDefault().WithRequestsPerMinute(-5)},
		{"multiplier below one", config.WithDefault().WithBackoffMultiplier(0.5)},
		{"zero timeout", config.WithDefault().WithTimeout(0)},
		{"unknown log level", config.WithDefault().WithLogLevel("verbose")},
		{"broken exclude pattern", config.WithDefault().WithExcludePatterns([]string{"[a-"})},
		{"empty user agent", config.WithDefault().WithUserAgent("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBuild_NormalizesLogLevel(t *testing.T) {
	cfg, err := config.WithDefault().WithLogLevel(" DEBUG ").Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("expected debug, got %q", cfg.LogLevel())
	}
}

func TestGettersReturnCopies(t *testing.T) {
	cfg, err := config.WithDefault().WithExcludePatterns([]string{`\.zip$`}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patterns := cfg.ExcludePatterns()
	patterns[0] = "mutated"
	domains := cfg.ExcludedDomains()
	domains[0] = "mutated"

	if cfg.ExcludePatterns()[0] != `\.zip$` {
		t.Errorf("ExcludePatterns leaked internal slice")
	}
	if cfg.ExcludedDomains()[0] == "mutated" {
		t.Errorf("ExcludedDomains leaked internal slice")
	}
}

func TestClientConfig(t *testing.T) {
	cfg, err := config.WithDefault().
		WithArchiveEndpoint("http://wayback.test/save/").
		WithCheckEndpoint("http://wayback.test/cdx?url=").
		WithMaxRequestRetries(2).
		WithArchiveThresholdDays(7).
		WithRequestsPerMinute(30).
		WithExcludedDomains([]string{"blocked.example"}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clientCfg.ArchiveEndpoint() != "http://wayback.test/save/" {
		t.Errorf("unexpected archive endpoint %q", clientCfg.ArchiveEndpoint())
	}
	if clientCfg.MaxRequestRetries() != 2 {
		t.Errorf("expected 2 retries, got %d", clientCfg.MaxRequestRetries())
	}
	if clientCfg.RetryParam().MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", clientCfg.RetryParam().MaxAttempts)
	}
	if clientCfg.ArchiveThresholdDays() != 7 {
		t.Errorf("expected 7 days, got %d", clientCfg.ArchiveThresholdDays())
	}
	if clientCfg.RequestsPerMinute() != 30 {
		t.Errorf("expected 30 rpm, got %d", clientCfg.RequestsPerMinute())
	}
	if got := clientCfg.ExcludedDomains(); len(got) != 1 || got[0] != "blocked.example" {
		t.Errorf("unexpected excluded domains %v", got)
	}
}

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestWithConfigFile_YAML(t *testing.T) {
	path := writeFile(t, "wayback.yaml", `
archive_endpoint: http://wayback.test/save/
check_endpoint: http://wayback.test/cdx?url=
max_request_retries: 1
archive_threshold_days: 10
excluded_domains:
  - one.example
  - two.example
exclude_patterns:
  - '\.pdf$'
concurrency: 8
timeout: 5s
backoff_initial: 250ms
log_level: warn
metrics_file: /tmp/wayback.prom
`)

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ArchiveEndpoint() != "http://wayback.test/save/" {
		t.Errorf("unexpected archive endpoint %q", cfg.ArchiveEndpoint())
	}
	if cfg.MaxRequestRetries() != 1 {
		t.Errorf("expected 1 retry, got %d", cfg.MaxRequestRetries())
	}
	if cfg.ArchiveThresholdDays() != 10 {
		t.Errorf("expected 10 days, got %d", cfg.ArchiveThresholdDays())
	}
	if len(cfg.ExcludedDomains()) != 2 {
		t.Errorf("expected 2 excluded domains, got %v", cfg.ExcludedDomains())
	}
	if len(cfg.ExcludePatterns()) != 1 {
		t.Errorf("expected 1 exclude pattern, got %v", cfg.ExcludePatterns())
	}
	if cfg.Concurrency() != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.Concurrency())
	}
	if cfg.Timeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Timeout())
	}
	if cfg.BackoffInitialDuration() != 250*time.Millisecond {
		t.Errorf("expected 250ms backoff, got %v", cfg.BackoffInitialDuration())
	}
	// unset keys keep their defaults
	if cfg.UserAgent() != wayback.DefaultUserAgent {
		t.Errorf("expected default user agent, got %q", cfg.UserAgent())
	}
	if cfg.LogLevel() != "warn" {
		t.Errorf("expected warn, got %q", cfg.LogLevel())
	}
	if cfg.MetricsFile() != "/tmp/wayback.prom" {
		t.Errorf("unexpected metrics file %q", cfg.MetricsFile())
	}
}

func TestWithConfigFile_JSON(t *testing.T) {
	path := writeFile(t, "wayback.json", `{"max_request_retries": 0, "requests_per_minute": 12}`)

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxRequestRetries() != 0 {
		t.Errorf("expected 0 retries, got %d", cfg.MaxRequestRetries())
	}
	if cfg.RequestsPerMinute() != 12 {
		t.Errorf("expected 12 rpm, got %d", cfg.RequestsPerMinute())
	}
}

func TestWithConfigFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, config.ErrFileDoesNotExist) {
			t.Errorf("expected ErrFileDoesNotExist, got %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := config.WithConfigFile("")
		if !errors.Is(err, config.ErrFileDoesNotExist) {
			t.Errorf("expected ErrFileDoesNotExist, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeFile(t, "broken.json", `{"concurrency": `)
		_, err := config.WithConfigFile(path)
		if !errors.Is(err, config.ErrConfigParsingFail) {
			t.Errorf("expected ErrConfigParsingFail, got %v", err)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		path := writeFile(t, "invalid.yaml", "concurrency: 0\n")
		_, err := config.WithConfigFile(path)
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "wayback.yaml", "max_request_retries: 1\nconcurrency: 2\n")
	t.Setenv("WAYBACK_MAX_REQUEST_RETRIES", "9")
	t.Setenv("WAYBACK_TIMEOUT", "3s")
	t.Setenv("WAYBACK_EXCLUDED_DOMAINS", "a.example,b.example")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxRequestRetries() != 9 {
		t.Errorf("expected env to win with 9, got %d", cfg.MaxRequestRetries())
	}
	if cfg.Concurrency() != 2 {
		t.Errorf("expected file value 2, got %d", cfg.Concurrency())
	}
	if cfg.Timeout() != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.Timeout())
	}
	if got := cfg.ExcludedDomains(); len(got) != 2 || got[1] != "b.example" {
		t.Errorf("unexpected excluded domains %v", got)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ArchiveEndpoint() != wayback.DefaultArchiveEndpoint {
		t.Errorf("expected default archive endpoint, got %q", cfg.ArchiveEndpoint())
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("WAYBACK_ARCHIVE_THRESHOLD_DAYS=3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// register for cleanup; godotenv does not override existing values
	t.Setenv("WAYBACK_ARCHIVE_THRESHOLD_DAYS", "")
	os.Unsetenv("WAYBACK_ARCHIVE_THRESHOLD_DAYS")

	if err := config.LoadDotEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ArchiveThresholdDays() != 3 {
		t.Errorf("expected 3 days from .env, got %d", cfg.ArchiveThresholdDays())
	}
}
