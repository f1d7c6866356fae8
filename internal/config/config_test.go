package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIHost != "a.4cdn.org" || cfg.BoardsHost != "boards.4chan.org" {
		t.Fatalf("hosts = %q %q, want production defaults", cfg.APIHost, cfg.BoardsHost)
	}
	if !cfg.HTTPS {
		t.Fatalf("HTTPS = false, want true")
	}
	if cfg.PollInterval != 10*time.Second || cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("intervals = %v / %v, want 10s / 10s", cfg.PollInterval, cfg.RequestTimeout)
	}
	if cfg.RequestsPerSecond != 1 || cfg.Workers != 4 {
		t.Fatalf("rps/workers = %v/%d, want 1/4", cfg.RequestsPerSecond, cfg.Workers)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("RedisURL = %q, want empty", cfg.RedisURL)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_host = "  api.example.test  "
https = false
user_agent = "tester/1"
request_timeout = 3
requests_per_second = 0.5
poll_seconds = 30
workers = 8
redis_url = " redis://localhost:6379/2 "
log_level = "DEBUG"
log_file = "  ~/logs/cw.log  "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIHost != "api.example.test" {
		t.Fatalf("APIHost = %q, want %q", cfg.APIHost, "api.example.test")
	}
	if cfg.FileHost != "i.4cdn.org" {
		t.Fatalf("FileHost = %q, want default", cfg.FileHost)
	}
	if cfg.HTTPS {
		t.Fatalf("HTTPS = true, want explicit false to stick")
	}
	if cfg.RequestTimeout != 3*time.Second || cfg.PollInterval != 30*time.Second {
		t.Fatalf("intervals = %v / %v", cfg.RequestTimeout, cfg.PollInterval)
	}
	if cfg.RequestsPerSecond != 0.5 || cfg.Workers != 8 {
		t.Fatalf("rps/workers = %v/%d", cfg.RequestsPerSecond, cfg.Workers)
	}
	if cfg.RedisURL != "redis://localhost:6379/2" || cfg.LogLevel != "debug" {
		t.Fatalf("redis/level = %q/%q", cfg.RedisURL, cfg.LogLevel)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}

	opts := cfg.ClientOptions()
	if opts.Hosts.API != "api.example.test" || opts.HTTPS || opts.UserAgent != "tester/1" || opts.Burst != 1 {
		t.Fatalf("ClientOptions = %+v", opts)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_host = "   "
user_agent = ""
workers = 0
poll_seconds = -5
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	def := Default()
	if cfg.APIHost != def.APIHost || cfg.UserAgent != def.UserAgent {
		t.Fatalf("APIHost/UserAgent = %q/%q, want defaults", cfg.APIHost, cfg.UserAgent)
	}
	if cfg.Workers != def.Workers || cfg.PollInterval != def.PollInterval {
		t.Fatalf("Workers/PollInterval = %d/%v, want defaults", cfg.Workers, cfg.PollInterval)
	}
	if !cfg.HTTPS {
		t.Fatalf("HTTPS = false, want default true when unset")
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_host = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenLogFileEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/chanwatch.log")) {
		t.Fatalf("LogPath = %q, want it to end with /chanwatch.log", got)
	}
}
