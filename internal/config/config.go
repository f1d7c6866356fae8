package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/chanwatch/internal/api"
)

// Config is the resolved chanwatch configuration.
type Config struct {
	APIHost           string
	BoardsHost        string
	FileHost          string
	StaticHost        string
	HTTPS             bool
	UserAgent         string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	PollInterval      time.Duration
	Workers           int
	RedisURL          string
	LogLevel          string
	LogFile           string
}

const (
	defaultConfigPath        = "~/.config/chanwatch/config.toml"
	defaultLogFile           = "~/.local/share/chanwatch/chanwatch.log"
	defaultUserAgent         = "chanwatch/0.1"
	defaultRequestTimeout    = 10
	defaultRequestsPerSecond = 1.0
	defaultPollSeconds       = 10
	defaultWorkers           = 4
	defaultLogLevel          = "info"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	hosts := api.DefaultHosts()
	return Config{
		APIHost:           hosts.API,
		BoardsHost:        hosts.Boards,
		FileHost:          hosts.File,
		StaticHost:        hosts.Static,
		HTTPS:             true,
		UserAgent:         defaultUserAgent,
		RequestTimeout:    defaultRequestTimeout * time.Second,
		RequestsPerSecond: defaultRequestsPerSecond,
		PollInterval:      defaultPollSeconds * time.Second,
		Workers:           defaultWorkers,
		LogLevel:          defaultLogLevel,
		LogFile:           mustExpand(defaultLogFile),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIHost           string  `toml:"api_host"`
		BoardsHost        string  `toml:"boards_host"`
		FileHost          string  `toml:"file_host"`
		StaticHost        string  `toml:"static_host"`
		HTTPS             *bool   `toml:"https"`
		UserAgent         string  `toml:"user_agent"`
		RequestTimeout    int     `toml:"request_timeout"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
		PollSeconds       int     `toml:"poll_seconds"`
		Workers           int     `toml:"workers"`
		RedisURL          string  `toml:"redis_url"`
		LogLevel          string  `toml:"log_level"`
		LogFile           string  `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIHost = orDefault(raw.APIHost, cfg.APIHost)
	cfg.BoardsHost = orDefault(raw.BoardsHost, cfg.BoardsHost)
	cfg.FileHost = orDefault(raw.FileHost, cfg.FileHost)
	cfg.StaticHost = orDefault(raw.StaticHost, cfg.StaticHost)
	cfg.UserAgent = orDefault(raw.UserAgent, cfg.UserAgent)
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, cfg.LogLevel))
	cfg.RedisURL = strings.TrimSpace(raw.RedisURL)
	if raw.HTTPS != nil {
		cfg.HTTPS = *raw.HTTPS
	}
	if raw.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeout) * time.Second
	}
	if raw.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = raw.RequestsPerSecond
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if raw.Workers > 0 {
		cfg.Workers = raw.Workers
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}

	return cfg, nil
}

// Hosts returns the configured API domains.
func (c Config) Hosts() api.Hosts {
	return api.Hosts{API: c.APIHost, Boards: c.BoardsHost, File: c.FileHost, Static: c.StaticHost}
}

// ClientOptions maps the config onto api.NewClient options.
func (c Config) ClientOptions() api.Options {
	return api.Options{
		Hosts:             c.Hosts(),
		HTTPS:             c.HTTPS,
		UserAgent:         c.UserAgent,
		Timeout:           c.RequestTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             1,
	}
}

// LogPath returns the log file, defaulting when LogFile is empty.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return mustExpand(defaultLogFile)
	}
	return c.LogFile
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
