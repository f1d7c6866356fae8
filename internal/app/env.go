package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/chanwatch/internal/api"
	"github.com/five82/chanwatch/internal/archive"
	"github.com/five82/chanwatch/internal/board"
	"github.com/five82/chanwatch/internal/config"
	"github.com/five82/chanwatch/internal/logging"
)

// Options carry command-line overrides on top of the config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/chanwatch/prefs.toml
	PollEvery  int    // seconds; zero keeps the config value
	Workers    int    // zero keeps the config value
	RedisURL   string // empty keeps the config value
	LogLevel   string // empty keeps the config value
	LogFormat  string // console, json or empty for auto
	LogToFile  bool   // write logs to the config log file instead of stderr
}

// Env is the set of long-lived dependencies shared by every command.
type Env struct {
	Config  config.Config
	Client  *api.Client
	Log     zerolog.Logger
	Archive *archive.Store // nil when no redis_url is configured

	closers []func() error
}

// NewEnv loads configuration, applies overrides, and builds the client,
// logger and optional archive.
func NewEnv(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, opts)

	logOpts := logging.Options{Level: cfg.LogLevel, Format: opts.LogFormat, Component: "chanwatch"}
	if opts.LogToFile {
		logOpts.File = cfg.LogPath()
	} else {
		logOpts.Writer = os.Stderr
	}
	log, closeLog, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	env := &Env{
		Config:  cfg,
		Client:  api.NewClient(cfg.ClientOptions()),
		Log:     log,
		closers: []func() error{closeLog},
	}

	if cfg.RedisURL != "" {
		store, err := archive.NewStore(cfg.RedisURL)
		if err != nil {
			_ = env.Close()
			return nil, fmt.Errorf("open archive: %w", err)
		}
		env.Archive = store
		env.closers = append(env.closers, store.Close)
		log.Debug().Msg("archive enabled")
	}

	return env, nil
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.RedisURL != "" {
		cfg.RedisURL = opts.RedisURL
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
}

// Board builds a Board for name sharing the environment's client and logger.
func (e *Env) Board(name string) *board.Board {
	return board.New(name, e.Client, board.Options{Logger: &e.Log, Workers: e.Config.Workers})
}

// BoardTitle looks up the board's title, falling back to "/name/" when the
// metadata listing cannot be read.
func (e *Env) BoardTitle(ctx context.Context, b *board.Board) string {
	title, err := b.Title(ctx)
	if err != nil {
		if !errors.Is(err, board.ErrBoardNotFound) {
			e.Log.Warn().Err(err).Str("board", b.Name()).Msg("board metadata unavailable")
		}
		return "/" + b.Name() + "/"
	}
	return title
}

// Close releases the archive connection and log file.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
