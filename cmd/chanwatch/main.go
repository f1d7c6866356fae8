package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/chanwatch/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "chanwatch: %v\n", err)
		return 1
	}
	return 0
}

// newRootCmd builds the command tree. opts is filled from persistent flags
// before any subcommand runs.
func newRootCmd() *cobra.Command {
	opts := &app.Options{}

	root := &cobra.Command{
		Use:   "chanwatch",
		Short: "Read-only client and thread watcher for the 4chan JSON API",
		Long: `chanwatch reads boards, catalogs and threads from the read-only 4chan JSON
API, keeps threads in sync with conditional requests, and can watch threads
for new posts, optionally archiving them to Redis.

Configuration is read from ~/.config/chanwatch/config.toml; flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file path (default ~/.config/chanwatch/config.toml)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "prefs file path (default ~/.config/chanwatch/prefs.toml)")
	flags.IntVar(&opts.PollEvery, "poll", 0, "poll interval in seconds (default from config)")
	flags.IntVar(&opts.Workers, "workers", 0, "concurrent thread fetches when expanding (default from config)")
	flags.StringVar(&opts.RedisURL, "redis", "", "redis URL for the post archive (default from config)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&opts.LogFormat, "log-format", "", "console or json (default: console on a terminal)")

	root.AddCommand(
		newBoardsCmd(opts),
		newCatalogCmd(opts),
		newPageCmd(opts),
		newThreadCmd(opts),
		newIDsCmd(opts),
		newArchivedCmd(opts),
		newExistsCmd(opts),
		newDownloadCmd(opts),
		newHistoryCmd(opts),
		newWatchCmd(opts),
		newTUICmd(opts),
	)
	return root
}
