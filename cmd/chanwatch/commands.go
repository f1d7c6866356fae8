package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/chanwatch/internal/app"
	"github.com/five82/chanwatch/internal/board"
)

// withEnv runs fn with a freshly built environment and closes it afterwards.
func withEnv(opts *app.Options, fn func(cmd *cobra.Command, env *app.Env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := app.NewEnv(*opts)
		if err != nil {
			return err
		}
		defer env.Close()
		return fn(cmd, env, args)
	}
}

func newBoardsCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List every board with its title",
		Args:  cobra.NoArgs,
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, _ []string) error {
			boards, err := board.AllBoards(cmd.Context(), env.Client, board.Options{Logger: &env.Log})
			if err != nil {
				return err
			}
			return printBoards(cmd.Context(), cmd.OutOrStdout(), boards)
		}),
	}
}

func newCatalogCmd(opts *app.Options) *cobra.Command {
	var expand bool
	cmd := &cobra.Command{
		Use:   "catalog <board>",
		Short: "List every live thread on a board",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			threads, err := env.Board(args[0]).GetAllThreads(cmd.Context(), expand)
			if err != nil {
				return err
			}
			printThreads(cmd.OutOrStdout(), threads)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&expand, "expand", false, "fetch every thread in full instead of reading the catalog")
	return cmd
}

func newPageCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "page <board> <n>",
		Short: "List the threads on one index page (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid page %q", args[1])
			}
			threads, err := env.Board(args[0]).GetThreads(cmd.Context(), n)
			if err != nil {
				return err
			}
			printThreads(cmd.OutOrStdout(), threads)
			return nil
		}),
	}
}

func newThreadCmd(opts *app.Options) *cobra.Command {
	var (
		force  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "thread <board> <id>",
		Short: "Print every post in a thread",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			t, err := env.Board(args[0]).GetThread(cmd.Context(), id, board.ThreadOptions{Raise404: true})
			if err != nil {
				return err
			}
			if force {
				if _, err := t.Update(cmd.Context(), true); err != nil {
					return err
				}
			}
			posts, err := t.AllPosts(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"posts": posts})
			}
			printThread(cmd.OutOrStdout(), t, posts)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "refetch and replace the reply list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw post records")
	return cmd
}

func newIDsCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ids <board>",
		Short: "List live thread ids",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			ids, err := env.Board(args[0]).ThreadIDs(cmd.Context())
			if err != nil {
				return err
			}
			printIDs(cmd.OutOrStdout(), ids)
			return nil
		}),
	}
}

func newArchivedCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "archived <board>",
		Short: "List archived thread ids",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			ids, err := env.Board(args[0]).ArchivedThreadIDs(cmd.Context())
			if err != nil {
				return err
			}
			printIDs(cmd.OutOrStdout(), ids)
			return nil
		}),
	}
}

func newExistsCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <board> <id>",
		Short: "Report whether a thread is still live",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			ok, err := env.Board(args[0]).ThreadExists(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("/%s/%d does not exist", args[0], id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "/%s/%d exists\n", args[0], id)
			return nil
		}),
	}
}

func newDownloadCmd(opts *app.Options) *cobra.Command {
	var thumbs bool
	cmd := &cobra.Command{
		Use:   "download <board> <id> <dir>",
		Short: "Save a thread's attachments",
		Args:  cobra.ExactArgs(3),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			t, err := env.Board(args[0]).GetThread(cmd.Context(), id, board.ThreadOptions{Raise404: true})
			if err != nil {
				return err
			}
			if _, err := t.Expand(cmd.Context()); err != nil {
				return err
			}
			n, err := app.DownloadFiles(cmd.Context(), env.Client, t, args[2], thumbs)
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d files to %s\n", n, args[2])
			return err
		}),
	}
	cmd.Flags().BoolVar(&thumbs, "thumbs", false, "save thumbnails instead of full files")
	return cmd
}

func newHistoryCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "history <board> [id]",
		Short: "Show archived threads, or one archived thread's posts",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			if env.Archive == nil {
				return errors.New("no archive configured; set redis_url or --redis")
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				recs, err := env.Archive.Threads(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, r := range recs {
					status := "live"
					if r.Dead {
						status = "dead " + r.DeadAt.Local().Format(time.DateTime)
					}
					fmt.Fprintf(out, "%d\t%d posts\t%s\t%s\n", r.ID, r.Posts, status, r.Subject)
				}
				return nil
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			posts, err := env.Archive.Posts(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			printPosts(out, id, posts)
			return nil
		}),
	}
}

func newWatchCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <board> [thread ids...]",
		Short: "Log new posts on threads or a whole board until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(opts, func(cmd *cobra.Command, env *app.Env, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			var archive app.Archiver
			if env.Archive != nil {
				archive = env.Archive
			}
			w := app.NewWatcher(env.Board(args[0]), ids, archive, env.Log)
			env.Log.Info().Str("board", args[0]).Int("threads", len(ids)).Dur("interval", env.Config.PollInterval).Msg("watching")
			return app.Watch(cmd.Context(), w, env.Config.PollInterval)
		}),
	}
}

func newTUICmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [board]",
		Short: "Browse a board interactively (defaults to the last board opened)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return app.Run(cmd.Context(), *opts, name)
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid thread id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
