package app

import (
	"context"
	"fmt"

	"github.com/five82/chanwatch/internal/board"
	"github.com/five82/chanwatch/internal/prefs"
	"github.com/five82/chanwatch/internal/state"
	"github.com/five82/chanwatch/internal/ui"
)

// Run boots the TUI for boardName until the user quits or ctx is cancelled.
// An empty boardName reopens the last board from prefs.
func Run(ctx context.Context, opts Options, boardName string) error {
	opts.LogToFile = true
	env, err := NewEnv(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	if boardName == "" {
		boardName = userPrefs.LastBoard
	}
	if boardName == "" {
		return fmt.Errorf("no board given and none remembered")
	}
	userPrefs.Remember(boardName)
	if err := prefs.Save(opts.PrefsPath, userPrefs); err != nil {
		env.Log.Warn().Err(err).Msg("save prefs failed")
	}

	b := env.Board(boardName)
	store := &state.Store{}
	store.SetBoard(b.Name(), env.BoardTitle(ctx, b))

	// Populate the store before the first frame.
	if err := refresh(ctx, store, b); err != nil {
		env.Log.Warn().Err(err).Msg("initial board fetch failed")
	}
	StartPoller(ctx, store, b, env.Config.PollInterval, env.Log)

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Source:    boardSource{board: b},
		PollTick:  env.Config.PollInterval,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		Links:     b.URLs(),
	})
}

// boardSource opens threads for the TUI.
type boardSource struct {
	board *board.Board
}

var _ ui.ThreadSource = boardSource{}

// OpenThread returns the full thread. Cached threads are refreshed, and force
// replaces the local reply list from the server.
func (s boardSource) OpenThread(ctx context.Context, id int64, force bool) (ui.ThreadView, error) {
	t, err := s.board.GetThread(ctx, id, board.ThreadOptions{UpdateIfCached: !force, Raise404: true})
	if err != nil {
		return ui.ThreadView{}, err
	}
	delta := 0
	if force {
		if delta, err = t.Update(ctx, true); err != nil {
			return ui.ThreadView{}, err
		}
	}
	posts, err := t.AllPosts(ctx)
	if err != nil {
		return ui.ThreadView{}, err
	}
	return ui.ThreadView{Summary: t.Summary(), Posts: posts, Delta: delta}, nil
}
