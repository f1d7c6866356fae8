package app

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/chanwatch/internal/api"
	"github.com/five82/chanwatch/internal/archive"
	"github.com/five82/chanwatch/internal/board"
)

// Archiver persists posts seen by a Watcher. *archive.Store implements it.
type Archiver interface {
	SavePosts(ctx context.Context, board string, id int64, posts []api.Post, now time.Time) (int, error)
	MarkDead(ctx context.Context, board string, id int64, at time.Time) error
}

var _ Archiver = (*archive.Store)(nil)

// Watcher reports new posts on a board, either for a fixed set of threads or
// for every thread in the catalog.
type Watcher struct {
	board   *board.Board
	ids     []int64
	pinned  bool // watching ids rather than the catalog
	archive Archiver
	log     zerolog.Logger
	now     func() time.Time

	// seen is the highest post id already reported per thread.
	seen map[int64]int64
}

// NewWatcher watches ids on b, or the whole catalog when ids is empty.
// archive may be nil.
func NewWatcher(b *board.Board, ids []int64, archive Archiver, log zerolog.Logger) *Watcher {
	return &Watcher{
		board:   b,
		ids:     slices.Clone(ids),
		pinned:  len(ids) > 0,
		archive: archive,
		log:     log.With().Str("board", b.Name()).Logger(),
		now:     time.Now,
		seen:    make(map[int64]int64),
	}
}

// Done reports whether every explicitly watched thread has died.
func (w *Watcher) Done() bool {
	return w.pinned && len(w.ids) == 0
}

// Poll runs one watch cycle and returns the number of new posts reported.
func (w *Watcher) Poll(ctx context.Context) (int, error) {
	if w.pinned {
		return w.pollThreads(ctx)
	}
	return w.pollBoard(ctx)
}

func (w *Watcher) pollThreads(ctx context.Context) (int, error) {
	total := 0
	alive := w.ids[:0]
	for i, id := range w.ids {
		t, err := w.board.GetThread(ctx, id, board.ThreadOptions{UpdateIfCached: true})
		if err != nil {
			w.ids = append(alive, w.ids[i:]...)
			return total, err
		}
		if t == nil || t.IsDead() {
			w.markDead(ctx, id)
			continue
		}
		alive = append(alive, id)
		total += w.report(ctx, t)
	}
	w.ids = alive
	return total, nil
}

func (w *Watcher) pollBoard(ctx context.Context) (int, error) {
	if _, err := w.board.GetAllThreads(ctx, false); err != nil {
		return 0, err
	}
	if _, err := w.board.RefreshCache(ctx); err != nil {
		return 0, err
	}

	total := 0
	live := make(map[int64]struct{})
	for _, t := range w.board.CachedThreads() {
		live[t.ID()] = struct{}{}
		total += w.report(ctx, t)
	}
	for id := range w.seen {
		if _, ok := live[id]; !ok {
			w.markDead(ctx, id)
		}
	}
	return total, nil
}

// report logs and archives posts newer than the last reported id. The first
// sighting of a thread archives it whole but reports nothing.
func (w *Watcher) report(ctx context.Context, t *board.Thread) int {
	id := t.ID()
	last, known := w.seen[id]
	posts := t.Posts()

	var fresh []api.Post
	for _, p := range posts {
		if p.No > last {
			fresh = append(fresh, p)
		}
	}
	w.seen[id] = t.LastReplyID()
	if len(fresh) == 0 {
		return 0
	}

	w.save(ctx, id, fresh)
	if !known {
		w.log.Debug().Int64("thread", id).Int("posts", len(posts)).Msg("tracking thread")
		return 0
	}
	for _, p := range fresh {
		w.log.Info().
			Int64("thread", id).
			Int64("post", p.No).
			Str("name", p.Name).
			Bool("file", p.HasFile()).
			Str("text", excerpt(p.TextComment(), 80)).
			Msg("new post")
	}
	return len(fresh)
}

func (w *Watcher) save(ctx context.Context, id int64, posts []api.Post) {
	if w.archive == nil {
		return
	}
	if _, err := w.archive.SavePosts(ctx, w.board.Name(), id, posts, w.now()); err != nil {
		w.log.Warn().Err(err).Int64("thread", id).Msg("archive save failed")
	}
}

func (w *Watcher) markDead(ctx context.Context, id int64) {
	delete(w.seen, id)
	w.log.Info().Int64("thread", id).Msg("thread gone")
	if w.archive == nil {
		return
	}
	err := w.archive.MarkDead(ctx, w.board.Name(), id, w.now())
	if err != nil && !errors.Is(err, archive.ErrThreadNotArchived) {
		w.log.Warn().Err(err).Int64("thread", id).Msg("archive mark dead failed")
	}
}

// Watch polls until ctx is cancelled or every watched thread has died.
// Failed polls back off exponentially from interval.
func Watch(ctx context.Context, w *Watcher, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	failures := 0
	for {
		n, err := w.Poll(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			failures++
			w.log.Error().Err(err).Int("failures", failures).Msg("watch poll failed")
		default:
			failures = 0
			w.log.Debug().Int("new", n).Msg("poll complete")
		}
		if w.Done() {
			w.log.Info().Msg("all watched threads are gone")
			return nil
		}

		timer := time.NewTimer(calculateBackoff(failures, interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func excerpt(s string, limit int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' {
			runes[i] = ' '
		}
	}
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
