package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/chanwatch/internal/board"
	"github.com/five82/chanwatch/internal/state"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
)

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for range failures {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

// StartPoller launches a background goroutine that refreshes the store from
// the board catalog. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, b *board.Board, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		failures := 0
		for {
			if err := refresh(ctx, store, b); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				log.Warn().Err(err).Int("failures", failures).Msg("board poll failed")
			} else {
				failures = 0
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// refresh reads the catalog, updates stale cached threads and publishes the
// board's live threads to store.
func refresh(ctx context.Context, store *state.Store, b *board.Board) error {
	threads, err := b.GetAllThreads(ctx, false)
	if err != nil {
		store.Update(nil, 0, err)
		return err
	}
	delta, err := b.RefreshCache(ctx)
	if err != nil {
		store.Update(nil, 0, err)
		return err
	}

	summaries := make([]board.Summary, 0, len(threads))
	for _, t := range threads {
		if t.IsDead() {
			continue
		}
		summaries = append(summaries, t.Summary())
	}
	store.Update(summaries, delta, nil)
	return nil
}
