package board

import (
	"context"
	"fmt"

	"github.com/five82/chanwatch/internal/api"
)

// Metadata returns this board's entry from the boards listing. The listing
// is fetched at most once per Board and concurrent first callers share one
// request. Failed fetches are not remembered.
func (b *Board) Metadata(ctx context.Context) (api.BoardInfo, error) {
	boards, err := b.boardsMetadata(ctx)
	if err != nil {
		return api.BoardInfo{}, err
	}
	info, ok := boards[b.name]
	if !ok {
		return api.BoardInfo{}, fmt.Errorf("%w: /%s/", ErrBoardNotFound, b.name)
	}
	return info, nil
}

// Title is the board's display title.
func (b *Board) Title(ctx context.Context) (string, error) {
	info, err := b.Metadata(ctx)
	return info.Title, err
}

// IsWorksafe reports whether the board is flagged work-safe.
func (b *Board) IsWorksafe(ctx context.Context) (bool, error) {
	info, err := b.Metadata(ctx)
	return info.WorkSafe == 1, err
}

// PageCount is the number of listing pages.
func (b *Board) PageCount(ctx context.Context) (int, error) {
	info, err := b.Metadata(ctx)
	return info.Pages, err
}

// ThreadsPerPage is the number of threads per listing page.
func (b *Board) ThreadsPerPage(ctx context.Context) (int, error) {
	info, err := b.Metadata(ctx)
	return info.PerPage, err
}

func (b *Board) boardsMetadata(ctx context.Context) (map[string]api.BoardInfo, error) {
	b.metaMu.RLock()
	meta := b.meta
	b.metaMu.RUnlock()
	if meta != nil {
		return meta, nil
	}

	v, err, _ := b.metaGroup.Do("boards", func() (any, error) {
		b.metaMu.RLock()
		meta := b.meta
		b.metaMu.RUnlock()
		if meta != nil {
			return meta, nil
		}

		var list api.BoardList
		if err := b.client.GetJSON(ctx, b.urls.BoardList(), &list); err != nil {
			return nil, fmt.Errorf("fetch board list: %w", err)
		}
		meta = indexBoards(list)
		b.metaMu.Lock()
		b.meta = meta
		b.metaMu.Unlock()
		b.log.Debug().Int("boards", len(meta)).Msg("boards metadata loaded")
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]api.BoardInfo), nil
}

func indexBoards(list api.BoardList) map[string]api.BoardInfo {
	out := make(map[string]api.BoardInfo, len(list.Boards))
	for _, info := range list.Boards {
		out[info.Board] = info
	}
	return out
}
