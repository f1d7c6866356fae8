package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/five82/chanwatch/internal/api"
)

const defaultWorkers = 4

// Options configure a Board.
type Options struct {
	Logger *zerolog.Logger
	// Workers bounds concurrent detail fetches in GetAllThreads(expand).
	Workers int
}

// ThreadOptions configure GetThread.
type ThreadOptions struct {
	// UpdateIfCached refreshes a cached thread before returning it.
	UpdateIfCached bool
	// Raise404 returns ErrThreadNotFound for an uncached thread the server
	// reports gone; otherwise GetThread returns a nil thread and nil error.
	Raise404 bool
}

// Board coordinates listing retrieval and owns the thread cache for one board.
type Board struct {
	name    string
	client  api.Fetcher
	urls    api.URLs
	cache   *Cache
	log     zerolog.Logger
	workers int

	metaGroup singleflight.Group
	metaMu    sync.RWMutex
	meta      map[string]api.BoardInfo
}

// New returns a Board named name using client for all requests.
func New(name string, client api.Fetcher, opts Options) *Board {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Board{
		name:    name,
		client:  client,
		urls:    client.URLs(name),
		cache:   NewCache(),
		log:     log.With().Str("board", name).Logger(),
		workers: workers,
	}
}

// Boards builds one Board per name.
func Boards(names []string, client api.Fetcher, opts Options) map[string]*Board {
	out := make(map[string]*Board, len(names))
	for _, name := range names {
		out[name] = New(name, client, opts)
	}
	return out
}

// AllBoards builds a Board for every board in the boards listing. The
// listing is shared as each board's metadata so it is fetched once.
func AllBoards(ctx context.Context, client api.Fetcher, opts Options) (map[string]*Board, error) {
	var list api.BoardList
	if err := client.GetJSON(ctx, client.URLs("").BoardList(), &list); err != nil {
		return nil, fmt.Errorf("fetch board list: %w", err)
	}
	meta := indexBoards(list)
	out := make(map[string]*Board, len(list.Boards))
	for _, info := range list.Boards {
		b := New(info.Board, client, opts)
		b.meta = meta
		out[info.Board] = b
	}
	return out, nil
}

// Name returns the board name.
func (b *Board) Name() string { return b.name }

// URLs returns the board's endpoint templates.
func (b *Board) URLs() api.URLs { return b.urls }

// CachedThreads returns the cached threads ordered by id.
func (b *Board) CachedThreads() []*Thread { return b.cache.Threads() }

// CachedThread returns the cached thread for id without any network access.
func (b *Board) CachedThread(id int64) (*Thread, bool) { return b.cache.Lookup(id) }

// ClearCache forgets every cached thread.
func (b *Board) ClearCache() { b.cache.Clear() }

func (b *Board) String() string { return "<Board /" + b.name + "/>" }

func (b *Board) owner() owner {
	return owner{board: b.name, client: b.client, urls: b.urls, cache: b.cache, log: b.log}
}

// GetThread returns the thread for id. A cached thread is returned as is,
// refreshed first when opts.UpdateIfCached is set. An uncached thread is
// fetched in full and cached; a 404 is never cached.
func (b *Board) GetThread(ctx context.Context, id int64, opts ThreadOptions) (*Thread, error) {
	if cached, ok := b.cache.Lookup(id); ok {
		if opts.UpdateIfCached {
			if _, err := cached.Update(ctx, false); err != nil {
				return nil, err
			}
		}
		return cached, nil
	}

	url := b.urls.Thread(id)
	resp, err := b.client.Get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch thread %d: %w", id, err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		b.log.Debug().Int64("thread", id).Msg("thread not found")
		if opts.Raise404 {
			return nil, fmt.Errorf("%w: /%s/%d", ErrThreadNotFound, b.name, id)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedStatus, &api.StatusError{URL: url, StatusCode: resp.StatusCode})
	}

	var payload api.ThreadPosts
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode thread %d: %w", id, err)
	}
	t, err := newThread(b.owner(), id, payload.Posts, resp.LastModified)
	if err != nil {
		return nil, err
	}
	t, _ = b.cache.LoadOrStore(id, t)
	return t, nil
}

// GetThreads returns the threads on one page of the paged listing.
func (b *Board) GetThreads(ctx context.Context, page int) ([]*Thread, error) {
	var listing api.PagedListing
	if err := b.client.GetJSON(ctx, b.urls.Page(page), &listing); err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	return b.adopt(listing.Threads)
}

// GetAllThreads returns every live thread. Without expand it reads the
// catalog, which is one request but truncates replies. With expand it
// fetches each thread in full through a bounded worker pool.
func (b *Board) GetAllThreads(ctx context.Context, expand bool) ([]*Thread, error) {
	if !expand {
		var pages []api.CatalogPage
		if err := b.client.GetJSON(ctx, b.urls.Catalog(), &pages); err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", err)
		}
		threads, err := NormalizeCatalog(pages)
		if err != nil {
			return nil, err
		}
		return b.adopt(threads)
	}

	ids, err := b.ThreadIDs(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]*Thread, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, id := range ids {
		g.Go(func() error {
			t, err := b.GetThread(gctx, id, ThreadOptions{UpdateIfCached: true})
			if err != nil {
				return err
			}
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, t := range results {
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

// adopt dedups listing threads against the cache. Listing data only builds
// threads for unseen ids; cached threads are flagged stale instead.
func (b *Board) adopt(threads []api.ThreadPosts) ([]*Thread, error) {
	o := b.owner()
	out := make([]*Thread, 0, len(threads))
	for _, tp := range threads {
		topic, err := tp.Topic()
		if err != nil {
			return nil, err
		}
		fresh, err := newThread(o, topic.No, tp.Posts, nil)
		if err != nil {
			return nil, err
		}
		t, _ := b.cache.InsertIfAbsent(topic.No, func() *Thread { return fresh })
		out = append(out, t)
	}
	return out, nil
}

// ThreadIDs lists the ids of every live thread.
func (b *Board) ThreadIDs(ctx context.Context) ([]int64, error) {
	var pages []api.ThreadListPage
	if err := b.client.GetJSON(ctx, b.urls.ThreadList(), &pages); err != nil {
		return nil, fmt.Errorf("fetch thread list: %w", err)
	}
	var ids []int64
	for _, page := range pages {
		for _, entry := range page.Threads {
			ids = append(ids, entry.No)
		}
	}
	return ids, nil
}

// ArchivedThreadIDs lists the ids of archived threads.
func (b *Board) ArchivedThreadIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := b.client.GetJSON(ctx, b.urls.ArchivedThreadList(), &ids); err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}
	return ids, nil
}

// ThreadExists probes the detail endpoint without touching the cache.
func (b *Board) ThreadExists(ctx context.Context, id int64) (bool, error) {
	code, err := b.client.Head(ctx, b.urls.Thread(id))
	if err != nil {
		return false, fmt.Errorf("probe thread %d: %w", id, err)
	}
	return code >= 200 && code < 300, nil
}

// RefreshCache updates every cached thread flagged stale and returns the
// summed reply delta. Other threads are left alone.
func (b *Board) RefreshCache(ctx context.Context) (int, error) {
	total := 0
	for _, t := range b.cache.Threads() {
		if !t.WantsUpdate() {
			continue
		}
		delta, err := t.Update(ctx, false)
		if err != nil {
			return total, err
		}
		total += delta
	}
	return total, nil
}
