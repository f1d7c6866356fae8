package board

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/chanwatch/internal/api"
)

// State is the synchronization lifecycle of a Thread.
type State int

const (
	// Fresh threads have no known staleness.
	Fresh State = iota
	// Stale threads were seen by a listing fetch and await a detail refresh.
	Stale
	// Dead threads were reported gone and are no longer cached.
	Dead
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Dead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// owner is what a Thread needs from its Board. Threads refer to the board by
// name and share its transport and cache, never the Board itself.
type owner struct {
	board  string
	client api.Fetcher
	urls   api.URLs
	cache  *Cache
	log    zerolog.Logger
}

// Thread is the locally synchronized view of one thread.
//
// updateMu serializes Update calls on the same instance; mu guards the fields
// and is never held across network I/O.
type Thread struct {
	owner owner

	updateMu sync.Mutex
	mu       sync.RWMutex

	id            int64
	topic         api.Post
	replies       []api.Post
	replyCount    int
	imageCount    int
	omittedPosts  int
	omittedImages int
	state         State
	lastSyncedAt  *time.Time
	lastReplyID   int64
}

// newThread builds a thread from a post list whose first element is the
// topic. An id of zero is resolved from the topic and leaves the thread
// Stale, so the caller refreshes it before trusting the reply cursor.
func newThread(o owner, id int64, posts []api.Post, lastModified *time.Time) (*Thread, error) {
	if len(posts) == 0 {
		return nil, fmt.Errorf("thread %d has no posts", id)
	}
	topic := posts[0]
	if id != 0 && topic.No != id {
		return nil, fmt.Errorf("thread %d: topic has id %d", id, topic.No)
	}

	t := &Thread{
		owner:         o,
		id:            topic.No,
		topic:         topic,
		replies:       sortedReplies(posts[1:]),
		replyCount:    topic.Replies,
		imageCount:    topic.Images,
		omittedPosts:  topic.OmittedPosts,
		omittedImages: topic.OmittedImages,
		lastSyncedAt:  cloneTime(lastModified),
	}
	if id == 0 {
		t.state = Stale
	} else {
		t.lastReplyID = maxPostID(t.topic, t.replies)
	}
	return t, nil
}

// Update refreshes the thread from its detail endpoint and returns the net
// change in locally held replies.
//
// Not-modified responses, transport failures and cancellation change nothing
// and return 0. A 404 marks the thread Dead and evicts it; Dead threads are
// only refetched when force is set. A 200 revives a Dead thread and either
// appends replies newer than the last seen id or, when forced, unsynchronized
// or truncated, replaces the reply list outright. Any other status is
// returned as ErrUnexpectedStatus.
func (t *Thread) Update(ctx context.Context, force bool) (int, error) {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	t.mu.RLock()
	id, state, since := t.id, t.state, cloneTime(t.lastSyncedAt)
	t.mu.RUnlock()

	log := t.owner.log.With().Int64("thread", id).Logger()
	if state == Dead && !force {
		return 0, nil
	}

	url := t.owner.urls.Thread(id)
	resp, err := t.owner.client.Get(ctx, url, since)
	if err != nil {
		log.Warn().Err(err).Msg("thread refresh failed; will retry next cycle")
		return 0, nil
	}

	switch resp.StatusCode {
	case http.StatusNotModified:
		log.Debug().Msg("thread not modified")
		return 0, nil

	case http.StatusNotFound:
		t.mu.Lock()
		t.state = Dead
		t.mu.Unlock()
		t.owner.cache.evict(id, t)
		log.Debug().Msg("thread gone; evicted from cache")
		return 0, nil

	case http.StatusOK:
		var payload api.ThreadPosts
		if err := json.Unmarshal(resp.Body, &payload); err != nil {
			return 0, fmt.Errorf("decode thread %d: %w", id, err)
		}
		topic, err := payload.Topic()
		if err != nil {
			return 0, fmt.Errorf("thread %d: %w", id, err)
		}
		if topic.No != id {
			return 0, fmt.Errorf("thread %d: topic has id %d", id, topic.No)
		}
		delta, revived := t.apply(payload.Posts, resp.LastModified, force, log)
		if revived {
			if cached := t.owner.cache.reinsert(id, t); cached != t {
				log.Debug().Msg("thread alive again; cache already holds a newer instance")
			} else {
				log.Info().Msg("thread alive again; reinserted into cache")
			}
		}
		return delta, nil

	default:
		return 0, fmt.Errorf("%w: %w", ErrUnexpectedStatus, &api.StatusError{URL: url, StatusCode: resp.StatusCode})
	}
}

func (t *Thread) apply(posts []api.Post, lastModified *time.Time, force bool, log zerolog.Logger) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	revived := t.state == Dead
	original := len(t.replies)
	fetched := posts[1:]

	if t.lastReplyID > 0 && !force && t.omittedPosts == 0 {
		var newer []api.Post
		for _, p := range fetched {
			if p.No > t.lastReplyID {
				newer = append(newer, p)
			}
		}
		t.replies = append(t.replies, sortedReplies(newer)...)
		log.Debug().Int("new", len(newer)).Msg("merged newer replies")
	} else {
		t.replies = sortedReplies(fetched)
		log.Debug().Int("replies", len(t.replies)).Bool("force", force).Msg("replaced replies")
	}

	t.topic = posts[0]
	t.replyCount = t.topic.Replies
	t.imageCount = t.topic.Images
	t.omittedPosts = 0
	t.omittedImages = 0
	t.state = Fresh
	if lastModified != nil {
		t.lastSyncedAt = cloneTime(lastModified)
	}
	t.lastReplyID = maxPostID(t.topic, t.replies)

	return len(t.replies) - original, revived
}

// Expand pulls the full reply set when the local copy is truncated.
func (t *Thread) Expand(ctx context.Context) (int, error) {
	if t.OmittedPosts() == 0 {
		return 0, nil
	}
	return t.Update(ctx, false)
}

// AllPosts expands the thread and returns topic and replies.
func (t *Thread) AllPosts(ctx context.Context) ([]api.Post, error) {
	if _, err := t.Expand(ctx); err != nil {
		return nil, err
	}
	return t.Posts(), nil
}

func (t *Thread) markStale() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Fresh {
		t.state = Stale
	}
}

// ID returns the thread id, which is also the topic post id.
func (t *Thread) ID() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

// Board returns the owning board's name.
func (t *Thread) Board() string {
	return t.owner.board
}

// Topic returns the thread-starting post.
func (t *Thread) Topic() api.Post {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.topic
}

// Replies returns a copy of the locally held replies, ascending by id.
func (t *Thread) Replies() []api.Post {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.replies)
}

// Posts returns the topic followed by the replies.
func (t *Thread) Posts() []api.Post {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]api.Post, 0, 1+len(t.replies))
	out = append(out, t.topic)
	return append(out, t.replies...)
}

// ReplyCount is the server-reported reply total.
func (t *Thread) ReplyCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.replyCount
}

// ImageCount is the server-reported image total.
func (t *Thread) ImageCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.imageCount
}

// OmittedPosts counts replies the server left out of the local copy.
func (t *Thread) OmittedPosts() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.omittedPosts
}

// OmittedImages counts images the server left out of the local copy.
func (t *Thread) OmittedImages() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.omittedImages
}

// State returns the lifecycle state.
func (t *Thread) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// IsDead reports whether the server last reported the thread gone.
func (t *Thread) IsDead() bool { return t.State() == Dead }

// WantsUpdate reports whether a listing flagged the thread as stale.
func (t *Thread) WantsUpdate() bool { return t.State() == Stale }

// LastSynced returns the Last-Modified time of the last detail fetch; ok is
// false when the thread has never been fetched at detail granularity.
func (t *Thread) LastSynced() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastSyncedAt == nil {
		return time.Time{}, false
	}
	return *t.lastSyncedAt, true
}

// LastReplyID is the highest post id held locally, or 0 when unknown.
func (t *Thread) LastReplyID() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastReplyID
}

// Topic flags.
func (t *Thread) Closed() bool     { return t.Topic().Closed == 1 }
func (t *Thread) Sticky() bool     { return t.Topic().Sticky == 1 }
func (t *Thread) Archived() bool   { return t.Topic().Archived == 1 }
func (t *Thread) BumpLimit() bool  { return t.Topic().BumpLimit == 1 }
func (t *Thread) ImageLimit() bool { return t.Topic().ImageLimit == 1 }

// CustomSpoilers is the number of custom spoiler images on the board.
func (t *Thread) CustomSpoilers() int { return t.Topic().CustomSpoiler }

// Files returns the attachments of every locally held post.
func (t *Thread) Files() []api.File {
	var files []api.File
	for _, p := range t.Posts() {
		if f, ok := p.File(); ok {
			files = append(files, f)
		}
	}
	return files
}

// ThumbnailURLs returns the thumbnail location of every attachment.
func (t *Thread) ThumbnailURLs() []string {
	files := t.Files()
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.ThumbnailURL(t.owner.urls))
	}
	return out
}

// Links returns the endpoint templates of the owning board.
func (t *Thread) Links() api.URLs {
	return t.owner.urls
}

// URL is the human-facing thread page.
func (t *Thread) URL() string {
	return t.owner.urls.ThreadPage(t.ID())
}

// SemanticURL appends the topic's slug to URL.
func (t *Thread) SemanticURL() string {
	return t.URL() + "/" + t.Topic().SemanticURL
}

func (t *Thread) String() string {
	return fmt.Sprintf("<Thread /%s/%d>", t.owner.board, t.ID())
}

// Summary is a value snapshot of a thread for display.
type Summary struct {
	Board        string
	ID           int64
	Subject      string
	Excerpt      string
	Replies      int
	Images       int
	OmittedPosts int
	Held         int
	State        State
	Sticky       bool
	Closed       bool
	LastReplyID  int64
	Bumped       time.Time
}

// Summary captures the thread's current state.
func (t *Thread) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Summary{
		Board:        t.owner.board,
		ID:           t.id,
		Subject:      api.CleanComment(t.topic.Subject),
		Excerpt:      t.topic.TextComment(),
		Replies:      t.replyCount,
		Images:       t.imageCount,
		OmittedPosts: t.omittedPosts,
		Held:         len(t.replies),
		State:        t.state,
		Sticky:       t.topic.Sticky == 1,
		Closed:       t.topic.Closed == 1,
		LastReplyID:  t.lastReplyID,
	}
	if t.topic.LastModified > 0 {
		s.Bumped = time.Unix(t.topic.LastModified, 0).UTC()
	}
	return s
}

func sortedReplies(posts []api.Post) []api.Post {
	out := slices.Clone(posts)
	slices.SortStableFunc(out, func(a, b api.Post) int {
		return cmp.Compare(a.No, b.No)
	})
	return out
}

func maxPostID(topic api.Post, replies []api.Post) int64 {
	highest := topic.No
	for _, p := range replies {
		highest = max(highest, p.No)
	}
	return highest
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
