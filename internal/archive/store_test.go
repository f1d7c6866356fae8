package archive

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/five82/chanwatch/internal/api"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func decodePosts(t *testing.T, body string) []api.Post {
	t.Helper()
	var tp api.ThreadPosts
	if err := json.Unmarshal([]byte(body), &tp); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	return tp.Posts
}

func TestNewStore(t *testing.T) {
	store, _ := setupTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	if _, err := NewStore("not a url"); err == nil {
		t.Fatalf("NewStore accepted an invalid url")
	}
}

func TestSavePostsCountsOnlyNewPosts(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	added, err := store.SavePosts(ctx, "g", 90, decodePosts(t, `{"posts":[{"no":90,"sub":"Daily &amp; weekly"},{"no":92},{"no":91}]}`), now)
	if err != nil {
		t.Fatalf("SavePosts failed: %v", err)
	}
	if added != 3 {
		t.Fatalf("added = %d, want 3", added)
	}

	added, err = store.SavePosts(ctx, "g", 90, decodePosts(t, `{"posts":[{"no":90},{"no":92},{"no":93,"com":"new"}]}`), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("SavePosts failed: %v", err)
	}
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}

	posts, err := store.Posts(ctx, "g", 90)
	if err != nil {
		t.Fatalf("Posts failed: %v", err)
	}
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.No)
	}
	if !slices.Equal(ids, []int64{90, 91, 92, 93}) {
		t.Fatalf("ids = %v, want [90 91 92 93]", ids)
	}
	if posts[3].Comment != "new" {
		t.Fatalf("post 93 comment = %q, want new", posts[3].Comment)
	}

	rec, err := store.Thread(ctx, "g", 90)
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}
	if rec.Subject != "Daily & weekly" || rec.Posts != 4 || rec.Dead {
		t.Fatalf("record = %+v", rec)
	}
	if !rec.LastSeen.Equal(now.Add(time.Minute)) {
		t.Fatalf("LastSeen = %v, want %v", rec.LastSeen, now.Add(time.Minute))
	}
}

func TestSavePostsKeepsRawRecord(t *testing.T) {
	store, s := setupTestStore(t)
	ctx := context.Background()

	posts := decodePosts(t, `{"posts":[{"no":5,"extra_field":"kept"}]}`)
	if _, err := store.SavePosts(ctx, "g", 5, posts, time.Now()); err != nil {
		t.Fatalf("SavePosts failed: %v", err)
	}
	raw := s.HGet("chanwatch:g:thread:5:posts", "5")
	if raw != `{"no":5,"extra_field":"kept"}` {
		t.Fatalf("stored raw = %q", raw)
	}
}

func TestMarkDead(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	deadAt := time.Unix(1_700_000_500, 0).UTC()

	if err := store.MarkDead(ctx, "g", 1, deadAt); !errors.Is(err, ErrThreadNotArchived) {
		t.Fatalf("MarkDead on unknown thread error = %v, want ErrThreadNotArchived", err)
	}

	if _, err := store.SavePosts(ctx, "g", 1, []api.Post{{No: 1}}, time.Unix(1_700_000_000, 0)); err != nil {
		t.Fatalf("SavePosts failed: %v", err)
	}
	if err := store.MarkDead(ctx, "g", 1, deadAt); err != nil {
		t.Fatalf("MarkDead failed: %v", err)
	}
	rec, err := store.Thread(ctx, "g", 1)
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}
	if !rec.Dead || !rec.DeadAt.Equal(deadAt) {
		t.Fatalf("record = %+v, want dead at %v", rec, deadAt)
	}
}

func TestThreadsOrderedByLastSave(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i, id := range []int64{10, 30, 20} {
		if _, err := store.SavePosts(ctx, "v", id, []api.Post{{No: id}}, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("SavePosts(%d) failed: %v", id, err)
		}
	}
	if _, err := store.SavePosts(ctx, "g", 99, []api.Post{{No: 99}}, base); err != nil {
		t.Fatalf("SavePosts failed: %v", err)
	}

	recs, err := store.Threads(ctx, "v")
	if err != nil {
		t.Fatalf("Threads failed: %v", err)
	}
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	if !slices.Equal(ids, []int64{20, 30, 10}) {
		t.Fatalf("ids = %v, want [20 30 10]", ids)
	}
}

func TestLookupsOnMissingThread(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.Posts(ctx, "g", 404); !errors.Is(err, ErrThreadNotArchived) {
		t.Fatalf("Posts error = %v, want ErrThreadNotArchived", err)
	}
	if _, err := store.Thread(ctx, "g", 404); !errors.Is(err, ErrThreadNotArchived) {
		t.Fatalf("Thread error = %v, want ErrThreadNotArchived", err)
	}
	if added, err := store.SavePosts(ctx, "g", 404, nil, time.Now()); err != nil || added != 0 {
		t.Fatalf("SavePosts(nil) = %d, %v", added, err)
	}
}

func TestStoreReportsConnectionLoss(t *testing.T) {
	s := miniredis.RunT(t)
	store := NewStoreWithClient(redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = store.Close() })
	s.Close()

	if err := store.Ping(context.Background()); err == nil {
		t.Fatalf("Ping succeeded against a closed server")
	}
}
