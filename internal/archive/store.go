// Package archive keeps a Redis copy of every post chanwatch has seen, so
// thread history survives the thread's removal from the live board.
package archive

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/five82/chanwatch/internal/api"
)

// ErrThreadNotArchived is returned by lookups for a thread with no record.
var ErrThreadNotArchived = errors.New("thread not archived")

// ThreadRecord summarizes one archived thread.
type ThreadRecord struct {
	Board    string
	ID       int64
	Subject  string
	Posts    int
	LastSeen time.Time
	Dead     bool
	DeadAt   time.Time
}

// Store archives posts in Redis.
//
// Keys, all under prefix:
//
//	<board>:threads             sorted set of thread ids scored by last save
//	<board>:thread:<id>:posts   hash of post id to the post's raw JSON
//	<board>:thread:<id>:meta    hash with subject, dead_at
type Store struct {
	client *redis.Client
	prefix string
}

const defaultPrefix = "chanwatch:"

// NewStore connects to redisURL and verifies the connection.
func NewStore(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client, prefix: defaultPrefix}
}

func (s *Store) indexKey(board string) string {
	return s.prefix + board + ":threads"
}

func (s *Store) postsKey(board string, id int64) string {
	return s.prefix + board + ":thread:" + strconv.FormatInt(id, 10) + ":posts"
}

func (s *Store) metaKey(board string, id int64) string {
	return s.prefix + board + ":thread:" + strconv.FormatInt(id, 10) + ":meta"
}

// SavePosts stores posts under thread id and returns how many were new to
// the archive. posts[0] is treated as the topic when its id equals id.
func (s *Store) SavePosts(ctx context.Context, board string, id int64, posts []api.Post, now time.Time) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	fields := make([]any, 0, 2*len(posts))
	for _, p := range posts {
		raw, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("marshal post %d: %w", p.No, err)
		}
		fields = append(fields, strconv.FormatInt(p.No, 10), raw)
	}

	var added *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.HSet(ctx, s.postsKey(board, id), fields...)
		pipe.ZAdd(ctx, s.indexKey(board), redis.Z{Score: float64(now.Unix()), Member: id})
		if posts[0].No == id && posts[0].Subject != "" {
			pipe.HSet(ctx, s.metaKey(board, id), "subject", api.CleanComment(posts[0].Subject))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save thread %d: %w", id, err)
	}
	return int(added.Val()), nil
}

// MarkDead records that the live board stopped serving thread id.
func (s *Store) MarkDead(ctx context.Context, board string, id int64, at time.Time) error {
	exists, err := s.client.Exists(ctx, s.postsKey(board, id)).Result()
	if err != nil {
		return fmt.Errorf("check thread %d: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: /%s/%d", ErrThreadNotArchived, board, id)
	}
	if err := s.client.HSet(ctx, s.metaKey(board, id), "dead_at", at.Unix()).Err(); err != nil {
		return fmt.Errorf("mark thread %d dead: %w", id, err)
	}
	return nil
}

// Posts returns the archived posts of thread id in id order.
func (s *Store) Posts(ctx context.Context, board string, id int64) ([]api.Post, error) {
	values, err := s.client.HVals(ctx, s.postsKey(board, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load thread %d: %w", id, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: /%s/%d", ErrThreadNotArchived, board, id)
	}

	posts := make([]api.Post, 0, len(values))
	for _, v := range values {
		var p api.Post
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("decode archived post in thread %d: %w", id, err)
		}
		posts = append(posts, p)
	}
	slices.SortFunc(posts, func(a, b api.Post) int { return cmp.Compare(a.No, b.No) })
	return posts, nil
}

// Thread returns the record for one archived thread.
func (s *Store) Thread(ctx context.Context, board string, id int64) (ThreadRecord, error) {
	score, err := s.client.ZScore(ctx, s.indexKey(board), strconv.FormatInt(id, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return ThreadRecord{}, fmt.Errorf("%w: /%s/%d", ErrThreadNotArchived, board, id)
	}
	if err != nil {
		return ThreadRecord{}, fmt.Errorf("load thread %d: %w", id, err)
	}
	return s.record(ctx, board, id, score)
}

// Threads lists archived threads for board, most recently saved first.
func (s *Store) Threads(ctx context.Context, board string) ([]ThreadRecord, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, s.indexKey(board), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	out := make([]ThreadRecord, 0, len(entries))
	for _, z := range entries {
		member, _ := z.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad thread id %q in index: %w", member, err)
		}
		rec, err := s.record(ctx, board, id, z.Score)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) record(ctx context.Context, board string, id int64, score float64) (ThreadRecord, error) {
	var (
		count *redis.IntCmd
		meta  *redis.MapStringStringCmd
	)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.HLen(ctx, s.postsKey(board, id))
		meta = pipe.HGetAll(ctx, s.metaKey(board, id))
		return nil
	})
	if err != nil {
		return ThreadRecord{}, fmt.Errorf("load thread %d: %w", id, err)
	}

	rec := ThreadRecord{
		Board:    board,
		ID:       id,
		Subject:  meta.Val()["subject"],
		Posts:    int(count.Val()),
		LastSeen: time.Unix(int64(score), 0).UTC(),
	}
	if raw, ok := meta.Val()["dead_at"]; ok {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			rec.Dead = true
			rec.DeadAt = time.Unix(secs, 0).UTC()
		}
	}
	return rec, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
