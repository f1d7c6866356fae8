package board

import (
	"encoding/json"
	"fmt"

	"github.com/five82/chanwatch/internal/api"
)

const recentRepliesKey = "last_replies"

// NormalizeCatalog turns catalog pages into one post list per thread with the
// topic first, followed by the thread's recent replies in server order.
// Output order is not meaningful; index results by topic id.
func NormalizeCatalog(pages []api.CatalogPage) ([]api.ThreadPosts, error) {
	var out []api.ThreadPosts
	for _, page := range pages {
		for _, raw := range page.Threads {
			posts, err := normalizeCatalogThread(raw)
			if err != nil {
				return nil, fmt.Errorf("catalog page %d: %w", page.Page, err)
			}
			out = append(out, posts)
		}
	}
	return out, nil
}

func normalizeCatalogThread(raw json.RawMessage) (api.ThreadPosts, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return api.ThreadPosts{}, fmt.Errorf("decode catalog thread: %w", err)
	}

	var recent []api.Post
	if value, ok := fields[recentRepliesKey]; ok {
		if err := json.Unmarshal(value, &recent); err != nil {
			return api.ThreadPosts{}, fmt.Errorf("decode %s: %w", recentRepliesKey, err)
		}
		delete(fields, recentRepliesKey)
	}

	topicRaw, err := json.Marshal(fields)
	if err != nil {
		return api.ThreadPosts{}, fmt.Errorf("encode catalog topic: %w", err)
	}
	var topic api.Post
	if err := json.Unmarshal(topicRaw, &topic); err != nil {
		return api.ThreadPosts{}, fmt.Errorf("decode catalog topic: %w", err)
	}

	posts := make([]api.Post, 0, 1+len(recent))
	posts = append(posts, topic)
	posts = append(posts, recent...)
	return api.ThreadPosts{Posts: posts}, nil
}
