package api

import (
	"encoding/json"
	"fmt"
)

// Post mirrors one post record. Only No is required; everything else is
// optional pass-through data. Raw holds the record exactly as received.
type Post struct {
	No            int64  `json:"no"`
	Resto         int64  `json:"resto"`
	Sticky        int    `json:"sticky"`
	Closed        int    `json:"closed"`
	Archived      int    `json:"archived"`
	Now           string `json:"now"`
	Time          int64  `json:"time"`
	Name          string `json:"name"`
	Trip          string `json:"trip"`
	PosterID      string `json:"id"`
	Capcode       string `json:"capcode"`
	Country       string `json:"country"`
	CountryName   string `json:"country_name"`
	Email         string `json:"email"`
	Subject       string `json:"sub"`
	Comment       string `json:"com"`
	Tim           int64  `json:"tim"`
	Filename      string `json:"filename"`
	Ext           string `json:"ext"`
	Fsize         int64  `json:"fsize"`
	MD5           string `json:"md5"`
	W             int    `json:"w"`
	H             int    `json:"h"`
	TnW           int    `json:"tn_w"`
	TnH           int    `json:"tn_h"`
	FileDeleted   int    `json:"filedeleted"`
	Spoiler       int    `json:"spoiler"`
	CustomSpoiler int    `json:"custom_spoiler"`
	OmittedPosts  int    `json:"omitted_posts"`
	OmittedImages int    `json:"omitted_images"`
	Replies       int    `json:"replies"`
	Images        int    `json:"images"`
	BumpLimit     int    `json:"bumplimit"`
	ImageLimit    int    `json:"imagelimit"`
	SemanticURL   string `json:"semantic_url"`
	LastModified  int64  `json:"last_modified"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes a post and rejects records without an id.
func (p *Post) UnmarshalJSON(data []byte) error {
	type wirePost Post
	var w struct {
		wirePost
		No *int64 `json:"no"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.No == nil {
		return ErrMissingPostID
	}
	*p = Post(w.wirePost)
	p.No = *w.No
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the original record when one was decoded.
func (p Post) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	type wirePost Post
	return json.Marshal(wirePost(p))
}

// ThreadPosts is the canonical per-thread shape: topic first, then replies.
type ThreadPosts struct {
	Posts []Post `json:"posts"`
}

// Topic returns the first post, or an error for an empty list.
func (t ThreadPosts) Topic() (Post, error) {
	if len(t.Posts) == 0 {
		return Post{}, fmt.Errorf("thread has no posts")
	}
	return t.Posts[0], nil
}

// PagedListing mirrors /{board}/{page}.json.
type PagedListing struct {
	Threads []ThreadPosts `json:"threads"`
}

// CatalogPage mirrors one page of /{board}/catalog.json. Thread entries stay
// raw so the normalizer can split off last_replies without losing fields.
type CatalogPage struct {
	Page    int               `json:"page"`
	Threads []json.RawMessage `json:"threads"`
}

// ThreadListPage mirrors one page of /{board}/threads.json.
type ThreadListPage struct {
	Page    int               `json:"page"`
	Threads []ThreadListEntry `json:"threads"`
}

// ThreadListEntry is a live thread id with its bump metadata.
type ThreadListEntry struct {
	No           int64 `json:"no"`
	LastModified int64 `json:"last_modified"`
	Replies      int   `json:"replies"`
}

// BoardList mirrors /boards.json.
type BoardList struct {
	Boards []BoardInfo `json:"boards"`
}

// BoardInfo is the subset of board metadata this client uses.
type BoardInfo struct {
	Board       string `json:"board"`
	Title       string `json:"title"`
	WorkSafe    int    `json:"ws_board"`
	PerPage     int    `json:"per_page"`
	Pages       int    `json:"pages"`
	MaxFilesize int64  `json:"max_filesize"`
	BumpLimit   int    `json:"bump_limit"`
	ImageLimit  int    `json:"image_limit"`
	MetaDesc    string `json:"meta_description"`
}
