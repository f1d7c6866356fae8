package api

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IsOP reports whether p started the thread identified by topicID.
func (p Post) IsOP(topicID int64) bool {
	return p.No == topicID
}

// IsSpoiler reports whether the attachment is spoilered.
func (p Post) IsSpoiler() bool {
	return p.Spoiler == 1
}

// Timestamp converts the unix post time.
func (p Post) Timestamp() time.Time {
	return time.Unix(p.Time, 0).UTC()
}

// HTMLComment returns the comment markup without <wbr> break hints.
func (p Post) HTMLComment() string {
	return strings.ReplaceAll(p.Comment, "<wbr>", "")
}

// TextComment returns the comment as plain text.
func (p Post) TextComment() string {
	return CleanComment(p.Comment)
}

// HasFile reports whether the post carries an attachment.
func (p Post) HasFile() bool {
	return p.Filename != "" || p.Tim != 0
}

// File projects the attachment fields; ok is false without an attachment.
func (p Post) File() (File, bool) {
	if !p.HasFile() {
		return File{}, false
	}
	return File{
		Tim:             p.Tim,
		Ext:             p.Ext,
		Filename:        p.Filename,
		Size:            p.Fsize,
		Width:           p.W,
		Height:          p.H,
		ThumbnailWidth:  p.TnW,
		ThumbnailHeight: p.TnH,
		MD5:             p.MD5,
		Deleted:         p.FileDeleted == 1,
	}, true
}

// File is the attachment of a post.
type File struct {
	Tim             int64
	Ext             string
	Filename        string
	Size            int64
	Width           int
	Height          int
	ThumbnailWidth  int
	ThumbnailHeight int
	MD5             string
	Deleted         bool
}

// Name is the server-side file name without extension.
func (f File) Name() string {
	return strconv.FormatInt(f.Tim, 10)
}

// FullName is the server-side file name with extension.
func (f File) FullName() string {
	return f.Name() + f.Ext
}

// OriginalFullName is the uploader's file name with extension.
func (f File) OriginalFullName() string {
	return f.Filename + f.Ext
}

// ThumbnailName is the server-side thumbnail file name.
func (f File) ThumbnailName() string {
	return f.Name() + "s.jpg"
}

// URL resolves the full-size location on u's board.
func (f File) URL(u URLs) string {
	return u.File(f.Tim, f.Ext)
}

// ThumbnailURL resolves the thumbnail location on u's board.
func (f File) ThumbnailURL(u URLs) string {
	return u.Thumbnail(f.Tim)
}

// Checksum decodes the base64 MD5 digest.
func (f File) Checksum() ([]byte, error) {
	sum, err := base64.StdEncoding.DecodeString(f.MD5)
	if err != nil {
		return nil, fmt.Errorf("decode md5: %w", err)
	}
	return sum, nil
}

// ChecksumHex returns the MD5 digest as lowercase hex.
func (f File) ChecksumHex() (string, error) {
	sum, err := f.Checksum()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}
