package app

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"github.com/five82/chanwatch/internal/api"
	"github.com/five82/chanwatch/internal/board"
)

// Downloader is the transport used by DownloadFiles.
type Downloader interface {
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// DownloadFiles saves every attachment of t into dir, named by server file
// name. Existing files are skipped, and full-size files are checked against
// the post's MD5. With thumbs set, thumbnails are saved instead.
func DownloadFiles(ctx context.Context, d Downloader, t *board.Thread, dir string, thumbs bool) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create download dir: %w", err)
	}
	urls := t.Links()

	saved := 0
	for _, f := range t.Files() {
		if f.Deleted {
			continue
		}
		name, url := f.FullName(), f.URL(urls)
		if thumbs {
			name, url = f.ThumbnailName(), f.ThumbnailURL(urls)
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}

		data, err := d.Download(ctx, url)
		if err != nil {
			return saved, fmt.Errorf("download %s: %w", name, err)
		}
		if !thumbs {
			if err := verifyChecksum(f, data); err != nil {
				return saved, fmt.Errorf("download %s: %w", name, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return saved, fmt.Errorf("write %s: %w", name, err)
		}
		saved++
	}
	return saved, nil
}

func verifyChecksum(f api.File, data []byte) error {
	if f.MD5 == "" {
		return nil
	}
	want, err := f.Checksum()
	if err != nil {
		return err
	}
	got := md5.Sum(data)
	if !bytes.Equal(got[:], want) {
		return fmt.Errorf("checksum mismatch")
	}
	return nil
}
