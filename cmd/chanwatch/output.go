package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/five82/chanwatch/internal/api"
	"github.com/five82/chanwatch/internal/board"
)

const excerptWidth = 60

// printBoards writes one row per board sorted by name. Metadata errors stop
// the listing rather than printing empty fields.
func printBoards(ctx context.Context, w io.Writer, boards map[string]*board.Board) error {
	names := make([]string, 0, len(boards))
	for name := range boards {
		names = append(names, name)
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOARD\tTITLE\tWORKSAFE\tPAGES\tPER PAGE")
	for _, name := range names {
		info, err := boards[name].Metadata(ctx)
		if err != nil {
			tw.Flush()
			return fmt.Errorf("board /%s/: %w", name, err)
		}
		fmt.Fprintf(tw, "/%s/\t%s\t%t\t%d\t%d\n", name, info.Title, info.WorkSafe == 1, info.Pages, info.PerPage)
	}
	return tw.Flush()
}

func printThreads(w io.Writer, threads []*board.Thread) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREPLIES\tIMAGES\tFLAGS\tSUBJECT")
	for _, t := range threads {
		s := t.Summary()
		title := s.Subject
		if title == "" {
			title = s.Excerpt
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", s.ID, s.Replies, s.Images, flags(s), oneLine(title, excerptWidth))
	}
	tw.Flush()
}

func flags(s board.Summary) string {
	var f []string
	if s.Sticky {
		f = append(f, "sticky")
	}
	if s.Closed {
		f = append(f, "closed")
	}
	if len(f) == 0 {
		return "-"
	}
	return strings.Join(f, ",")
}

func printThread(w io.Writer, t *board.Thread, posts []api.Post) {
	fmt.Fprintf(w, "%s\n%s\n\n", t.String(), t.URL())
	printPosts(w, t.ID(), posts)
}

func printPosts(w io.Writer, topicID int64, posts []api.Post) {
	for _, p := range posts {
		name := p.Name
		if name == "" {
			name = "Anonymous"
		}
		marker := ""
		if p.IsOP(topicID) {
			marker = " [OP]"
		}
		fmt.Fprintf(w, "No.%d%s  %s  %s\n", p.No, marker, name, p.Timestamp().Local().Format(time.DateTime))
		if f, ok := p.File(); ok {
			if f.Deleted {
				fmt.Fprintln(w, "  file: [deleted]")
			} else {
				fmt.Fprintf(w, "  file: %s (%dx%d)\n", f.OriginalFullName(), f.Width, f.Height)
			}
		}
		if text := p.TextComment(); text != "" {
			for _, line := range strings.Split(text, "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		fmt.Fprintln(w)
	}
}

func printIDs(w io.Writer, ids []int64) {
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
}

// oneLine collapses whitespace and cuts s to at most limit runes.
func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
