package api

import (
	"fmt"
	"strconv"
)

// Hosts names the domains serving each class of endpoint.
type Hosts struct {
	API    string
	Boards string
	File   string
	Static string
}

// DefaultHosts returns the public production domains.
func DefaultHosts() Hosts {
	return Hosts{
		API:    "a.4cdn.org",
		Boards: "boards.4chan.org",
		File:   "i.4cdn.org",
		Static: "s.4cdn.org",
	}
}

// URLs renders endpoint templates for a single board. The zero board name is
// valid for board-independent endpoints such as BoardList.
type URLs struct {
	scheme string
	hosts  Hosts
	board  string
}

// NewURLs builds the endpoint set for board.
func NewURLs(board string, hosts Hosts, https bool) URLs {
	scheme := "http"
	if https {
		scheme = "https"
	}
	return URLs{scheme: scheme, hosts: hosts, board: board}
}

// Board returns the board name the templates are bound to.
func (u URLs) Board() string {
	return u.board
}

// BoardList is the boards.json metadata listing.
func (u URLs) BoardList() string {
	return u.join(u.hosts.API, "/boards.json")
}

// Page is the paged board listing; pages are 1-based.
func (u URLs) Page(page int) string {
	return u.join(u.hosts.API, fmt.Sprintf("/%s/%d.json", u.board, page))
}

// Catalog is the truncated listing of every live thread.
func (u URLs) Catalog() string {
	return u.join(u.hosts.API, fmt.Sprintf("/%s/catalog.json", u.board))
}

// ThreadList is the listing of live thread ids per page.
func (u URLs) ThreadList() string {
	return u.join(u.hosts.API, fmt.Sprintf("/%s/threads.json", u.board))
}

// ArchivedThreadList is the flat list of archived thread ids.
func (u URLs) ArchivedThreadList() string {
	return u.join(u.hosts.API, fmt.Sprintf("/%s/archive.json", u.board))
}

// Thread is the JSON detail endpoint for one thread.
func (u URLs) Thread(id int64) string {
	return u.join(u.hosts.API, fmt.Sprintf("/%s/thread/%d.json", u.board, id))
}

// ThreadPage is the human-facing HTML page for one thread.
func (u URLs) ThreadPage(id int64) string {
	return u.join(u.hosts.Boards, fmt.Sprintf("/%s/thread/%d", u.board, id))
}

// File is the full-size attachment location.
func (u URLs) File(tim int64, ext string) string {
	return u.join(u.hosts.File, "/"+u.board+"/"+strconv.FormatInt(tim, 10)+ext)
}

// Thumbnail is the attachment thumbnail location.
func (u URLs) Thumbnail(tim int64) string {
	return u.join(u.hosts.File, "/"+u.board+"/"+strconv.FormatInt(tim, 10)+"s.jpg")
}

// Static resolves a path on the static asset host, e.g. "spoiler.png".
func (u URLs) Static(name string) string {
	return u.join(u.hosts.Static, "/image/"+name)
}

func (u URLs) join(host, path string) string {
	return u.scheme + "://" + host + path
}
