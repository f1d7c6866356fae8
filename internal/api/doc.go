// Package api is the transport layer for the read-only board API.
//
// It owns three concerns:
//
//   - Endpoint templates (URLs): pure string substitution over the fixed
//     set of API, board page, file and static hosts.
//   - The Client: a rate-limited HTTP client. GetJSON decodes 200 responses
//     and reports anything else as a *StatusError. Get returns every status
//     to the caller together with the parsed Last-Modified header, which is
//     what conditional thread refreshes need. Head probes existence and
//     Download fetches attachment bytes.
//   - Wire types: Post, ThreadPosts, CatalogPage, PagedListing,
//     ThreadListPage and BoardList, plus read-only accessors over Post and
//     its attachment (File).
//
// Post records must carry "no". Decoding a record without it fails with
// ErrMissingPostID; callers never guess identifiers.
//
// Every request waits on the limiter first. The public API asks clients to
// stay at one request per second, which is the configured default.
package api
