package board

import "errors"

var (
	// ErrThreadNotFound is returned by GetThread when the server reports 404
	// and the caller asked for it to be surfaced.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrUnexpectedStatus wraps any thread detail status other than
	// 200, 304 or 404.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrBoardNotFound is returned by metadata lookups for a board missing
	// from the boards listing.
	ErrBoardNotFound = errors.New("board not found")
)
