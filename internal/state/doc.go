// Package state shares the latest board listing between the poller and the
// TUI.
//
// The poller is the single writer: after each catalog fetch and cache
// refresh it calls Update with the board's thread summaries and the number
// of replies gained. The TUI reads with Snapshot on every tick. Both sides
// hold the lock only while copying; network I/O and rendering happen
// outside it.
//
// A failed poll keeps the previous listing and records the error, so the
// screen keeps showing the last good data while the header reports the
// failure. Two consecutive failures flip IsOffline.
//
// Snapshots are copies: the thread slice is cloned and the error is wrapped
// in a fresh value, so callers may hold or mutate them freely.
package state
