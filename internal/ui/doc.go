// Package ui is the bubbletea terminal interface for watching one board.
//
// The list view renders the latest state.Snapshot published by the poller
// and re-reads it every second. Opening a thread loads it through a
// ThreadSource off the update loop; while open, the thread is reloaded every
// poll interval and `r` forces a full reload. Results for a thread the user
// has already left are dropped.
//
// Themes follow the same Dracula and Slate palettes; `T` cycles them and
// saves the choice to prefs.
package ui
