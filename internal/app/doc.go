// Package app wires configuration, the board engine, the archive and the UI
// into chanwatch's runtime modes.
//
// # Components
//
//   - env.go: NewEnv loads config, applies flag overrides, and builds the
//     shared api.Client, zerolog logger and optional Redis archive
//   - poller.go: StartPoller feeds state.Store from the board catalog
//   - watch.go: Watcher and Watch, the headless new-post reporter
//   - app.go: Run, the TUI entry point, and the thread source it uses
//   - download.go: DownloadFiles saves attachments after an MD5 check
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> NewEnv()            config, client, logger, archive
//	       ├─────> refresh()           first catalog fetch
//	       ├─────> StartPoller()       background catalog + RefreshCache
//	       └─────> ui.Run()            TUI (blocks)
//
//	Poller loop:
//	  GetAllThreads(catalog) ─> RefreshCache() ─> store.Update(summaries)
//
// # Polling Behavior
//
// Both the poller and Watch wait PollInterval between cycles. A failed
// cycle doubles the wait per consecutive failure, capped at 30 seconds, and
// the first success resets it. Transient failures inside a thread update
// never reach this level: the board engine absorbs them and retries on the
// next cycle.
//
// # Watch Mode
//
// With thread ids, each cycle refreshes those threads and drops any the
// server reports gone. Without ids, each cycle reads the catalog and
// refreshes the cached threads it flagged stale; threads that leave the
// cache are reported gone. New posts are logged at info and, when Redis is
// configured, archived. The first sighting of a thread is archived whole
// without being reported as new.
package app
