// Package board keeps a local, mutable view of a board's threads in step
// with the read-only API.
//
// # Overview
//
// A Board owns one Cache mapping thread id to the single Thread instance for
// that id. Listing fetches (GetThreads, GetAllThreads) produce threads; detail
// fetches (GetThread, Thread.Update) refine them. Repeated lookups of the same
// id always return the same *Thread.
//
// # Data Flow
//
//	GetAllThreads(false)        GetThreads(page)         GetAllThreads(true)
//	        │                          │                          │
//	   catalog.json               {page}.json                threads.json
//	        │                          │                          │
//	 NormalizeCatalog                  │                  GetThread(id) × N
//	        │                          │                  (errgroup, bounded)
//	        └──────────┬───────────────┘                          │
//	                   ▼                                          ▼
//	       Cache.InsertIfAbsent                          Cache.LoadOrStore
//	   (new id: build; cached id: Stale)
//	                   │
//	                   ▼
//	        RefreshCache ──► Thread.Update for Stale threads only
//
// # Thread Lifecycle
//
//	         listing sees cached id
//	 Fresh ─────────────────────────► Stale
//	   ▲  ◄─────────────────────────    │
//	   │        Update: 200             │ Update: 404
//	   │                                ▼
//	   └──────── Update: 200 ─────────  Dead  (evicted from Cache)
//
// Dead is not terminal. A Dead thread is skipped by Update unless force is
// set; if the server answers 200 the thread is revived and reinserted under
// its id, which heals a transient false 404.
//
// # Merge Semantics
//
// Update sends If-Modified-Since from the previous Last-Modified. On 200:
//
//   - Incremental merge when a reply cursor exists (LastReplyID > 0), the
//     call is not forced and nothing is omitted locally: only replies with
//     ids above the cursor are appended. History older than the server's
//     current window is kept.
//   - Full replace otherwise: the fetched replies become the reply list.
//
// Either way the topic is replaced, omitted counters drop to zero, the state
// becomes Fresh and the cursor moves to the highest id held. The return value
// is the net change in held replies.
//
// # Error Policy
//
// Soft outcomes are encoded in the return value and the thread state:
// 304, a 404 during Update, transport failures and context cancellation all
// return 0 with a nil error. Hard outcomes are returned as errors: any other
// status (ErrUnexpectedStatus), malformed JSON, and post records without an
// id. GetThread on an uncached id treats 404 as ErrThreadNotFound or as a nil
// result depending on ThreadOptions.Raise404.
//
// # Concurrency
//
// Cache and Thread are safe for concurrent use. Update calls on the same
// Thread are serialized; field reads never wait on network I/O. Board
// metadata is loaded lazily through singleflight so concurrent first callers
// share one request.
package board
