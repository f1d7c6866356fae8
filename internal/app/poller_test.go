package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/chanwatch/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestRefresh_PublishesCatalogAndRefreshDelta(t *testing.T) {
	f := newFakeAPI()
	b := newTestBoard(t, f)
	f.set("/g/catalog.json", `[{"page":1,"threads":[{"no":1,"sub":"first","replies":1,"last_replies":[{"no":2}]},{"no":3}]}]`)
	f.set("/g/thread/1.json", `{"posts":[{"no":1,"sub":"first"},{"no":2},{"no":4}]}`)

	var store state.Store
	store.SetBoard("g", "Technology")
	if err := refresh(context.Background(), &store, b); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	snap := store.Snapshot()
	if !snap.HasData || len(snap.Threads) != 2 || snap.Threads[0].Subject != "first" {
		t.Fatalf("snapshot = %#v", snap)
	}
	if snap.NewPosts != 0 {
		t.Fatalf("NewPosts = %d on first poll, want 0", snap.NewPosts)
	}

	// The second catalog read flags both threads stale; only thread 1 has news.
	if err := refresh(context.Background(), &store, b); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	snap = store.Snapshot()
	if snap.NewPosts != 1 {
		t.Fatalf("NewPosts = %d, want 1", snap.NewPosts)
	}
	if s, ok := snap.Thread(1); !ok || s.LastReplyID != 4 {
		t.Fatalf("thread 1 summary = %#v, %v", s, ok)
	}
}

func TestRefresh_RecordsFailure(t *testing.T) {
	f := newFakeAPI()
	b := newTestBoard(t, f)

	var store state.Store
	if err := refresh(context.Background(), &store, b); err == nil {
		t.Fatalf("refresh returned nil error for a missing catalog")
	}
	snap := store.Snapshot()
	if snap.HasData || snap.ConsecutiveFailures != 1 || snap.LastError == nil {
		t.Fatalf("snapshot = %#v, want one recorded failure", snap)
	}
}

func TestStartPoller_StopsOnCancel(t *testing.T) {
	f := newFakeAPI()
	b := newTestBoard(t, f)
	f.set("/g/catalog.json", `[{"page":1,"threads":[{"no":1}]}]`)

	ctx, cancel := context.WithCancel(context.Background())
	var store state.Store
	StartPoller(ctx, &store, b, 10*time.Millisecond, zerolog.Nop())

	deadline := time.Now().Add(2 * time.Second)
	for !store.Snapshot().HasData {
		if time.Now().After(deadline) {
			t.Fatalf("poller never published data")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(30 * time.Millisecond)
	hits := f.hitCount("/g/catalog.json")
	time.Sleep(50 * time.Millisecond)
	if got := f.hitCount("/g/catalog.json"); got != hits {
		t.Fatalf("poller kept running after cancel: %d -> %d hits", hits, got)
	}
}
