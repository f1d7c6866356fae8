package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/chanwatch/internal/api"
	"github.com/five82/chanwatch/internal/board"
)

// fakeAPI serves canned 200 bodies keyed by path; unknown paths are 404.
type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{bodies: make(map[string]string), hits: make(map[string]int)}
}

func (f *fakeAPI) set(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[path] = body
}

func (f *fakeAPI) remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bodies, path)
}

func (f *fakeAPI) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	body, ok := f.bodies[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, f *fakeAPI) *api.Client {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	host := strings.TrimPrefix(server.URL, "http://")
	return api.NewClient(api.Options{
		Hosts:   api.Hosts{API: host, Boards: host, File: host, Static: host},
		Timeout: 2 * time.Second,
	})
}

func newTestBoard(t *testing.T, f *fakeAPI) *board.Board {
	t.Helper()
	return board.New("g", newTestClient(t, f), board.Options{Workers: 2})
}
