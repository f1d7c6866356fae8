package board

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/chanwatch/internal/api"
)

type fakeRoute struct {
	status       int
	body         string
	lastModified time.Time
	delay        time.Duration
}

// fakeAPI serves canned responses keyed by path and counts hits. Routes with a
// Last-Modified answer 304 to a matching If-Modified-Since.
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]fakeRoute
	hits   map[string]int
	ims    map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		routes: make(map[string]fakeRoute),
		hits:   make(map[string]int),
		ims:    make(map[string]string),
	}
}

func (f *fakeAPI) set(path string, status int, body string) {
	f.setModified(path, status, body, time.Time{})
}

func (f *fakeAPI) setModified(path string, status int, body string, modified time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = fakeRoute{status: status, body: body, lastModified: modified}
}

func (f *fakeAPI) setDelay(path string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.routes[path]
	r.delay = d
	f.routes[path] = r
}

func (f *fakeAPI) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeAPI) lastIMS(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ims[path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	ims := r.Header.Get("If-Modified-Since")
	f.ims[r.URL.Path] = ims
	route, ok := f.routes[r.URL.Path]
	f.mu.Unlock()

	if route.delay > 0 {
		time.Sleep(route.delay)
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	if !route.lastModified.IsZero() {
		if since, err := http.ParseTime(ims); err == nil && !route.lastModified.After(since) && route.status == http.StatusOK {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Last-Modified", route.lastModified.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(route.status)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(route.body))
	}
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

func newTestBoard(t *testing.T, f *fakeAPI) *Board {
	t.Helper()
	return New("g", newTestClient(t, f), Options{Workers: 3})
}

func postIDs(posts []api.Post) []int64 {
	out := make([]int64, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.No)
	}
	return out
}
