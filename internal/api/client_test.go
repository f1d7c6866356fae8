package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	host := strings.TrimPrefix(server.URL, "http://")
	c := NewClient(Options{Hosts: Hosts{API: host, Boards: host, File: host, Static: host}})
	return c, server
}

func TestClient_GetJSONDecodesAndSetsHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		if r.URL.Path != "/boards.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"boards":[{"board":"g","title":"Technology","ws_board":1,"per_page":15,"pages":10}]}`))
	}))

	var list BoardList
	if err := c.GetJSON(context.Background(), c.URLs("").BoardList(), &list); err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if len(list.Boards) != 1 || list.Boards[0].Board != "g" || list.Boards[0].Pages != 10 {
		t.Fatalf("boards = %#v, want g with 10 pages", list.Boards)
	}
	if !strings.HasPrefix(gotUA, "chanwatch/") {
		t.Fatalf("User-Agent = %q, want chanwatch/*", gotUA)
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q, want application/json", gotAccept)
	}
}

func TestClient_GetJSONStatusAndDecodeErrors(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/g/catalog.json":
			_, _ = w.Write([]byte("{not-json"))
		case "/g/threads.json":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	urls := c.URLs("g")

	var pages []CatalogPage
	err := c.GetJSON(context.Background(), urls.Catalog(), &pages)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("GetJSON error = %v, want decode response error", err)
	}

	err = c.GetJSON(context.Background(), urls.ThreadList(), &pages)
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("GetJSON error = %v, want status 500", err)
	}
	if !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("error text = %q, want it to mention the status", err.Error())
	}
}

func TestClient_GetSendsIfModifiedSinceAndParsesLastModified(t *testing.T) {
	t.Parallel()

	since := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	modified := time.Date(2024, time.March, 2, 11, 30, 0, 0, time.UTC)
	var gotIMS string

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIMS = r.Header.Get("If-Modified-Since")
		if gotIMS != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
		_, _ = w.Write([]byte(`{"posts":[{"no":1}]}`))
	}))
	url := c.URLs("g").Thread(1)

	resp, err := c.Get(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.LastModified == nil || !resp.LastModified.Equal(modified) {
		t.Fatalf("LastModified = %v, want %v", resp.LastModified, modified)
	}

	resp, err = c.Get(context.Background(), url, &since)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", resp.StatusCode)
	}
	if gotIMS != since.Format(http.TimeFormat) {
		t.Fatalf("If-Modified-Since = %q, want %q", gotIMS, since.Format(http.TimeFormat))
	}
	if resp.LastModified != nil {
		t.Fatalf("LastModified = %v, want nil on 304 without header", resp.LastModified)
	}
}

func TestClient_HeadAndDownload(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/g/thread/7.json":
			if r.Method != http.MethodHead {
				t.Errorf("method = %s, want HEAD", r.Method)
			}
			w.WriteHeader(http.StatusOK)
		case "/g/1700000000000.png":
			_, _ = w.Write([]byte("png-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	urls := c.URLs("g")

	code, err := c.Head(context.Background(), urls.Thread(7))
	if err != nil || code != http.StatusOK {
		t.Fatalf("Head = %d, %v; want 200, nil", code, err)
	}
	code, err = c.Head(context.Background(), urls.Thread(8))
	if err != nil || code != http.StatusNotFound {
		t.Fatalf("Head = %d, %v; want 404, nil", code, err)
	}

	data, err := c.Download(context.Background(), urls.File(1700000000000, ".png"))
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("Download = %q, want png-bytes", data)
	}
	if _, err := c.Download(context.Background(), urls.Thumbnail(1)); !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("Download error = %v, want status 404", err)
	}
}

func TestClient_WaitHonoursCancelledContext(t *testing.T) {
	c := NewClient(Options{RequestsPerSecond: 0.001, Burst: 1})
	// First reservation consumes the burst; the second must wait ~1000s.
	if err := c.wait(context.Background()); err != nil {
		t.Fatalf("first wait returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("wait error = %v, want context.Canceled", err)
	}
}

func TestClient_TransportFailureIsError(t *testing.T) {
	c := NewClient(Options{Hosts: Hosts{API: "127.0.0.1:1"}, Timeout: time.Second})
	_, err := c.Get(context.Background(), c.URLs("g").Thread(1), nil)
	if err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("Get error = %v, want execute request error", err)
	}
}
