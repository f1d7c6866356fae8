package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher is the transport surface the board engine depends on. It is
// implemented by *Client and can be substituted in tests.
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, dest any) error
	Get(ctx context.Context, rawURL string, since *time.Time) (*Response, error)
	Head(ctx context.Context, rawURL string) (int, error)
	URLs(board string) URLs
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// ErrMissingPostID reports a post record without its "no" field.
var ErrMissingPostID = errors.New("post record has no id")

// StatusError reports a response whose status the caller did not accept.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.URL, e.StatusCode)
}

// IsStatus reports whether err is a StatusError carrying code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	// LastModified is nil when the server sent no parseable Last-Modified.
	LastModified *time.Time
}

// Options configure a Client. Zero values fall back to defaults.
type Options struct {
	Hosts             Hosts
	HTTPS             bool
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client performs throttled, read-only requests against the board API.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	hosts     Hosts
	https     bool
}

const (
	defaultUserAgent = "chanwatch/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	hosts := opts.Hosts
	defaults := DefaultHosts()
	if strings.TrimSpace(hosts.API) == "" {
		hosts.API = defaults.API
	}
	if strings.TrimSpace(hosts.Boards) == "" {
		hosts.Boards = defaults.Boards
	}
	if strings.TrimSpace(hosts.File) == "" {
		hosts.File = defaults.File
	}
	if strings.TrimSpace(hosts.Static) == "" {
		hosts.Static = defaults.Static
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		http:      hc,
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: ua,
		hosts:     hosts,
		https:     opts.HTTPS,
	}
}

// URLs returns the endpoint templates for board.
func (c *Client) URLs(board string) URLs {
	return NewURLs(board, c.hosts, c.https)
}

// GetJSON fetches rawURL and decodes a 200 response into dest.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dest any) error {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Get fetches rawURL, sending If-Modified-Since when since is non-nil. Any
// status is returned to the caller; only transport failures are errors.
func (c *Client) Get(ctx context.Context, rawURL string, since *time.Time) (*Response, error) {
	header := http.Header{}
	if since != nil {
		header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}
	resp, err := c.do(ctx, http.MethodGet, rawURL, header)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	out := &Response{StatusCode: resp.StatusCode, Body: body}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			out.LastModified = &t
		}
	}
	return out, nil
}

// Head probes rawURL and returns the status code.
func (c *Client) Head(ctx context.Context, rawURL string) (int, error) {
	resp, err := c.do(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// Download returns the body of a 200 response, typically a file or thumbnail.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, header http.Header) (*http.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func (c *Client) wait(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return errors.New("invalid limiter configuration")
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
