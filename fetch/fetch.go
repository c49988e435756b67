// Package fetch downloads preview images, material libraries and the
// material catalogue into a disk cache.
//
// Catalogue documents (categories, material listings, material details)
// are JSON and cached as <dir>/<name>, for example <dir>/cyc-cat-3. Files
// are stored as <dir>/images/<name> and <dir>/files/<name>, where
// name is the last path element of the URL. A cached file is reused until
// its modification time is older than the client's TTL. Concurrent
// requests for the same file share one download.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/overlay"
)

const (
	// DefaultBaseURL is the server relative URLs are resolved against.
	DefaultBaseURL = "http://blendermada.com/"

	// DefaultTTL is how long a downloaded file is considered fresh.
	DefaultTTL = 300 * time.Second

	defaultTimeout = 30 * time.Second

	imagesDir  = "images"
	libraryDir = "files"
)

var (
	// ErrStatus is wrapped by IOError when the server answers with a
	// status other than 200.
	ErrStatus = errors.New("fetch: unexpected HTTP status")

	// ErrNoName is wrapped by IOError when a URL has no file name to
	// cache it under.
	ErrNoName = errors.New("fetch: URL has no file name")
)

// IOError reports a failed download or cache write.
type IOError struct {
	Op  string // "resolve", "get", "write", "read", "decode"
	URL string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("fetch: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the URL relative requests are resolved against.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithTTL sets how long cached files stay fresh. A non-positive TTL
// disables reuse: every call downloads again.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithHTTPClient sets the HTTP client. A client set here is used as is;
// WithProxy does not modify it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithProxy routes requests through an HTTP proxy. User information in
// the proxy URL is sent as proxy authorization.
func WithProxy(proxy *url.URL) Option {
	return func(c *Client) { c.proxy = proxy }
}

// Client downloads into a cache directory. It is safe for concurrent use.
type Client struct {
	dir     string
	baseURL string
	base    *url.URL
	ttl     time.Duration
	http    *http.Client
	proxy   *url.URL
	logger  atomic.Pointer[slog.Logger]

	group singleflight.Group
}

// New creates a client caching under dir.
func New(dir string, opts ...Option) (*Client, error) {
	c := &Client{
		dir:     dir,
		baseURL: DefaultBaseURL,
		ttl:     DefaultTTL,
	}
	c.logger.Store(overlay.Logger())
	for _, opt := range opts {
		opt(c)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse base URL: %w", err)
	}
	c.base = base
	if c.http == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.proxy != nil {
			transport.Proxy = http.ProxyURL(c.proxy)
		}
		c.http = &http.Client{Timeout: defaultTimeout, Transport: transport}
	}
	return c, nil
}

// SetLogger sets the logger for the client. Nil restores the overlay
// package logger.
func (c *Client) SetLogger(l *slog.Logger) {
	if l == nil {
		l = overlay.Logger()
	}
	c.logger.Store(l)
}

// Dir returns the cache root.
func (c *Client) Dir() string { return c.dir }

// TTL returns the freshness window.
func (c *Client) TTL() time.Duration { return c.ttl }

// FetchImage returns the local path of the image at rawURL, downloading
// it when the cached copy is missing or expired.
func (c *Client) FetchImage(ctx context.Context, rawURL string) (string, error) {
	return c.fetch(ctx, imagesDir, rawURL)
}

// FetchLibrary returns the local path of the material library at rawURL,
// downloading it when the cached copy is missing or expired.
func (c *Client) FetchLibrary(ctx context.Context, rawURL string) (string, error) {
	return c.fetch(ctx, libraryDir, rawURL)
}

// Expired reports whether file is missing or older than the client's TTL.
func (c *Client) Expired(file string) bool {
	fi, err := os.Stat(file)
	if err != nil {
		return true
	}
	return time.Since(fi.ModTime()) >= c.ttl
}

func (c *Client) fetch(ctx context.Context, kind, rawURL string) (string, error) {
	full, name, err := c.resolve(rawURL)
	if err != nil {
		return "", &IOError{Op: "resolve", URL: rawURL, Err: err}
	}
	dst := filepath.Join(c.dir, kind, name)
	if !c.Expired(dst) {
		c.logger.Load().Debug("fetch: cache hit", "url", full, "path", dst)
		return dst, nil
	}

	_, err, shared := c.group.Do(dst, func() (any, error) {
		// Another caller may have finished the download since the check
		// above.
		if !c.Expired(dst) {
			return nil, nil
		}
		return nil, c.download(ctx, full, dst)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Load().Debug("fetch: shared download", "url", full)
	}
	return dst, nil
}

// resolve joins rawURL with the base URL and returns the absolute URL and
// the cache file name.
func (c *Client) resolve(rawURL string) (string, string, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	u := c.base.ResolveReference(ref)
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return "", "", ErrNoName
	}
	return u.String(), path.Base(u.Path), nil
}

func (c *Client) download(ctx context.Context, full, dst string) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return &IOError{Op: "get", URL: full, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &IOError{Op: "get", URL: full, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &IOError{Op: "get", URL: full, Err: fmt.Errorf("%w: %s", ErrStatus, resp.Status)}
	}

	n, err := writeAtomic(dst, resp.Body)
	if err != nil {
		return &IOError{Op: "write", URL: full, Err: err}
	}
	c.logger.Load().Info("fetch: downloaded",
		"url", full,
		"path", dst,
		"bytes", n,
		"elapsed", time.Since(start))
	return nil
}

// writeAtomic copies r to a temporary file next to dst and renames it
// into place, so readers never observe a partial file.
func writeAtomic(dst string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}
