package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingServer serves body for every path and counts requests.
func countingServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(srv.URL + "/")}, opts...)
	c, err := New(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestFetchImageCachesWithinTTL(t *testing.T) {
	srv, hits := countingServer(t, "png-bytes")
	c := newClient(t, srv)
	ctx := context.Background()

	path, err := c.FetchImage(ctx, "/media/previews/wood.png")
	if err != nil {
		t.Fatalf("FetchImage: %v", err)
	}
	if want := filepath.Join(c.Dir(), "images", "wood.png"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if got := readFile(t, path); got != "png-bytes" {
		t.Errorf("content = %q", got)
	}

	if _, err := c.FetchImage(ctx, "/media/previews/wood.png"); err != nil {
		t.Fatalf("second FetchImage: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}

	old := time.Now().Add(-2 * DefaultTTL)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if !c.Expired(path) {
		t.Error("Expired() = false for a file older than the TTL")
	}
	if _, err := c.FetchImage(ctx, "/media/previews/wood.png"); err != nil {
		t.Fatalf("FetchImage after expiry: %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hits = %d after expiry, want 2", n)
	}
}

func TestFetchLibrary(t *testing.T) {
	srv, _ := countingServer(t, "blend")
	c := newClient(t, srv)

	path, err := c.FetchLibrary(context.Background(), srv.URL+"/media/files/brick.blend")
	if err != nil {
		t.Fatalf("FetchLibrary: %v", err)
	}
	if want := filepath.Join(c.Dir(), "files", "brick.blend"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestZeroTTLAlwaysDownloads(t *testing.T) {
	srv, hits := countingServer(t, "x")
	c := newClient(t, srv, WithTTL(0))
	for i := 0; i < 3; i++ {
		if _, err := c.FetchImage(context.Background(), "a.png"); err != nil {
			t.Fatal(err)
		}
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hits = %d, want 3", n)
	}
}

func TestFetchErrors(t *testing.T) {
	srv, _ := countingServer(t, "x")
	c := newClient(t, srv)
	ctx := context.Background()

	_, err := c.FetchImage(ctx, "/missing.png")
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("FetchImage(404) = %v, want *IOError", err)
	}
	if ioErr.Op != "get" || !errors.Is(err, ErrStatus) {
		t.Errorf("IOError = %+v, want get/ErrStatus", ioErr)
	}
	if _, statErr := os.Stat(filepath.Join(c.Dir(), "images", "missing.png")); !os.IsNotExist(statErr) {
		t.Errorf("failed download left a file: %v", statErr)
	}

	if _, err := c.FetchImage(ctx, "/media/"); !errors.Is(err, ErrNoName) {
		t.Errorf("FetchImage(dir URL) = %v, want ErrNoName", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.FetchImage(cancelled, "/other.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("FetchImage(cancelled) = %v, want context.Canceled", err)
	}
}

func TestConcurrentFetchDownloadsOnce(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte("slow"))
	}))
	t.Cleanup(srv.Close)
	c := newClient(t, srv)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchImage(context.Background(), "/slow.png")
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("FetchImage: %v", err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestWithProxy(t *testing.T) {
	var host atomic.Value
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host.Store(r.URL.Host)
		_, _ = w.Write([]byte("via proxy"))
	}))
	t.Cleanup(proxy.Close)
	proxyURL, err := url.Parse(proxy.URL)
	if err != nil {
		t.Fatal(err)
	}

	c, err := New(t.TempDir(), WithBaseURL("http://materials.invalid/"), WithProxy(proxyURL))
	if err != nil {
		t.Fatal(err)
	}
	path, err := c.FetchImage(context.Background(), "thumb.jpg")
	if err != nil {
		t.Fatalf("FetchImage: %v", err)
	}
	if got := readFile(t, path); got != "via proxy" {
		t.Errorf("content = %q", got)
	}
	if got, _ := host.Load().(string); got != "materials.invalid" {
		t.Errorf("proxied host = %q, want materials.invalid", got)
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if c.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", c.TTL(), DefaultTTL)
	}
	full, name, err := c.resolve("/media/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if full != "http://blendermada.com/media/a.png" || name != "a.png" {
		t.Errorf("resolve = %q, %q", full, name)
	}
	if _, err := New(t.TempDir(), WithBaseURL("://bad")); err == nil {
		t.Error("New with bad base URL succeeded")
	}
}
