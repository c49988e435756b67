// Package prefs loads the user preferences of the material preview from a
// YAML file:
//
//	cache_path: ~/.blendermada
//	big_preview: true
//	cache_ttl: 5m
//	base_url: http://blendermada.com/
//	api_key: 0123abcd
//	proxy:
//	  enabled: true
//	  server: proxy.local
//	  port: "3128"
package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/overlay/fetch"
)

// maxFileSize bounds the preference file.
const maxFileSize = 1 << 20

// ErrInvalid is wrapped by Validate and Load for unusable values.
var ErrInvalid = errors.New("prefs: invalid preferences")

// Proxy holds the HTTP proxy settings.
type Proxy struct {
	Enabled  bool   `yaml:"enabled"`
	Server   string `yaml:"server"`
	Port     string `yaml:"port"`
	UseAuth  bool   `yaml:"use_auth"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// URL returns the proxy URL, or nil when the proxy is disabled.
func (p Proxy) URL() (*url.URL, error) {
	if !p.Enabled {
		return nil, nil
	}
	if p.Server == "" {
		return nil, fmt.Errorf("%w: proxy enabled without a server", ErrInvalid)
	}
	host := p.Server
	if p.Port != "" {
		host = net.JoinHostPort(p.Server, p.Port)
	}
	u := &url.URL{Scheme: "http", Host: host}
	if p.UseAuth {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u, nil
}

// Preferences are the user settings.
type Preferences struct {
	// CachePath is the directory the download cache lives under. A leading
	// "~" is expanded to the home directory.
	CachePath string `yaml:"cache_path"`

	// BigPreview selects 256x256 previews instead of 128x128.
	BigPreview bool `yaml:"big_preview"`

	CacheTTL time.Duration `yaml:"cache_ttl"`
	BaseURL  string        `yaml:"base_url"`

	// APIKey gives access to the user's favorite materials.
	APIKey string `yaml:"api_key,omitempty"`

	Proxy Proxy `yaml:"proxy"`
}

// HasFavorites reports whether an API key is set, so the favorites
// listing can be offered.
func (p Preferences) HasFavorites() bool { return p.APIKey != "" }

// Default returns the preferences used when no file is present.
func Default() Preferences {
	return Preferences{
		CachePath: filepath.Join("~", ".blendermada"),
		CacheTTL:  fetch.DefaultTTL,
		BaseURL:   fetch.DefaultBaseURL,
	}
}

// Load reads preferences from path. Keys missing from the file keep their
// default values; unknown keys are an error. A missing file yields the
// defaults.
func Load(path string) (Preferences, error) {
	p := Default()
	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("prefs: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return p, fmt.Errorf("prefs: read: %w", err)
	}
	if len(data) > maxFileSize {
		return p, fmt.Errorf("%w: %s is larger than %d bytes", ErrInvalid, path, maxFileSize)
	}
	return Parse(data)
}

// Parse decodes preferences from YAML over the defaults.
func Parse(data []byte) (Preferences, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Default(), fmt.Errorf("prefs: decode: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Default(), err
	}
	return p, nil
}

// Save writes p to path as YAML.
func (p Preferences) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks the values Load cannot check by type.
func (p Preferences) Validate() error {
	if p.CachePath == "" {
		return fmt.Errorf("%w: empty cache_path", ErrInvalid)
	}
	if p.CacheTTL < 0 {
		return fmt.Errorf("%w: negative cache_ttl %v", ErrInvalid, p.CacheTTL)
	}
	if _, err := url.Parse(p.BaseURL); err != nil {
		return fmt.Errorf("%w: base_url: %v", ErrInvalid, err)
	}
	_, err := p.Proxy.URL()
	return err
}

// CacheDir returns the expanded cache directory, <cache_path>/bmd_cache.
func (p Preferences) CacheDir() (string, error) {
	dir := p.CachePath
	if dir == "~" || strings.HasPrefix(dir, "~/") || strings.HasPrefix(dir, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("prefs: expand cache_path: %w", err)
		}
		dir = filepath.Join(home, dir[1:])
	}
	return filepath.Join(dir, "bmd_cache"), nil
}

// FetchOptions returns the fetch client options these preferences imply.
func (p Preferences) FetchOptions() ([]fetch.Option, error) {
	opts := []fetch.Option{fetch.WithTTL(p.CacheTTL)}
	if p.BaseURL != "" {
		opts = append(opts, fetch.WithBaseURL(p.BaseURL))
	}
	proxy, err := p.Proxy.URL()
	if err != nil {
		return nil, err
	}
	if proxy != nil {
		opts = append(opts, fetch.WithProxy(proxy))
	}
	return opts, nil
}

// NewFetcher creates a fetch client configured by p.
func (p Preferences) NewFetcher() (*fetch.Client, error) {
	dir, err := p.CacheDir()
	if err != nil {
		return nil, err
	}
	opts, err := p.FetchOptions()
	if err != nil {
		return nil, err
	}
	return fetch.New(dir, opts...)
}
