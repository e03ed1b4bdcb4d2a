// Package fetcher loads corpus documents over HTTP(S) or from the local
// filesystem. Relative document URLs are resolved against a base that is
// either a directory or an http(s) URL.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrStatus is matched by every non-2xx response error.
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError carries the status of a failed HTTP fetch.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// DefaultMaxBytes caps a single document.
const DefaultMaxBytes = 64 << 20

// Fetcher implements search.Loader and the locator's document source.
type Fetcher struct {
	base     string
	client   *http.Client
	maxBytes int64
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client (tests, custom transports).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxBytes caps the size of a fetched document.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// New returns a Fetcher resolving relative URLs against base. Requests time
// out after timeout; zero means no client-side timeout.
func New(base string, timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		base: strings.TrimSpace(base),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBytes: DefaultMaxBytes,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Resolve returns the absolute location of a document URL: an http(s) URL or
// a filesystem path.
func (f *Fetcher) Resolve(ref string) (string, error) {
	if isHTTP(ref) {
		return ref, nil
	}
	if strings.HasPrefix(ref, "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", err
		}
		return filepath.FromSlash(u.Path), nil
	}
	if isHTTP(f.base) {
		b, err := url.Parse(strings.TrimRight(f.base, "/") + "/")
		if err != nil {
			return "", fmt.Errorf("base url: %w", err)
		}
		return b.ResolveReference(&url.URL{Path: ref}).String(), nil
	}
	if filepath.IsAbs(ref) {
		return ref, nil
	}
	base := f.base
	if base == "" {
		base = "."
	}
	return filepath.Join(base, filepath.FromSlash(ref)), nil
}

// Load returns the raw bytes of the document at ref. Any transport error,
// non-2xx status or read error fails the whole load; partial bodies are never
// returned.
func (f *Fetcher) Load(ctx context.Context, ref string) ([]byte, error) {
	loc, err := f.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if isHTTP(loc) {
		return f.get(ctx, loc)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(loc)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > f.maxBytes {
		return nil, fmt.Errorf("%s: document larger than %d bytes", loc, f.maxBytes)
	}
	return b, nil
}

func (f *Fetcher) get(ctx context.Context, loc string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: loc, Code: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > f.maxBytes {
		return nil, fmt.Errorf("%s: document larger than %d bytes", loc, f.maxBytes)
	}
	return b, nil
}

// IsLocal reports whether ref resolves to a filesystem path.
func (f *Fetcher) IsLocal(ref string) bool {
	loc, err := f.Resolve(ref)
	return err == nil && !isHTTP(loc)
}

func isHTTP(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
