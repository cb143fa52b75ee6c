// ABOUTME: Fetchers that retrieve assets from an upstream origin or a filesystem
// ABOUTME: Both return whole responses; bodies are bounded by maxBodySize

package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// maxBodySize caps a single fetched asset.
const maxBodySize = 32 << 20

// Fetcher retrieves an asset by request path (which may include a query).
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*Response, error)
}

// ErrNotOriginPath is returned when a fetch target would leave the origin.
var ErrNotOriginPath = errors.New("not a path on the origin")

// relayedHeaders are copied from upstream responses.
var relayedHeaders = []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified", "Content-Language"}

// OriginFetcher fetches assets over HTTP from a base URL.
type OriginFetcher struct {
	base   *url.URL
	client *http.Client
}

// NewOriginFetcher creates a fetcher for base. A nil client uses a client
// with a 30 second timeout.
func NewOriginFetcher(base string, client *http.Client) (*OriginFetcher, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing origin %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("origin %q must use http or https", base)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OriginFetcher{base: u, client: client}, nil
}

// Fetch performs a GET for uri resolved against the origin.
func (o *OriginFetcher) Fetch(ctx context.Context, uri string) (*Response, error) {
	ref, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", uri, err)
	}
	if ref.Scheme != "" || ref.Host != "" || ref.User != nil {
		return nil, fmt.Errorf("%q: %w", uri, ErrNotOriginPath)
	}
	target := o.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%s exceeds %d bytes", target, maxBodySize)
	}

	header := make(http.Header)
	for _, h := range relayedHeaders {
		if v := resp.Header.Get(h); v != "" {
			header.Set(h, v)
		}
	}
	return &Response{Status: resp.StatusCode, Header: header, Body: body}, nil
}

// FSFetcher reads assets from a filesystem. "/" and directory paths map to
// their index.html.
type FSFetcher struct {
	fsys fs.FS
}

// NewFSFetcher creates a fetcher over fsys.
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{fsys: fsys}
}

// Fetch reads the file for uri. A missing file yields a 404 response, not an error.
func (f *FSFetcher) Fetch(ctx context.Context, uri string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := uri
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" || strings.HasSuffix(p, "/") {
		name = path.Join(name, "index.html")
	}

	body, err := fs.ReadFile(f.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return &Response{
			Status: http.StatusNotFound,
			Header: http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
			Body:   []byte("404 page not found\n"),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	header := make(http.Header)
	header.Set("Content-Type", mimeFromExt(strings.ToLower(path.Ext(name))))
	return &Response{Status: http.StatusOK, Header: header, Body: body}, nil
}

// mimeFromExt returns the MIME type for a file extension.
// Falls back to the Go standard library's MIME type database,
// then to "application/octet-stream" if unknown.
func mimeFromExt(ext string) string {
	switch ext {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js", ".mjs":
		return "application/javascript"
	case ".css":
		return "text/css; charset=utf-8"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	case ".webmanifest":
		return "application/manifest+json"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}
