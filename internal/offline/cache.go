// ABOUTME: Named in-memory response caches with atomic all-or-nothing install
// ABOUTME: Entries are immutable once installed; there is no expiry or eviction

package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultName is the cache name used when none is configured.
const DefaultName = "life-os-v1"

// DefaultAssets is the asset list installed when none is configured.
var DefaultAssets = []string{
	"/",
	"/index.html",
	"/styles.css",
	"/app.js",
	"/icons/icon-192.png",
	"/icons/icon-512.png",
}

// ErrMiss is returned by Match when no response is stored for a path.
var ErrMiss = errors.New("cache miss")

// ErrBadStatus is returned by AddAll when an asset responds with a non-2xx status.
var ErrBadStatus = errors.New("bad response status")

// installConcurrency bounds parallel fetches during AddAll.
const installConcurrency = 4

// Response is a stored or fetched HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// ok reports whether the status is 2xx.
func (r *Response) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// Storage holds caches by name.
type Storage struct {
	mu     sync.Mutex
	caches map[string]*Cache
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{caches: make(map[string]*Cache)}
}

// Open returns the cache with the given name, creating it if needed.
func (s *Storage) Open(name string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caches[name]
	if !ok {
		c = &Cache{name: name, entries: make(map[string]*Response)}
		s.caches[name] = c
	}
	return c
}

// Cache maps request paths to stored responses.
type Cache struct {
	name    string
	mu      sync.RWMutex
	entries map[string]*Response
}

// Name returns the cache name.
func (c *Cache) Name() string {
	return c.name
}

// AddAll fetches every path and stores the responses. If any fetch fails or
// returns a non-2xx status, AddAll returns the error and stores nothing.
func (c *Cache) AddAll(ctx context.Context, f Fetcher, paths []string) error {
	fetched := make([]*Response, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(installConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			resp, err := f.Fetch(gctx, p)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", p, err)
			}
			if !resp.ok() {
				return fmt.Errorf("fetching %s: %w: %d", p, ErrBadStatus, resp.Status)
			}
			fetched[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("installing cache %s: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := make(map[string]*Response, len(c.entries)+len(paths))
	for k, v := range c.entries {
		next[k] = v
	}
	for i, p := range paths {
		next[p] = fetched[i]
	}
	c.entries = next
	return nil
}

// Match returns the stored response for path, or ErrMiss.
func (c *Cache) Match(path string) (*Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[path]
	if !ok {
		return nil, ErrMiss
	}
	return resp, nil
}

// Keys returns the stored paths in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
