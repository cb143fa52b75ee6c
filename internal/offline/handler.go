// ABOUTME: Cache-first HTTP handler with live network fallback
// ABOUTME: Misses are fetched and relayed but never written to the cache

package offline

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Cache   *Cache
	Fetcher Fetcher
	Logger  *slog.Logger

	// OnLookup, if set, is called with true for cache hits and false for misses.
	OnLookup func(hit bool)
}

// Handler serves GET and HEAD requests cache-first.
type Handler struct {
	cache    *Cache
	fetcher  Fetcher
	logger   *slog.Logger
	onLookup func(bool)
}

// NewHandler creates a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cache:    cfg.Cache,
		fetcher:  cfg.Fetcher,
		logger:   logger,
		onLookup: cfg.OnLookup,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := r.URL.RequestURI()
	if !strings.HasPrefix(key, "/") || strings.HasPrefix(key, "//") {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	if resp, err := h.cache.Match(key); err == nil {
		h.lookup(true)
		write(w, r, resp, "hit")
		return
	}
	h.lookup(false)

	if h.fetcher == nil {
		http.NotFound(w, r)
		return
	}

	resp, err := h.fetcher.Fetch(r.Context(), key)
	if err != nil {
		h.logger.Warn("network fetch failed", "path", key, "error", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	write(w, r, resp, "miss")
}

func (h *Handler) lookup(hit bool) {
	if h.onLookup != nil {
		h.onLookup(hit)
	}
}

func write(w http.ResponseWriter, r *http.Request, resp *Response, cacheStatus string) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Cache", cacheStatus)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}
