// Package offline is the static content cache.
//
// # Overview
//
// A Storage holds named caches. Installing a cache fetches a fixed list of
// asset paths and stores them all at once: if any fetch fails, nothing is
// stored. Afterwards the Handler serves requests cache-first and falls back
// to a live fetch on a miss. A live fetch is relayed but never cached, and
// installed entries are never refreshed, expired or evicted.
//
// Changing the asset list therefore requires a new cache name, otherwise
// stale entries keep being served:
//
//	cache:
//	  name: "life-os-v2"
//	  assets: ["/", "/index.html", "/styles.css", "/app.js"]
//
// # Fetchers
//
//   - OriginFetcher: GET against an upstream base URL
//   - FSFetcher: reads from an fs.FS, e.g. os.DirFS("./web")
package offline
