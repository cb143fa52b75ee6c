// Package server runs the lifeos HTTP service.
//
// # Routes
//
//	GET  /health              liveness
//	GET  /health/ready        snapshot loaded and store reachable
//	GET  /api/snapshot        export
//	PUT  /api/snapshot        import (schema validated)
//	GET  /api/schema          JSON Schema for imports
//	GET  /api/completion      gauges, band colours, last save
//	GET  /api/blueprint       weekly schedule, checklist, focus tags, prompts
//	PUT  /api/daily           focus, tasks, anchor, win
//	PUT  /api/weekly/{day}    one weekday note
//	PUT  /api/monthly         checklist and prompts
//	POST /api/reading         add a book
//	POST /api/people          add a contact
//	GET  /report, /report.md  digest
//	GET  /metrics             Prometheus, when enabled
//	/                         cache-first static assets
//
// Every write saves the whole snapshot. A failed save is reported in the
// response body ("saved": false) while the change stays in memory.
//
// /api and /report require a bearer token when auth.jwt_secret is set.
//
// # Lifecycle
//
// Run loads the snapshot, then serves HTTP and installs the asset cache
// concurrently. Canceling the context shuts the server down within
// server.shutdown_timeout.
package server
