// Package snapshot defines the persisted Life OS document.
//
// # Overview
//
// All user data is stored as one JSON value under one storage key. The
// document is keyed by section:
//
//	{
//	  "version": 1,
//	  "daily":   {"focusAreas": [...], "tasks": ["", "", ""], "spiritualAnchor": "", "win": ""},
//	  "weekly":  {"monday": "...", ...},
//	  "monthly": {"checklist": ["reset-goals-for-next-month"], "prompts": ["", "", "", ""]},
//	  "reading": [{"title": "...", "dateAdded": "2025-01-02T15:04:05Z", ...}],
//	  "people":  [{"name": "...", "dateAdded": "2025-01-02T15:04:05Z", ...}]
//	}
//
// Sections are optional. Decode leaves an absent section nil so callers can
// tell "not present" from "present but empty".
//
// # Versions
//
// Documents written before versioning carry no "version" field and are
// treated as version 0. Decode migrates older documents up to
// CurrentVersion; newer versions are rejected with ErrUnsupportedVersion.
//
// # Validation
//
// Decode is tolerant: it only requires well-formed JSON of the right shape.
// Validate checks a document against the embedded JSON Schema and is used
// for imports, where the document comes from outside the store.
package snapshot
