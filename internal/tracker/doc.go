// Package tracker is the Life OS state store.
//
// # Overview
//
// A Tracker owns the live field state (Fields) and keeps it in sync with a
// single persisted snapshot:
//
//   - Load reads the snapshot once and copies present, non-empty values into
//     the live fields. Empty or missing values never clear a field.
//   - Save rebuilds a complete snapshot from the live fields and overwrites
//     the stored one. There is no merge with what was stored before.
//   - Change applies a mutation to the live fields and saves, standing in
//     for an input change event.
//   - AddBook and AddPerson append to the reading log and people tracker.
//     An entry whose title or name is the empty string is silently
//     rejected; whitespace-only values are accepted.
//
// # Completion
//
// Four read-only gauges are derived from the live fields after every save:
//
//	daily     = round(100 * (tasks + focus + anchor + win) / 10)
//	weekly    = round(100 * notes / 7)
//	monthly   = round(100 * (checked + prompts) / 9)
//	spiritual = 100 if the spiritual anchor is set, else 0
//
// Gauges use trimmed emptiness, unlike the append checks above.
//
// # Failures
//
// A failed storage write is logged and reported in SaveResult.Err. The live
// fields are kept and the last-saved time is not advanced.
package tracker
