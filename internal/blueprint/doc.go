// Package blueprint holds the static tables that shape the tracker: the
// weekly schedule, the monthly checklist, the daily focus tags and the
// monthly reflection prompts.
//
// These tables are compiled in. Persisted data refers to them by key only
// (weekday identifiers, checklist slugs, focus tag names), so renaming an
// entry orphans whatever a user stored against the old key.
//
// # Keys
//
// Weekday keys are the lowercase day names:
//
//	monday, tuesday, ..., sunday
//
// Checklist slugs are derived once from the display text:
//
//	"Reset goals for next month" -> "reset-goals-for-next-month"
package blueprint
