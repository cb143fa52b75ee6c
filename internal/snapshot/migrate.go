// ABOUTME: Stepwise migrations of raw snapshot documents between versions
// ABOUTME: Each step rewrites the raw JSON sections in place

package snapshot

import (
	"encoding/json"
	"fmt"
)

// migration upgrades a raw document from version N to N+1.
type migration func(raw map[string]json.RawMessage) error

// migrations is indexed by the version a step upgrades from.
var migrations = []migration{
	0: migrateV0,
}

func migrate(raw map[string]json.RawMessage, from int) error {
	for v := from; v < CurrentVersion; v++ {
		if err := migrations[v](raw); err != nil {
			return fmt.Errorf("migrating snapshot from version %d: %w", v, err)
		}
		raw["version"] = json.RawMessage(fmt.Sprintf("%d", v+1))
	}
	return nil
}

// migrateV0 upgrades unversioned documents. Their sections already have the
// version 1 shape except that "null" was written for sections the old
// client never filled; those are dropped so they decode as absent.
func migrateV0(raw map[string]json.RawMessage) error {
	for _, section := range []string{"daily", "weekly", "monthly", "reading", "people"} {
		if v, ok := raw[section]; ok && string(v) == "null" {
			delete(raw, section)
		}
	}
	return nil
}
