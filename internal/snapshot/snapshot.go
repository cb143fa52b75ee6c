// ABOUTME: Snapshot document types and JSON codec with version migration
// ABOUTME: Sections are optional so absent and empty can be told apart

package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// StorageKey is the single slot the snapshot is persisted under.
const StorageKey = "lifeOSData"

// CurrentVersion is the version written by Encode.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned when a document is newer than this build understands.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

var validate = validator.New()

// Snapshot is the whole persisted document.
type Snapshot struct {
	Version int               `json:"version"`
	Daily   *Daily            `json:"daily,omitempty"`
	Weekly  map[string]string `json:"weekly,omitempty"`
	Monthly *Monthly          `json:"monthly,omitempty"`
	Reading []Book            `json:"reading,omitempty"`
	People  []Contact         `json:"people,omitempty"`
}

// Daily holds the day's focus, tasks and reflections.
type Daily struct {
	FocusAreas      []string `json:"focusAreas"`
	Tasks           []string `json:"tasks"`
	SpiritualAnchor string   `json:"spiritualAnchor"`
	Win             string   `json:"win"`
}

// Monthly holds checked checklist slugs and prompt responses.
type Monthly struct {
	Checklist []string `json:"checklist"`
	Prompts   []string `json:"prompts"`
}

// Book is one reading log entry.
type Book struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title" validate:"required"`
	Theme     string    `json:"theme"`
	Takeaways string    `json:"takeaways"`
	Insights  string    `json:"insights"`
	DateAdded time.Time `json:"dateAdded"`
}

// Validate checks required fields. A title is required to be non-empty;
// a whitespace-only title is accepted.
func (b *Book) Validate() error {
	return validate.Struct(b)
}

// Contact is one people-tracker entry.
type Contact struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name" validate:"required"`
	Role         string    `json:"role"`
	LastContact  string    `json:"lastContact"`
	Notes        string    `json:"notes"`
	FollowUpDate string    `json:"followUpDate,omitempty"`
	DateAdded    time.Time `json:"dateAdded"`
}

// Validate checks required fields with the same emptiness rule as Book.
func (c *Contact) Validate() error {
	return validate.Struct(c)
}

// DecodeError wraps a JSON parse failure of a stored document.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding snapshot: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode marshals s, stamping it with CurrentVersion.
func Encode(s *Snapshot) ([]byte, error) {
	out := *s
	out.Version = CurrentVersion
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a stored document and migrates it to CurrentVersion.
// Malformed JSON fails the whole decode; nothing is partially recovered.
func Decode(data []byte) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if raw == nil {
		// "null" is valid JSON but carries no sections
		raw = map[string]json.RawMessage{}
	}

	version, err := rawVersion(raw)
	if err != nil {
		return nil, err
	}
	if version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, version, CurrentVersion)
	}

	if err := migrate(raw, version); err != nil {
		return nil, err
	}

	migrated, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encoding migrated snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(migrated, &s); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &s, nil
}

func rawVersion(raw map[string]json.RawMessage) (int, error) {
	v, ok := raw["version"]
	if !ok {
		return 0, nil
	}
	var version int
	if err := json.Unmarshal(v, &version); err != nil {
		return 0, &DecodeError{Err: fmt.Errorf("version: %w", err)}
	}
	if version < 0 {
		return 0, &DecodeError{Err: fmt.Errorf("negative version %d", version)}
	}
	return version, nil
}
