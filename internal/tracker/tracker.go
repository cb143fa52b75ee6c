// ABOUTME: Tracker state store syncing live fields with the persisted snapshot
// ABOUTME: Implements Load, Save, Change, AddBook, AddPerson, Import and Export

package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/lifeos/internal/snapshot"
	"github.com/2389/lifeos/internal/store"
)

// Recorder receives save and completion observations, e.g. for metrics.
type Recorder interface {
	ObserveSave(ok bool, bytes int)
	ObserveAppend(section string, accepted bool)
	SetCompletion(section string, percent int)
}

// Config configures a Tracker.
type Config struct {
	Store store.Store

	// Key is the storage key; defaults to snapshot.StorageKey.
	Key string

	Logger   *slog.Logger
	Recorder Recorder

	// Clock and NewID are replaceable for tests.
	Clock func() time.Time
	NewID func() string
}

// SaveResult reports the outcome of a save.
type SaveResult struct {
	// SavedAt is the last successful save time; unchanged when Err is set.
	SavedAt    time.Time
	Completion Completion
	Err        error
}

// Status is a point-in-time view of the tracker.
type Status struct {
	Loaded     bool       `json:"loaded"`
	LastSaved  *time.Time `json:"lastSaved,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
	Completion Completion `json:"completion"`
	Gauges     []Gauge    `json:"gauges"`
}

// Tracker owns the live fields and their persisted snapshot.
// All methods are safe for concurrent use; operations are serialised.
type Tracker struct {
	mu        sync.Mutex
	store     store.Store
	key       string
	fields    *Fields
	logger    *slog.Logger
	recorder  Recorder
	now       func() time.Time
	newID     func() string
	loaded    bool
	lastSaved time.Time
	lastErr   error
}

// New creates a Tracker with default fields. Call Load to restore state.
func New(cfg Config) *Tracker {
	t := &Tracker{
		store:    cfg.Store,
		key:      cfg.Key,
		fields:   NewFields(),
		logger:   cfg.Logger,
		recorder: cfg.Recorder,
		now:      cfg.Clock,
		newID:    cfg.NewID,
	}
	if t.key == "" {
		t.key = snapshot.StorageKey
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With("component", "tracker")
	if t.now == nil {
		t.now = time.Now
	}
	if t.newID == nil {
		t.newID = uuid.NewString
	}
	return t
}

// Key returns the storage key the snapshot is persisted under.
func (t *Tracker) Key() string {
	return t.key
}

// Load restores fields from the stored snapshot. A missing snapshot leaves
// the defaults in place. A malformed one fails the whole load and leaves the
// fields untouched.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := t.store.Get(ctx, t.key)
	if errors.Is(err, store.ErrNotFound) {
		t.logger.Debug("no stored snapshot, using defaults", "key", t.key)
		t.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	snap, err := snapshot.Decode(data)
	if err != nil {
		return fmt.Errorf("loading snapshot %q: %w", t.key, err)
	}

	t.fields.apply(snap)
	t.loaded = true
	t.logger.Info("snapshot loaded",
		"key", t.key,
		"size", len(data),
		"books", len(snap.Reading),
		"people", len(snap.People),
	)
	return nil
}

// Save overwrites the stored snapshot with the current fields and
// recomputes completion.
func (t *Tracker) Save(ctx context.Context) SaveResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked(ctx)
}

func (t *Tracker) saveLocked(ctx context.Context) SaveResult {
	data, err := snapshot.Encode(t.fields.snapshot())
	if err == nil {
		err = t.store.Set(ctx, t.key, data)
	}

	if err != nil {
		t.lastErr = err
		t.logger.Warn("saving snapshot failed, keeping in-memory state", "key", t.key, "error", err)
	} else {
		t.lastErr = nil
		t.lastSaved = t.now()
		t.logger.Debug("snapshot saved", "key", t.key, "size", len(data))
	}

	completion := t.fields.Completion()
	if t.recorder != nil {
		t.recorder.ObserveSave(err == nil, len(data))
		for _, g := range completion.Gauges() {
			t.recorder.SetCompletion(string(g.Section), g.Percent)
		}
	}

	return SaveResult{
		SavedAt:    t.lastSaved,
		Completion: completion,
		Err:        err,
	}
}

// Change applies fn to the live fields and saves.
func (t *Tracker) Change(ctx context.Context, fn func(*Fields)) SaveResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	fn(t.fields)
	return t.saveLocked(ctx)
}

// AddBook fills the book form with form and appends it to the reading log.
// An empty title rejects the entry: nothing is appended or saved and the
// form keeps its values. On success the title, takeaways and insights are
// cleared; the theme is kept.
func (t *Tracker) AddBook(ctx context.Context, form BookForm) (snapshot.Book, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.fields.BookForm = form
	book := snapshot.Book{
		Title:     form.Title,
		Theme:     form.Theme,
		Takeaways: form.Takeaways,
		Insights:  form.Insights,
	}
	if err := book.Validate(); err != nil {
		t.logger.Debug("book rejected", "error", err)
		t.observeAppend("reading", false)
		return snapshot.Book{}, false
	}

	book.ID = t.newID()
	book.DateAdded = t.now().UTC()
	t.fields.Reading = append(t.fields.Reading, book)
	t.saveLocked(ctx)

	t.fields.BookForm.Title = ""
	t.fields.BookForm.Takeaways = ""
	t.fields.BookForm.Insights = ""
	t.observeAppend("reading", true)
	return book, true
}

// AddPerson fills the contact form with form and appends it to the people
// tracker. An empty name rejects the entry like AddBook. On success every
// form field is cleared.
func (t *Tracker) AddPerson(ctx context.Context, form ContactForm) (snapshot.Contact, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.fields.ContactForm = form
	contact := snapshot.Contact{
		Name:         form.Name,
		Role:         form.Role,
		LastContact:  form.LastContact,
		Notes:        form.Notes,
		FollowUpDate: form.FollowUpDate,
	}
	if err := contact.Validate(); err != nil {
		t.logger.Debug("contact rejected", "error", err)
		t.observeAppend("people", false)
		return snapshot.Contact{}, false
	}

	contact.ID = t.newID()
	contact.DateAdded = t.now().UTC()
	t.fields.People = append(t.fields.People, contact)
	t.saveLocked(ctx)

	t.fields.ContactForm = ContactForm{}
	t.observeAppend("people", true)
	return contact, true
}

func (t *Tracker) observeAppend(section string, accepted bool) {
	if t.recorder != nil {
		t.recorder.ObserveAppend(section, accepted)
	}
}

// Import replaces the live fields with a document from outside the store
// and saves it. The document must satisfy the snapshot JSON Schema.
func (t *Tracker) Import(ctx context.Context, data []byte) (SaveResult, error) {
	if err := snapshot.Validate(data); err != nil {
		return SaveResult{}, err
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return SaveResult{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fields := NewFields()
	fields.apply(snap)
	t.fields = fields
	t.loaded = true

	res := t.saveLocked(ctx)
	t.logger.Info("snapshot imported", "books", len(snap.Reading), "people", len(snap.People))
	return res, nil
}

// Stored reports the size and last write time of the persisted snapshot.
// Returns store.ErrNotFound when nothing has been saved yet.
func (t *Tracker) Stored(ctx context.Context) (*store.Entry, error) {
	entry, err := t.store.Stat(ctx, t.key)
	if err != nil {
		return nil, fmt.Errorf("stat snapshot %q: %w", t.key, err)
	}
	return entry, nil
}

// Export returns the snapshot Save would write.
func (t *Tracker) Export() *snapshot.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fields.snapshot()
}

// Fields returns a copy of the live fields.
func (t *Tracker) Fields() *Fields {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fields.Clone()
}

// Completion computes the gauges from the live fields.
func (t *Tracker) Completion() Completion {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fields.Completion()
}

// Status reports load state, last save and current completion.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.fields.Completion()
	st := Status{
		Loaded:     t.loaded,
		Completion: c,
		Gauges:     c.Gauges(),
	}
	if !t.lastSaved.IsZero() {
		saved := t.lastSaved
		st.LastSaved = &saved
	}
	if t.lastErr != nil {
		st.LastError = t.lastErr.Error()
	}
	return st
}
