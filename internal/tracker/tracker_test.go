// ABOUTME: Tests for the tracker state store
// ABOUTME: Covers load/save round trips, fill-only loading, appends and failure handling

package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/lifeos/internal/blueprint"
	"github.com/2389/lifeos/internal/snapshot"
	"github.com/2389/lifeos/internal/store"
)

var fixedNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T, s store.Store) *Tracker {
	t.Helper()
	ids := 0
	return New(Config{
		Store: s,
		Clock: func() time.Time { return fixedNow },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	})
}

type recorderStub struct {
	saves      []bool
	appends    map[string][]bool
	completion map[string]int
}

func newRecorderStub() *recorderStub {
	return &recorderStub{appends: map[string][]bool{}, completion: map[string]int{}}
}

func (r *recorderStub) ObserveSave(ok bool, bytes int) { r.saves = append(r.saves, ok) }
func (r *recorderStub) ObserveAppend(section string, accepted bool) {
	r.appends[section] = append(r.appends[section], accepted)
}
func (r *recorderStub) SetCompletion(section string, percent int) { r.completion[section] = percent }

func TestLoad_NoStoredValueKeepsDefaults(t *testing.T) {
	tr := newTestTracker(t, store.NewMockStore())

	require.NoError(t, tr.Load(context.Background()))

	f := tr.Fields()
	assert.Equal(t, [3]string{}, f.Tasks)
	assert.Len(t, f.WeeklyNotes, 7)
	assert.True(t, tr.Status().Loaded)
	assert.Nil(t, tr.Status().LastSaved)
}

func TestLoad_MalformedFailsAndLeavesFields(t *testing.T) {
	s := store.NewMockStore()
	require.NoError(t, s.Set(context.Background(), snapshot.StorageKey, []byte(`{"daily": {"tasks": [`)))

	tr := newTestTracker(t, s)
	tr.Change(context.Background(), func(f *Fields) { f.Win = "kept" })

	// the change above overwrote the malformed value, so put it back
	require.NoError(t, s.Set(context.Background(), snapshot.StorageKey, []byte(`{"daily": {"tasks": [`)))

	err := tr.Load(context.Background())
	require.Error(t, err)
	var decErr *snapshot.DecodeError
	assert.True(t, errors.As(err, &decErr))
	assert.Equal(t, "kept", tr.Fields().Win)
}

func TestLoad_StoreErrorPropagates(t *testing.T) {
	tr := newTestTracker(t, failingGetStore{store.NewMockStore()})
	err := tr.Load(context.Background())
	assert.ErrorIs(t, err, errUnavailable)
	assert.False(t, tr.Status().Loaded)
}

var errUnavailable = errors.New("storage unavailable")

type failingGetStore struct{ *store.MockStore }

func (failingGetStore) Get(context.Context, string) ([]byte, error) { return nil, errUnavailable }

func TestRoundTrip(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	first := newTestTracker(t, s)
	first.Change(ctx, func(f *Fields) {
		f.SetFocus("mind", true)
		f.SetFocus("work", true)
		f.Tasks = [3]string{"Ship v1", "Review PR", "Run"}
		f.SpiritualAnchor = "Psalm 23"
		f.Win = "Shipped"
		f.WeeklyNotes["monday"] = "deep work block"
		f.WeeklyNotes["sunday"] = "plan week"
		f.SetChecked(blueprint.Checklist[1].Slug, true)
		f.Prompts = [4]string{"energy", "drain", "growth", "focus"}
	})
	_, ok := first.AddBook(ctx, BookForm{Title: "Deep Work", Theme: "focus", Takeaways: "t", Insights: "i"})
	require.True(t, ok)
	_, ok = first.AddPerson(ctx, ContactForm{Name: "Ada", Role: "mentor", LastContact: "May", Notes: "n", FollowUpDate: "2025-07-01"})
	require.True(t, ok)

	second := newTestTracker(t, s)
	require.NoError(t, second.Load(ctx))

	want := first.Fields()
	got := second.Fields()
	assert.Equal(t, want.Focus, got.Focus)
	assert.Equal(t, want.Tasks, got.Tasks)
	assert.Equal(t, want.SpiritualAnchor, got.SpiritualAnchor)
	assert.Equal(t, want.Win, got.Win)
	assert.Equal(t, want.WeeklyNotes, got.WeeklyNotes)
	assert.Equal(t, want.Checklist, got.Checklist)
	assert.Equal(t, want.Prompts, got.Prompts)
	require.Len(t, got.Reading, 1)
	assert.Equal(t, "Deep Work", got.Reading[0].Title)
	assert.True(t, fixedNow.Equal(got.Reading[0].DateAdded))
	require.Len(t, got.People, 1)
	assert.Equal(t, "2025-07-01", got.People[0].FollowUpDate)
}

func TestLoad_EmptyEntriesLeaveFieldsUntouched(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()

	tr := newTestTracker(t, s)
	tr.fields.Tasks[0] = "Ship v1"
	tr.fields.WeeklyNotes["friday"] = "keep me"
	tr.fields.Prompts[3] = "keep prompt"

	doc := `{"daily": {"tasks": ["", "B", "C"], "spiritualAnchor": "", "win": ""},
		"weekly": {"friday": "", "monday": "M"},
		"monthly": {"prompts": ["P0"]}}`
	require.NoError(t, s.Set(ctx, snapshot.StorageKey, []byte(doc)))

	require.NoError(t, tr.Load(ctx))

	f := tr.Fields()
	assert.Equal(t, [3]string{"Ship v1", "B", "C"}, f.Tasks)
	assert.Equal(t, "keep me", f.WeeklyNotes["friday"])
	assert.Equal(t, "M", f.WeeklyNotes["monday"])
	assert.Equal(t, [4]string{"P0", "", "", "keep prompt"}, f.Prompts)
}

func TestLoad_IgnoresUnknownKeys(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	doc := `{"daily": {"focusAreas": ["mind", "astrology"], "tasks": ["a", "b", "c", "d"]},
		"weekly": {"funday": "x"},
		"monthly": {"checklist": ["not-a-slug", "reset-goals-for-next-month"], "prompts": ["1", "2", "3", "4", "5"]}}`
	require.NoError(t, s.Set(ctx, snapshot.StorageKey, []byte(doc)))

	tr := newTestTracker(t, s)
	require.NoError(t, tr.Load(ctx))

	f := tr.Fields()
	assert.Len(t, f.Focus, 5)
	assert.True(t, f.Focus["mind"])
	_, present := f.Focus["astrology"]
	assert.False(t, present)
	assert.Equal(t, [3]string{"a", "b", "c"}, f.Tasks)
	_, present = f.WeeklyNotes["funday"]
	assert.False(t, present)
	assert.Len(t, f.Checklist, 5)
	assert.True(t, f.Checklist["reset-goals-for-next-month"])
	assert.Equal(t, [4]string{"1", "2", "3", "4"}, f.Prompts)
}

func TestLoad_AppendsListsToExisting(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	doc := `{"reading": [{"title": "A", "dateAdded": "2024-01-01T00:00:00Z"}, {"title": "B", "dateAdded": "2024-01-02T00:00:00Z"}],
		"people": [{"name": "Ada", "dateAdded": "2024-01-03T00:00:00Z"}]}`
	require.NoError(t, s.Set(ctx, snapshot.StorageKey, []byte(doc)))

	tr := newTestTracker(t, s)
	tr.fields.Reading = []snapshot.Book{{Title: "Existing"}}
	require.NoError(t, tr.Load(ctx))

	f := tr.Fields()
	require.Len(t, f.Reading, 3)
	assert.Equal(t, "Existing", f.Reading[0].Title)
	assert.Equal(t, "B", f.Reading[2].Title)
	require.Len(t, f.People, 1)
}

func TestSave_FullOverwrite(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, snapshot.StorageKey, []byte(`{"weekly": {"monday": "old"}}`)))

	// Not loaded: save writes the live (empty) state over the stored document.
	tr := newTestTracker(t, s)
	res := tr.Save(ctx)
	require.NoError(t, res.Err)
	assert.True(t, fixedNow.Equal(res.SavedAt))

	data, err := s.Get(ctx, snapshot.StorageKey)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.EqualValues(t, 1, doc["version"])
	weekly := doc["weekly"].(map[string]any)
	assert.Len(t, weekly, 7)
	assert.Equal(t, "", weekly["monday"])
	daily := doc["daily"].(map[string]any)
	assert.Len(t, daily["tasks"], 3)
	monthly := doc["monthly"].(map[string]any)
	assert.Len(t, monthly["prompts"], 4)
}

func TestSave_FailureKeepsStateAndReports(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	tr := newTestTracker(t, s)
	rec := newRecorderStub()
	tr.recorder = rec

	first := tr.Change(ctx, func(f *Fields) { f.Win = "first" })
	require.NoError(t, first.Err)

	s.FailWrites(store.ErrQuotaExceeded)
	tr.now = func() time.Time { return fixedNow.Add(time.Hour) }
	res := tr.Change(ctx, func(f *Fields) { f.SpiritualAnchor = "still here" })

	assert.ErrorIs(t, res.Err, store.ErrQuotaExceeded)
	assert.True(t, fixedNow.Equal(res.SavedAt), "last saved must not advance on failure")
	assert.Equal(t, 100, res.Completion.Spiritual, "completion still recomputed")
	assert.Equal(t, "still here", tr.Fields().SpiritualAnchor)

	st := tr.Status()
	assert.Contains(t, st.LastError, "quota")
	assert.Equal(t, []bool{true, false}, rec.saves)
	assert.Equal(t, 100, rec.completion["spiritual"])

	s.FailWrites(nil)
	assert.NoError(t, tr.Save(ctx).Err)
	assert.Empty(t, tr.Status().LastError)
}

func TestAddBook_EmptyTitleIsNoOp(t *testing.T) {
	s := store.NewMockStore()
	tr := newTestTracker(t, s)
	rec := newRecorderStub()
	tr.recorder = rec

	form := BookForm{Title: "", Theme: "theme", Takeaways: "x", Insights: "y"}
	_, ok := tr.AddBook(context.Background(), form)

	assert.False(t, ok)
	assert.Empty(t, tr.Fields().Reading)
	assert.Equal(t, 0, s.Calls(), "rejected book must not save")
	assert.Equal(t, form, tr.Fields().BookForm, "form must not be cleared")
	assert.Equal(t, []bool{false}, rec.appends["reading"])
}

func TestAddBook_WhitespaceTitleAccepted(t *testing.T) {
	s := store.NewMockStore()
	tr := newTestTracker(t, s)

	book, ok := tr.AddBook(context.Background(), BookForm{Title: "  ", Theme: "t"})

	assert.True(t, ok)
	assert.Equal(t, "  ", book.Title)
	assert.Len(t, tr.Fields().Reading, 1)
	assert.Equal(t, 1, s.Calls())
}

func TestAddBook_ClearsFormExceptTheme(t *testing.T) {
	s := store.NewMockStore()
	tr := newTestTracker(t, s)

	book, ok := tr.AddBook(context.Background(), BookForm{
		Title: "Meditations", Theme: "stoicism", Takeaways: "control", Insights: "calm",
	})
	require.True(t, ok)
	assert.Equal(t, "id-1", book.ID)
	assert.True(t, fixedNow.Equal(book.DateAdded))

	assert.Equal(t, BookForm{Theme: "stoicism"}, tr.Fields().BookForm)

	stored, err := s.Get(context.Background(), snapshot.StorageKey)
	require.NoError(t, err)
	snap, err := snapshot.Decode(stored)
	require.NoError(t, err)
	require.Len(t, snap.Reading, 1)
	assert.Equal(t, "Meditations", snap.Reading[0].Title)
	assert.Equal(t, "calm", snap.Reading[0].Insights)
}

func TestAddPerson(t *testing.T) {
	s := store.NewMockStore()
	tr := newTestTracker(t, s)
	ctx := context.Background()

	_, ok := tr.AddPerson(ctx, ContactForm{Role: "friend"})
	assert.False(t, ok)
	assert.Equal(t, 0, s.Calls())
	assert.Equal(t, ContactForm{Role: "friend"}, tr.Fields().ContactForm)

	c, ok := tr.AddPerson(ctx, ContactForm{Name: "Grace", Role: "peer", LastContact: "2025-05-30", Notes: "coffee", FollowUpDate: "2025-06-15"})
	require.True(t, ok)
	assert.Equal(t, "Grace", c.Name)
	assert.Equal(t, ContactForm{}, tr.Fields().ContactForm)
	assert.Len(t, tr.Fields().People, 1)
	assert.Equal(t, 1, s.Calls())
}

func TestImport(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	tr := newTestTracker(t, s)
	tr.Change(ctx, func(f *Fields) { f.Win = "replaced" })

	doc := `{"daily": {"tasks": ["x", "", ""], "focusAreas": ["body"]}, "reading": [{"title": "Imported", "dateAdded": "2024-01-01T00:00:00Z"}]}`
	res, err := tr.Import(ctx, []byte(doc))
	require.NoError(t, err)
	require.NoError(t, res.Err)

	f := tr.Fields()
	assert.Equal(t, "", f.Win, "import replaces instead of merging")
	assert.Equal(t, "x", f.Tasks[0])
	assert.True(t, f.Focus["body"])
	require.Len(t, f.Reading, 1)

	stored, err := s.Get(ctx, snapshot.StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(stored), "Imported")
}

func TestImport_RejectsInvalid(t *testing.T) {
	s := store.NewMockStore()
	tr := newTestTracker(t, s)

	_, err := tr.Import(context.Background(), []byte(`{"reading": [{"title": ""}]}`))
	var verr *snapshot.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 0, s.Calls())
}

func TestExport(t *testing.T) {
	tr := newTestTracker(t, store.NewMockStore())
	tr.Change(context.Background(), func(f *Fields) { f.Tasks[1] = "middle" })

	snap := tr.Export()
	assert.Equal(t, snapshot.CurrentVersion, snap.Version)
	assert.Equal(t, []string{"", "middle", ""}, snap.Daily.Tasks)
	assert.NotNil(t, snap.Daily.FocusAreas)
}

func TestChange_UnknownKeysDoNotCount(t *testing.T) {
	tr := newTestTracker(t, store.NewMockStore())
	ctx := context.Background()

	res := tr.Change(ctx, func(f *Fields) {
		for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
			f.WeeklyNotes[key] = "x"
			f.Focus[key] = true
			f.Checklist[key] = true
		}
		f.SetNote("monday", "gym")
		f.SetNote("someday", "ignored")
	})
	require.NoError(t, res.Err)

	assert.Equal(t, 14, res.Completion.Weekly)
	assert.Equal(t, 0, res.Completion.Daily)
	assert.Equal(t, 0, res.Completion.Monthly)

	snap := tr.Export()
	assert.Len(t, snap.Weekly, 7)
	assert.Equal(t, "gym", snap.Weekly["monday"])
	assert.Empty(t, snap.Daily.FocusAreas)
	assert.Empty(t, snap.Monthly.Checklist)
}

func TestSetNote_KnownDaysOnly(t *testing.T) {
	f := NewFields()

	f.SetNote("friday", "review")
	f.SetNote("Friday", "wrong case")
	f.SetNote("funday", "nope")

	assert.Equal(t, "review", f.WeeklyNotes["friday"])
	assert.Len(t, f.WeeklyNotes, len(blueprint.Week))
	_, ok := f.WeeklyNotes["funday"]
	assert.False(t, ok)
}

func TestImport_AcceptsNullSectionsLikeLoad(t *testing.T) {
	ctx := context.Background()
	doc := []byte(`{"daily": null, "weekly": {"monday": "run"}, "monthly": null, "reading": null, "people": null}`)

	loaded := store.NewMockStore()
	require.NoError(t, loaded.Set(ctx, snapshot.StorageKey, doc))
	require.NoError(t, newTestTracker(t, loaded).Load(ctx))

	tr := newTestTracker(t, store.NewMockStore())
	res, err := tr.Import(ctx, doc)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, "run", tr.Fields().WeeklyNotes["monday"])
}

func TestStored(t *testing.T) {
	s := store.NewMockStore()
	ctx := context.Background()
	tr := newTestTracker(t, s)

	_, err := tr.Stored(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, tr.Save(ctx).Err)
	data, err := s.Get(ctx, snapshot.StorageKey)
	require.NoError(t, err)

	entry, err := tr.Stored(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot.StorageKey, entry.Key)
	assert.Equal(t, len(data), entry.Size)
}
