// ABOUTME: Live field state of the tracker and its mapping to and from snapshots
// ABOUTME: Load semantics only ever fill fields; Save semantics copy every field

package tracker

import (
	"github.com/2389/lifeos/internal/blueprint"
	"github.com/2389/lifeos/internal/snapshot"
)

// BookForm is the reading log entry form.
type BookForm struct {
	Title     string `json:"title"`
	Theme     string `json:"theme"`
	Takeaways string `json:"takeaways"`
	Insights  string `json:"insights"`
}

// ContactForm is the people tracker entry form.
type ContactForm struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	LastContact  string `json:"lastContact"`
	Notes        string `json:"notes"`
	FollowUpDate string `json:"followUpDate"`
}

// Fields is the live, editable state. Maps are keyed by the blueprint keys
// and always contain every key; unknown keys are never added by Load.
type Fields struct {
	Focus           map[string]bool
	Tasks           [blueprint.TaskSlots]string
	SpiritualAnchor string
	Win             string
	WeeklyNotes     map[string]string
	Checklist       map[string]bool
	Prompts         [blueprint.PromptSlots]string
	Reading         []snapshot.Book
	People          []snapshot.Contact

	BookForm    BookForm
	ContactForm ContactForm
}

// NewFields returns fields at their compiled-in defaults: empty and unchecked.
func NewFields() *Fields {
	f := &Fields{
		Focus:       make(map[string]bool, len(blueprint.FocusTags)),
		WeeklyNotes: make(map[string]string, len(blueprint.Week)),
		Checklist:   make(map[string]bool, len(blueprint.Checklist)),
	}
	for _, tag := range blueprint.FocusTags {
		f.Focus[tag] = false
	}
	for _, key := range blueprint.DayKeys() {
		f.WeeklyNotes[key] = ""
	}
	for _, item := range blueprint.Checklist {
		f.Checklist[item.Slug] = false
	}
	return f
}

// Clone returns a deep copy.
func (f *Fields) Clone() *Fields {
	out := *f
	out.Focus = make(map[string]bool, len(f.Focus))
	for k, v := range f.Focus {
		out.Focus[k] = v
	}
	out.WeeklyNotes = make(map[string]string, len(f.WeeklyNotes))
	for k, v := range f.WeeklyNotes {
		out.WeeklyNotes[k] = v
	}
	out.Checklist = make(map[string]bool, len(f.Checklist))
	for k, v := range f.Checklist {
		out.Checklist[k] = v
	}
	out.Reading = append([]snapshot.Book(nil), f.Reading...)
	out.People = append([]snapshot.Contact(nil), f.People...)
	return &out
}

// SetFocus marks a known focus tag. Unknown tags are ignored.
func (f *Fields) SetFocus(tag string, active bool) {
	if _, ok := f.Focus[tag]; ok {
		f.Focus[tag] = active
	}
}

// SetChecked marks a known checklist slug. Unknown slugs are ignored.
func (f *Fields) SetChecked(slug string, checked bool) {
	if _, ok := f.Checklist[slug]; ok {
		f.Checklist[slug] = checked
	}
}

// SetNote sets the note for a known weekday key. Unknown days are ignored.
func (f *Fields) SetNote(day, note string) {
	if _, ok := f.WeeklyNotes[day]; ok {
		f.WeeklyNotes[day] = note
	}
}

// apply copies the present, non-empty parts of s into f.
func (f *Fields) apply(s *snapshot.Snapshot) {
	if d := s.Daily; d != nil {
		for _, tag := range d.FocusAreas {
			if _, ok := f.Focus[tag]; ok {
				f.Focus[tag] = true
			}
		}
		for i := 0; i < len(f.Tasks) && i < len(d.Tasks); i++ {
			if d.Tasks[i] != "" {
				f.Tasks[i] = d.Tasks[i]
			}
		}
		if d.SpiritualAnchor != "" {
			f.SpiritualAnchor = d.SpiritualAnchor
		}
		if d.Win != "" {
			f.Win = d.Win
		}
	}

	if s.Weekly != nil {
		for _, key := range blueprint.DayKeys() {
			if note := s.Weekly[key]; note != "" {
				f.WeeklyNotes[key] = note
			}
		}
	}

	if m := s.Monthly; m != nil {
		for _, slug := range m.Checklist {
			if _, ok := f.Checklist[slug]; ok {
				f.Checklist[slug] = true
			}
		}
		for i := 0; i < len(f.Prompts) && i < len(m.Prompts); i++ {
			if m.Prompts[i] != "" {
				f.Prompts[i] = m.Prompts[i]
			}
		}
	}

	f.Reading = append(f.Reading, s.Reading...)
	f.People = append(f.People, s.People...)
}

// snapshot builds a complete document from the current fields.
func (f *Fields) snapshot() *snapshot.Snapshot {
	focus := make([]string, 0, len(blueprint.FocusTags))
	for _, tag := range blueprint.FocusTags {
		if f.Focus[tag] {
			focus = append(focus, tag)
		}
	}

	weekly := make(map[string]string, len(blueprint.Week))
	for _, key := range blueprint.DayKeys() {
		weekly[key] = f.WeeklyNotes[key]
	}

	checked := make([]string, 0, len(blueprint.Checklist))
	for _, item := range blueprint.Checklist {
		if f.Checklist[item.Slug] {
			checked = append(checked, item.Slug)
		}
	}

	return &snapshot.Snapshot{
		Version: snapshot.CurrentVersion,
		Daily: &snapshot.Daily{
			FocusAreas:      focus,
			Tasks:           append([]string(nil), f.Tasks[:]...),
			SpiritualAnchor: f.SpiritualAnchor,
			Win:             f.Win,
		},
		Weekly: weekly,
		Monthly: &snapshot.Monthly{
			Checklist: checked,
			Prompts:   append([]string(nil), f.Prompts[:]...),
		},
		Reading: append([]snapshot.Book(nil), f.Reading...),
		People:  append([]snapshot.Contact(nil), f.People...),
	}
}
