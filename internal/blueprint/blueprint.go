// ABOUTME: Static weekly schedule, monthly checklist, focus tags and prompts
// ABOUTME: Provides the fixed keys persisted snapshots refer to

package blueprint

import "strings"

// Day is one row of the weekly schedule.
type Day struct {
	Name      string `json:"day"`
	Theme     string `json:"theme"`
	Work      string `json:"work"`
	Spiritual string `json:"spiritual"`
}

// Key returns the identifier used for this day in persisted weekly notes.
func (d Day) Key() string {
	return strings.ToLower(d.Name)
}

// ChecklistItem is one monthly checklist prompt.
type ChecklistItem struct {
	Text string `json:"text"`
	Slug string `json:"slug"`
}

// Week is the fixed weekly schedule, Monday first.
var Week = []Day{
	{Name: "Monday", Theme: "Mission Execution", Work: "Deep work", Spiritual: "Morning intention + Psalm"},
	{Name: "Tuesday", Theme: "Build & Connect", Work: "Outreach & team", Spiritual: "Gratitude journaling"},
	{Name: "Wednesday", Theme: "Wisdom & Learning", Work: "Read + refine", Spiritual: "Reflective journaling"},
	{Name: "Thursday", Theme: "Prototype & Publish", Work: "Build/share", Spiritual: "Breathwork before creating"},
	{Name: "Friday", Theme: "Review & Reset", Work: "Audit & plan", Spiritual: "Prayer + forgiveness"},
	{Name: "Saturday", Theme: "Rest & Belonging", Work: "Social time, nature", Spiritual: "Self-reflection"},
	{Name: "Sunday", Theme: "Spirit + Strategy", Work: "Spiritual + strategic visioning", Spiritual: "Scripture study + plan week"},
}

var checklistText = []string{
	"Reflect on past month wins & lessons",
	"Reset goals for next month",
	"Review current alignment to purpose",
	"Add 1 new habit or ritual",
	"Take 1 day for silence, nature, or art",
}

// Checklist is the monthly checklist with slugs derived from the text.
var Checklist = buildChecklist(checklistText)

// FocusTags are the selectable daily focus areas.
var FocusTags = []string{"body", "mind", "spirit", "work", "relationships"}

// Prompts are the monthly reflection questions, answered positionally.
var Prompts = []string{
	"What gave you the most energy this month?",
	"What drained you, and what will you change?",
	"Where did you see growth in yourself or others?",
	"What is the one thing that matters most next month?",
}

// PromptSlots is the number of monthly prompt responses.
const PromptSlots = 4

// TaskSlots is the number of daily task slots.
const TaskSlots = 3

// Slug lowercases text and replaces every space with a hyphen.
// Other punctuation is kept as-is so existing slugs stay stable.
func Slug(text string) string {
	return strings.ReplaceAll(strings.ToLower(text), " ", "-")
}

func buildChecklist(texts []string) []ChecklistItem {
	items := make([]ChecklistItem, len(texts))
	for i, t := range texts {
		items[i] = ChecklistItem{Text: t, Slug: Slug(t)}
	}
	return items
}

// DayKeys returns the weekday identifiers in schedule order.
func DayKeys() []string {
	keys := make([]string, len(Week))
	for i, d := range Week {
		keys[i] = d.Key()
	}
	return keys
}

// IsDay reports whether key is one of the weekday identifiers.
func IsDay(key string) bool {
	for _, d := range Week {
		if d.Key() == key {
			return true
		}
	}
	return false
}

// IsFocusTag reports whether tag is a known focus tag.
func IsFocusTag(tag string) bool {
	for _, t := range FocusTags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsChecklistSlug reports whether slug names a checklist item.
func IsChecklistSlug(slug string) bool {
	for _, item := range Checklist {
		if item.Slug == slug {
			return true
		}
	}
	return false
}
