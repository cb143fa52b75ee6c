// ABOUTME: Tests for the static blueprint tables
// ABOUTME: Covers slug derivation, weekday keys and lookups

package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Reset goals for next month", "reset-goals-for-next-month"},
		{"Reflect on past month wins & lessons", "reflect-on-past-month-wins-&-lessons"},
		{"Take 1 day for silence, nature, or art", "take-1-day-for-silence,-nature,-or-art"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestChecklist_HasFiveItems(t *testing.T) {
	assert.Len(t, Checklist, 5)
	for _, item := range Checklist {
		assert.Equal(t, Slug(item.Text), item.Slug)
		assert.True(t, IsChecklistSlug(item.Slug))
	}
}

func TestDayKeys(t *testing.T) {
	keys := DayKeys()
	assert.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}, keys)
	for _, k := range keys {
		assert.True(t, IsDay(k))
	}
	assert.False(t, IsDay("Monday"))
	assert.False(t, IsDay("funday"))
}

func TestFocusTagsAndPrompts(t *testing.T) {
	assert.Len(t, FocusTags, 5)
	assert.Len(t, Prompts, PromptSlots)
	assert.True(t, IsFocusTag("spirit"))
	assert.False(t, IsFocusTag("Spirit"))
}
