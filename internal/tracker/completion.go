// ABOUTME: Completion gauges derived from live fields and their colour bands
// ABOUTME: Percentages are presentation-only and never persisted

package tracker

import (
	"math"
	"strings"

	"github.com/2389/lifeos/internal/blueprint"
)

// Section names a completion gauge.
type Section string

const (
	SectionDaily     Section = "daily"
	SectionWeekly    Section = "weekly"
	SectionMonthly   Section = "monthly"
	SectionSpiritual Section = "spiritual"
)

// Band colours.
const (
	ColorLow    = "#ffcdd2" // pale red, below 30%
	ColorMedium = "#fff9c4" // pale yellow, 30% to 69%
	ColorHigh   = "#c8e6c9" // pale green, 70% and above
)

var (
	dailyMax   = blueprint.TaskSlots + len(blueprint.FocusTags) + 2
	weeklyMax  = len(blueprint.Week)
	monthlyMax = len(blueprint.Checklist) + len(blueprint.Prompts)
)

// Completion holds the four gauge percentages.
type Completion struct {
	Daily     int `json:"daily"`
	Weekly    int `json:"weekly"`
	Monthly   int `json:"monthly"`
	Spiritual int `json:"spiritual"`
}

// Gauge is one displayed percentage with its band colour.
type Gauge struct {
	Section Section `json:"section"`
	Percent int     `json:"percent"`
	Color   string  `json:"color"`
}

// Gauges returns the four gauges in display order.
func (c Completion) Gauges() []Gauge {
	return []Gauge{
		{Section: SectionDaily, Percent: c.Daily, Color: Band(c.Daily)},
		{Section: SectionWeekly, Percent: c.Weekly, Color: Band(c.Weekly)},
		{Section: SectionMonthly, Percent: c.Monthly, Color: Band(c.Monthly)},
		{Section: SectionSpiritual, Percent: c.Spiritual, Color: Band(c.Spiritual)},
	}
}

// Band returns the display colour for a percentage.
// 30 and 70 are the inclusive lower bounds of the upper bands.
func Band(percent int) string {
	switch {
	case percent < 30:
		return ColorLow
	case percent < 70:
		return ColorMedium
	default:
		return ColorHigh
	}
}

// Completion computes the gauges from f.
func (f *Fields) Completion() Completion {
	tasks := 0
	for _, task := range f.Tasks {
		if filled(task) {
			tasks++
		}
	}

	focus := 0
	for _, tag := range blueprint.FocusTags {
		if f.Focus[tag] {
			focus++
		}
	}

	anchor := boolInt(filled(f.SpiritualAnchor))
	win := boolInt(filled(f.Win))

	notes := 0
	for _, day := range blueprint.DayKeys() {
		if filled(f.WeeklyNotes[day]) {
			notes++
		}
	}

	checked := 0
	for _, item := range blueprint.Checklist {
		if f.Checklist[item.Slug] {
			checked++
		}
	}
	prompts := 0
	for _, p := range f.Prompts {
		if filled(p) {
			prompts++
		}
	}

	return Completion{
		Daily:     percent(tasks+focus+anchor+win, dailyMax),
		Weekly:    percent(notes, weeklyMax),
		Monthly:   percent(checked+prompts, monthlyMax),
		Spiritual: anchor * 100,
	}
}

func filled(s string) bool {
	return strings.TrimSpace(s) != ""
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// percent rounds n/d*100 half away from zero, in that operation order.
func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}
