// ABOUTME: Markdown digest of a snapshot with its completion gauges
// ABOUTME: Rendered to HTML with goldmark and the GFM table extension

package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/lifeos/internal/blueprint"
	"github.com/2389/lifeos/internal/snapshot"
	"github.com/2389/lifeos/internal/tracker"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown builds the digest for s. now selects the weekday highlighted in
// the schedule and is printed in the header.
func Markdown(s *snapshot.Snapshot, c tracker.Completion, now time.Time) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Life OS digest\n\n_Generated %s_\n\n", now.Format("Monday, 2 January 2006 15:04"))

	b.WriteString("## Completion\n\n| Section | Percent |\n|---|---:|\n")
	for _, g := range c.Gauges() {
		fmt.Fprintf(&b, "| %s | %d%% |\n", g.Section, g.Percent)
	}
	b.WriteString("\n")

	writeDaily(&b, s.Daily)
	writeWeek(&b, s.Weekly, now.Weekday())
	writeMonthly(&b, s.Monthly)
	writeReading(&b, s.Reading)
	writePeople(&b, s.People)

	return b.Bytes()
}

func writeDaily(b *bytes.Buffer, d *snapshot.Daily) {
	b.WriteString("## Today\n\n")
	if d == nil {
		b.WriteString("Nothing recorded yet.\n\n")
		return
	}
	if len(d.FocusAreas) > 0 {
		fmt.Fprintf(b, "**Focus:** %s\n\n", strings.Join(d.FocusAreas, ", "))
	}
	for i := 0; i < blueprint.TaskSlots; i++ {
		task := ""
		if i < len(d.Tasks) {
			task = d.Tasks[i]
		}
		mark := " "
		if strings.TrimSpace(task) == "" {
			task = "_empty_"
		} else {
			mark = "x"
		}
		fmt.Fprintf(b, "- [%s] %s\n", mark, inline(task))
	}
	b.WriteString("\n")
	if d.SpiritualAnchor != "" {
		fmt.Fprintf(b, "**Spiritual anchor:** %s\n\n", inline(d.SpiritualAnchor))
	}
	if d.Win != "" {
		fmt.Fprintf(b, "**Win:** %s\n\n", inline(d.Win))
	}
}

func writeWeek(b *bytes.Buffer, notes map[string]string, today time.Weekday) {
	b.WriteString("## Week\n\n| Day | Theme | Work | Spiritual | Notes |\n|---|---|---|---|---|\n")
	todayName := today.String()
	for _, d := range blueprint.Week {
		name := d.Name
		if name == todayName {
			name = "**" + name + "**"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			name, cell(d.Theme), cell(d.Work), cell(d.Spiritual), cell(notes[d.Key()]))
	}
	b.WriteString("\n")
}

func writeMonthly(b *bytes.Buffer, m *snapshot.Monthly) {
	b.WriteString("## Month\n\n")
	checked := make(map[string]bool)
	var prompts []string
	if m != nil {
		for _, slug := range m.Checklist {
			checked[slug] = true
		}
		prompts = m.Prompts
	}
	for _, item := range blueprint.Checklist {
		mark := " "
		if checked[item.Slug] {
			mark = "x"
		}
		fmt.Fprintf(b, "- [%s] %s\n", mark, item.Text)
	}
	b.WriteString("\n")
	for i, q := range blueprint.Prompts {
		answer := ""
		if i < len(prompts) {
			answer = prompts[i]
		}
		if strings.TrimSpace(answer) == "" {
			continue
		}
		fmt.Fprintf(b, "**%s**\n\n%s\n\n", q, quote(answer))
	}
}

func writeReading(b *bytes.Buffer, books []snapshot.Book) {
	fmt.Fprintf(b, "## Reading (%d)\n\n", len(books))
	if len(books) == 0 {
		return
	}
	b.WriteString("| Title | Theme | Takeaways | Added |\n|---|---|---|---|\n")
	for _, bk := range books {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			cell(bk.Title), cell(bk.Theme), cell(bk.Takeaways), date(bk.DateAdded))
	}
	b.WriteString("\n")
}

func writePeople(b *bytes.Buffer, people []snapshot.Contact) {
	fmt.Fprintf(b, "## People (%d)\n\n", len(people))
	if len(people) == 0 {
		return
	}
	b.WriteString("| Name | Role | Last contact | Follow up |\n|---|---|---|---|\n")
	for _, p := range people {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			cell(p.Name), cell(p.Role), cell(p.LastContact), cell(p.FollowUpDate))
	}
	b.WriteString("\n")
}

// HTML renders Markdown output to an HTML fragment.
func HTML(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; margin-bottom: 1rem; }
th, td { border: 1px solid #ddd; padding: 0.3rem 0.6rem; text-align: left; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Page renders Markdown output as a standalone HTML document.
func Page(title string, source []byte) ([]byte, error) {
	body, err := HTML(source)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return buf.Bytes(), nil
}

// cell flattens text for use inside a table cell.
func cell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
