package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timesflying/internal/clock"
	"github.com/alexanderramin/timesflying/internal/domain"
)

const descriptionWidth = 40

// ProjectIndex maps project ids to projects.
func ProjectIndex(projects []*domain.Project) map[string]*domain.Project {
	idx := make(map[string]*domain.Project, len(projects))
	for _, p := range projects {
		idx[p.ID] = p
	}
	return idx
}

func projectLabel(id string, idx map[string]*domain.Project) string {
	if id == "" {
		return Dim("—")
	}
	if p, ok := idx[id]; ok {
		return Swatch(p.Color) + " " + p.Name
	}
	return Dim(TruncID(id))
}

// EntryRows builds table rows for entries. cursor marks one row; pass -1
// for none.
func EntryRows(entries []*domain.TimeEntry, idx map[string]*domain.Project, now time.Time, showSeconds bool, cursor int) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		marker := " "
		desc := Truncate(e.Description, descriptionWidth)
		if i == cursor {
			marker = StyleGreen.Render("▸")
			desc = StyleBold.Render(desc)
		}
		rows = append(rows, []string{
			marker + RunningIndicator(e.IsRunning()) + PinIndicator(e.IsPinned),
			TruncID(e.ID),
			desc,
			projectLabel(e.ProjectID, idx),
			Dim(HumanTimestampFrom(e.StartTime, now)),
			Elapsed(clock.Elapsed(e, now), e.IsRunning(), showSeconds),
		})
	}
	return rows
}

var entryHeaders = []string{"", "ID", "DESCRIPTION", "PROJECT", "STARTED", "TIME"}

// FormatEntryList renders entries as a table, or a hint when empty.
func FormatEntryList(entries []*domain.TimeEntry, projects []*domain.Project, now time.Time, showSeconds bool) string {
	if len(entries) == 0 {
		return Dim("No time entries.")
	}
	return EntryTable(entries, projects, now, showSeconds, -1)
}

// EntryTable renders entries with the row at cursor highlighted.
func EntryTable(entries []*domain.TimeEntry, projects []*domain.Project, now time.Time, showSeconds bool, cursor int) string {
	return Table{
		Headers:    entryHeaders,
		Rows:       EntryRows(entries, ProjectIndex(projects), now, showSeconds, cursor),
		RightAlign: map[int]bool{5: true},
	}.Render()
}

// FormatActive describes the running entry, or the idle state when nil.
func FormatActive(entry *domain.TimeEntry, projects []*domain.Project, now time.Time, showSeconds bool) string {
	if entry == nil {
		return Dim("Not tracking.")
	}
	var b strings.Builder
	b.WriteString(StyleGreen.Render("▶ ") + StyleBold.Render(entry.Description))
	if entry.Description == "" {
		b.WriteString(Dim("(no description)"))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s  %s",
		Elapsed(clock.Elapsed(entry, now), true, showSeconds),
		projectLabel(entry.ProjectID, ProjectIndex(projects)),
		Dim("since "+entry.StartTime.In(now.Location()).Format("15:04")),
	))
	return b.String()
}

// FormatStopped confirms a stop with the final duration.
func FormatStopped(entry *domain.TimeEntry, showSeconds bool) string {
	d := clock.FormatDuration(clock.Elapsed(entry, *entry.EndTime), showSeconds)
	return fmt.Sprintf("Stopped %s after %s", StyleBold.Render(entry.Description), StyleGreen.Render(d))
}

// FormatProjectList renders projects in insertion order.
func FormatProjectList(projects []*domain.Project) string {
	if len(projects) == 0 {
		return Dim("No projects.")
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{TruncID(p.ID), Swatch(p.Color) + " " + p.Name, Dim(p.Color)})
	}
	return RenderTable([]string{"ID", "NAME", "COLOR"}, rows)
}

// FormatDescriptions renders search results one per line.
func FormatDescriptions(descriptions []string) string {
	if len(descriptions) == 0 {
		return Dim("No matches.")
	}
	var b strings.Builder
	for _, d := range descriptions {
		if d == "" {
			d = Dim("(no description)")
		}
		b.WriteString("  " + d + "\n")
	}
	return b.String()
}
