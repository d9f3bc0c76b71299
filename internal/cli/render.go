package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/service"
)

// Colors used by the terminal views.
var (
	colorCyan    = lipgloss.Color("#00FFFF")
	colorYellow  = lipgloss.Color("#FFFF00")
	colorMagenta = lipgloss.Color("#FF00FF")
	colorGreen   = lipgloss.Color("#00FF00")
	colorGray    = lipgloss.Color("#666666")
	colorDimGray = lipgloss.Color("#444444")
)

// styles are bound to the renderer of one output so color detection follows that writer.
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	divider lipgloss.Style
	active  lipgloss.Style
	card    lipgloss.Style
	kinds   map[domain.Kind]lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(colorCyan),
		label:   r.NewStyle().Foreground(colorGray),
		value:   r.NewStyle().Bold(true),
		dim:     r.NewStyle().Foreground(colorGray),
		divider: r.NewStyle().Foreground(colorDimGray),
		active:  r.NewStyle().Bold(true).Foreground(colorGreen),
		card:    r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDimGray).Padding(0, 1),
		kinds: map[domain.Kind]lipgloss.Style{
			domain.KindSleep:   r.NewStyle().Foreground(colorMagenta),
			domain.KindFeeding: r.NewStyle().Foreground(colorYellow),
			domain.KindDiaper:  r.NewStyle().Foreground(colorCyan),
		},
	}
}

func (s styles) kind(k domain.Kind) string {
	style, ok := s.kinds[k]
	if !ok {
		style = s.dim
	}
	return style.Render(fmt.Sprintf("%-7s", k))
}

func (s styles) stat(label, value string) string {
	return s.card.Render(s.label.Render(label) + "\n" + s.value.Render(value))
}

// renderDay prints the heading, the four summary cards and the entry list of a day view.
func renderDay(w io.Writer, view *service.DayView, loc *time.Location) {
	s := newStyles(w)
	heading := view.Label
	if !view.IsToday {
		heading = fmt.Sprintf("%s  %s", view.Label, s.dim.Render(view.Day.Format(aggregate.DateLayout)))
	}
	fmt.Fprintln(w, s.title.Render(heading))

	sum := view.Summary
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		s.stat("Sleep", fmt.Sprintf("%s (%d)", aggregate.FormatDuration(sum.TotalSleepMs), sum.SleepCount)),
		s.stat("Feedings", fmt.Sprintf("%d · %s oz", sum.FeedingCount, formatOz(sum.BottleTotalOz))),
		s.stat("Diapers", fmt.Sprintf("%d (%d wet, %d dirty)", sum.DiaperCount, sum.WetDiaperCount, sum.DirtyDiaperCount)),
	))

	if view.Filter != aggregate.CategoryAll {
		fmt.Fprintln(w, s.dim.Render("showing "+string(view.Filter)))
	}
	if len(view.Entries) == 0 {
		fmt.Fprintln(w, s.dim.Render("No activities logged"))
	}
	for _, r := range view.Entries {
		fmt.Fprintln(w, entryLine(s, r, loc, true))
	}

	nav := "← " + view.Previous.Format(aggregate.DateLayout)
	if view.Next != nil {
		nav += "   " + view.Next.Format(aggregate.DateLayout) + " →"
	}
	fmt.Fprintln(w, s.divider.Render(nav))
}

func entryLine(s styles, r domain.Record, loc *time.Location, shortID bool) string {
	id := r.ID
	if shortID && len(id) > 8 {
		id = id[:8]
	}
	parts := []string{
		s.dim.Render(r.OccurredAt.In(loc).Format("3:04 PM")),
		s.kind(r.Kind),
		describe(r),
	}
	if r.Notes != "" {
		parts = append(parts, s.dim.Render("“"+r.Notes+"”"))
	}
	if r.RecordedByName != "" {
		parts = append(parts, s.dim.Render("by "+r.RecordedByName))
	}
	parts = append(parts, s.divider.Render(id))
	return strings.Join(parts, "  ")
}

// describe is the one line detail of a record, e.g. "1h 30m", "bottle 4 oz" or "wet".
func describe(r domain.Record) string {
	switch {
	case r.Kind == domain.KindSleep && r.Sleep != nil && r.Sleep.DurationMs != nil:
		return aggregate.FormatDuration(*r.Sleep.DurationMs)
	case r.Kind == domain.KindSleep:
		return "in progress"
	case r.Kind == domain.KindFeeding && r.Feeding != nil:
		f := r.Feeding
		switch {
		case f.Method == domain.FeedingBottle && f.AmountOz != nil:
			return fmt.Sprintf("bottle %s oz", formatOz(*f.AmountOz))
		case f.Method == domain.FeedingBreast && f.Side != "":
			return fmt.Sprintf("breast (%s)", f.Side)
		}
		return string(f.Method)
	case r.Kind == domain.KindDiaper && r.Diaper != nil:
		return string(r.Diaper.Kind)
	}
	return ""
}

func formatOz(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func renderStatus(w io.Writer, name string, status *service.Status) {
	s := newStyles(w)
	fmt.Fprintln(w, s.title.Render(name))
	if status.ActiveSleep != nil {
		fmt.Fprintln(w, s.active.Render("Sleeping for "+status.SleepingFor))
	}
	for _, c := range []aggregate.Category{aggregate.CategorySleep, aggregate.CategoryFeeding, aggregate.CategoryDiaper} {
		last := "never"
		if entry, ok := status.Latest[c]; ok {
			last = entry.Ago
			if detail := describe(entry.Record); detail != "" {
				last += s.dim.Render("  " + detail)
			}
		}
		fmt.Fprintf(w, "%s %s\n", s.kind(domain.Kind(c)), "Last: "+last)
	}
}

func renderRange(w io.Writer, summaries []aggregate.DailySummary) {
	s := newStyles(w)
	fmt.Fprintln(w, s.label.Render(fmt.Sprintf("%-10s  %-8s  %-6s  %-8s  %-7s", "date", "sleep", "feeds", "bottle", "diapers")))
	for _, sum := range summaries {
		fmt.Fprintf(w, "%-10s  %-8s  %-6d  %-8s  %-7d\n",
			sum.Date.Format(aggregate.DateLayout),
			aggregate.FormatDuration(sum.TotalSleepMs),
			sum.FeedingCount,
			formatOz(sum.BottleTotalOz)+" oz",
			sum.DiaperCount,
		)
	}
}
