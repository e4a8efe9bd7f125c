package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"socialsync/internal/bulk"
	"socialsync/internal/calendar"
	"socialsync/internal/model"
	"socialsync/internal/services"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.FgHiBlack).SprintFunc()
	today = color.New(color.FgHiBlue, color.Bold).SprintFunc()
)

func statusColor(s model.EventStatus) func(a ...interface{}) string {
	switch s {
	case model.StatusPublished:
		return color.New(color.FgGreen).SprintFunc()
	case model.StatusPending:
		return color.New(color.FgYellow).SprintFunc()
	case model.StatusFailed:
		return color.New(color.FgRed).SprintFunc()
	case model.StatusDraft:
		return faint
	default:
		return color.New(color.FgCyan).SprintFunc()
	}
}

func platformList(ps []model.Platform) string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return strings.Join(out, ",")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// printBoard renders a month as a 7-column grid with per-day counts followed
// by the agenda. Week and day boards print the agenda only.
func printBoard(w io.Writer, b calendar.Board[model.Occurrence], src services.DataSource, srcErr string) {
	title := b.Title
	if src != services.SourceLive {
		title += faint(" (" + string(src) + " data)")
	}
	fmt.Fprintln(w, bold(title))
	if srcErr != "" {
		fmt.Fprintln(w, color.New(color.FgRed).Sprint("backend unavailable: "+srcErr))
	}

	if len(b.Cells) > 0 {
		grid := uitable.New()
		grid.Separator = "  "
		grid.AddRow("Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat")
		for week := 0; week < len(b.Cells)/7; week++ {
			row := make([]interface{}, 7)
			for i, c := range b.Cells[week*7 : week*7+7] {
				label := fmt.Sprintf("%2d", c.Date.Day())
				if c.Total > 0 {
					label += fmt.Sprintf(" •%d", c.Total)
				}
				switch {
				case c.IsToday:
					label = today(label)
				case !c.InMonth:
					label = faint(label)
				}
				row[i] = label
			}
			grid.AddRow(row...)
		}
		fmt.Fprintln(w, grid)
		fmt.Fprintln(w)
	}

	agenda := uitable.New()
	agenda.Separator = "  "
	agenda.MaxColWidth = 60
	agenda.AddRow("DATE", "TIME", "STATUS", "PLATFORMS", "CAPTION")
	rows := 0
	add := func(o model.Occurrence) {
		agenda.AddRow(
			o.ScheduledDate.Format("Mon Jan 2"),
			o.ScheduledDate.Format("15:04"),
			statusColor(o.Status)(string(o.Status)),
			platformList(o.Platforms),
			clip(o.Caption, 48),
		)
		rows++
	}
	for _, c := range b.Cells {
		if !c.InMonth {
			continue
		}
		for _, o := range c.Events {
			add(o)
		}
		if c.More > 0 {
			agenda.AddRow(c.Date.Format("Mon Jan 2"), "", "", "", faint(fmt.Sprintf("+%d more", c.More)))
		}
	}
	for _, col := range b.Columns {
		for _, p := range col.Placements {
			add(p.Item)
		}
	}
	if rows == 0 {
		fmt.Fprintln(w, faint("No content scheduled."))
		return
	}
	fmt.Fprintln(w, agenda)
}

// printPlan lists a bulk plan's assignments and what did not fit.
func printPlan(w io.Writer, plan bulk.Plan) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow("DATE", "TIME", "PLATFORMS", "CAPTION")
	for _, a := range plan.Assignments {
		tbl.AddRow(a.At.Format("Mon Jan 2"), a.At.Format("15:04"), platformList(a.Platforms), clip(a.Item.Caption, 48))
	}
	fmt.Fprintln(w, tbl)
	fmt.Fprintf(w, "%s scheduled", bold(len(plan.Assignments)))
	if n := len(plan.Unassigned); n > 0 {
		fmt.Fprintf(w, ", %s did not fit the date range", color.New(color.FgYellow).Sprint(n))
	}
	if n := len(plan.Rejected); n > 0 {
		fmt.Fprintf(w, ", %s rejected", color.New(color.FgRed).Sprint(n))
	}
	fmt.Fprintln(w)
	for _, r := range plan.Rejected {
		fmt.Fprintf(w, "  %s: %s\n", clip(r.Item.Caption, 40), r.Reason)
	}
}
