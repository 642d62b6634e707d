// internal/console/render.go
package console

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"job-listings/internal/domain"

	"github.com/dustin/go-humanize"
)

const timestampLayout = "2006-01-02 15:04"

// renderList writes the loaded page as a table followed by the summary lines.
func renderList(w io.Writer, l *List, now time.Time, loc *time.Location) {
	snap := l.Snapshot()

	switch {
	case snap.Status == StatusLoading && snap.Data == nil:
		fmt.Fprintln(w, "Loading...")
		return
	case snap.Err != nil:
		fmt.Fprintf(w, "Error: %s\n", domain.MessageOf(snap.Err))
		if snap.Data == nil {
			return
		}
	case snap.Data == nil:
		fmt.Fprintln(w, "Nothing loaded yet.")
		return
	}

	if snap.Query != "" {
		fmt.Fprintf(w, "Search: %q\n", snap.Query)
	}

	if len(snap.Data.Content) == 0 {
		fmt.Fprintln(w, "No jobs found.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTITLE\tCOMPANY\tLOCATION\tSALARY\tACTIVE\tPOSTED")
		for i, p := range snap.Data.Content {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				i+1,
				orDash(p.Title),
				orDash(p.Company),
				orDash(p.Location),
				salaryRange(p.SalaryFrom, p.SalaryTo),
				yesNo(p.Active),
				postedAt(p.PostedAt, now, loc),
			)
		}
		_ = tw.Flush()
	}

	totals, showing := l.Summary()
	fmt.Fprintln(w, totals)
	fmt.Fprintln(w, showing)

	var nav []string
	if snap.CanPrev {
		nav = append(nav, "prev")
	}
	if snap.CanNext {
		nav = append(nav, "next")
	}
	if len(nav) > 0 {
		fmt.Fprintf(w, "(%s)\n", strings.Join(nav, " | "))
	}
}

// renderForm writes the draft, its errors and the available actions.
func renderForm(w io.Writer, f *Form) {
	values := f.Values()
	errs := f.FieldErrors()

	if bound, ok := f.Bound(); ok {
		fmt.Fprintf(w, "Editing %s (%s)\n", orDash(bound.Title), bound.ID)
	} else {
		fmt.Fprintln(w, "New job")
	}

	rows := map[string]string{
		FieldTitle:       values.Title,
		FieldCompany:     values.Company,
		FieldLocation:    values.Location,
		FieldDescription: values.Description,
		FieldSalaryFrom:  values.SalaryFrom,
		FieldSalaryTo:    values.SalaryTo,
		FieldActive:      yesNo(values.Active),
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, field := range FieldOrder {
		line := fmt.Sprintf("  %s\t%s", field, rows[field])
		if msg, ok := errs[field]; ok {
			line += "\t! " + msg
		}
		fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()

	// Errors for fields the form does not show, reported by the server.
	var extra []string
	for field := range errs {
		if _, shown := rows[field]; !shown {
			extra = append(extra, field)
		}
	}
	sort.Strings(extra)
	for _, field := range extra {
		fmt.Fprintf(w, "  ! %s: %s\n", field, errs[field])
	}

	if msg := f.Message(); msg != "" {
		fmt.Fprintln(w, msg)
	}

	actions := "[" + f.SubmitLabel() + "]"
	if f.CanCancel() {
		actions += "  [Cancel]"
	}
	fmt.Fprintln(w, actions)
}

func salaryRange(from, to *float64) string {
	switch {
	case from != nil && to != nil:
		return humanize.Commaf(*from) + " - " + humanize.Commaf(*to)
	case from != nil:
		return "from " + humanize.Commaf(*from)
	case to != nil:
		return "up to " + humanize.Commaf(*to)
	default:
		return "-"
	}
}

func postedAt(t *time.Time, now time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.In(loc).Format(timestampLayout), humanize.RelTime(*t, now, "ago", "from now"))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
