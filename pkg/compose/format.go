package compose

import (
	"strconv"
	"strings"

	"github.com/nikogura/academic-cv/pkg/records"
)

func orNotProvided(s string) (out string) {
	out = strings.TrimSpace(s)
	if out == "" {
		out = NotProvided
	}
	return out
}

// joinPresent joins the non-blank parts with sep.
func joinPresent(sep string, parts ...string) (out string) {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	out = strings.Join(kept, sep)
	return out
}

// monthYear renders a date as MM/YYYY.
func monthYear(d *records.Date) (out string) {
	if !records.Known(d) {
		out = NotProvided
		return out
	}
	out = d.Format("01/2006")
	return out
}

// period renders "start - end" with an open end as Present.
func period(start, end *records.Date) (out string) {
	if !records.Known(start) && !records.Known(end) {
		out = NotProvided
		return out
	}

	finish := Present
	if records.Known(end) {
		finish = monthYear(end)
	}

	out = monthYear(start) + " - " + finish
	return out
}

func labeled(label, value string) (out string) {
	out = label + ": " + orNotProvided(value)
	return out
}

func yearText(year int) (out string) {
	if year <= 0 {
		out = NotProvided
		return out
	}
	out = strconv.Itoa(year)
	return out
}

func authorsLine(authors []string) (out string) {
	out = orNotProvided(joinPresent(", ", authors...))
	return out
}

// citation renders venue (year), volume(issue), pages.
func citation(venue string, year int, volume, issue, pages string) (out string) {
	out = orNotProvided(venue) + " (" + yearText(year) + ")"

	volume = strings.TrimSpace(volume)
	issue = strings.TrimSpace(issue)
	switch {
	case volume != "" && issue != "":
		out += ", Vol. " + volume + "(" + issue + ")"
	case volume != "":
		out += ", Vol. " + volume
	case issue != "":
		out += ", No. " + issue
	}

	if p := strings.TrimSpace(pages); p != "" {
		out += ", pp. " + p
	}

	return out
}
