// Package daterange holds the calendar-date helpers and the expansion of a
// period registration into per-day rows.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pohangsanhak/calendar/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

const dateLayout = "2006-01-02"

var separatorNormalizer = strings.NewReplacer(".", "-", "/", "-")

// ParseDate parses a YYYY-MM-DD string into a timezone-naive date (UTC
// midnight). Dot and slash separators are tolerated; impossible dates such as
// 2026-02-30 are rejected.
func ParseDate(s string) (time.Time, error) {
	s = separatorNormalizer.Replace(strings.TrimSpace(s))
	d, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	return d, nil
}

// FormatDate renders a date as zero-padded YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// TruncateToDay drops the time-of-day component, keeping the location.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Days returns every date from start to end inclusive, ascending. Swapped
// bounds are reordered rather than rejected.
func Days(start, end time.Time) []time.Time {
	start = TruncateToDay(start)
	end = TruncateToDay(end)
	if end.Before(start) {
		start, end = end, start
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ParseExcluded parses a delimited list of dates to skip during expansion.
// Commas, semicolons and whitespace all delimit. Entries that do not parse
// are logged and dropped, never guessed at.
func ParseExcluded(s string) map[time.Time]struct{} {
	excluded := make(map[time.Time]struct{})
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	for _, f := range fields {
		d, err := ParseDate(f)
		if err != nil {
			log.Warnf("skipping unparsable excluded date %q", f)
			continue
		}
		excluded[d] = struct{}{}
	}
	return excluded
}

// Entry is one per-day row produced from a period registration.
type Entry struct {
	Date   time.Time
	Fields storage.Fields
}

// Expand turns a [start, end] period into one Entry per non-excluded day, all
// sharing the same normalized field-set. A fully excluded period yields an
// empty slice.
func Expand(start, end time.Time, excluded map[time.Time]struct{}, fields storage.Fields) []Entry {
	fields = fields.Normalized()
	days := Days(start, end)
	entries := make([]Entry, 0, len(days))
	for _, d := range days {
		if _, ok := excluded[d]; ok {
			continue
		}
		entries = append(entries, Entry{Date: d, Fields: fields})
	}
	return entries
}
