package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pohangsanhak/calendar/internal/daterange"
)

// ErrScheduleConflict reports a same-day, same-place time overlap with an
// already stored event. Advisory only: overlapping bookings are a first-class
// case when the check is disabled or the time fields do not parse.
var ErrScheduleConflict = errors.New("schedule conflict")

// minuteRange is a time-of-day interval in minutes since midnight.
type minuteRange struct {
	start int
	end   int
}

func (r minuteRange) overlaps(o minuteRange) bool {
	return r.start < o.end && o.start < r.end
}

// parseTimeRange understands "HH:MM-HH:MM" with "~" and surrounding spaces
// tolerated. Anything else reports !ok and disables the check for that row.
func parseTimeRange(s string) (minuteRange, bool) {
	s = strings.ReplaceAll(s, "~", "-")
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return minuteRange{}, false
	}
	start, ok := parseClock(parts[0])
	if !ok {
		return minuteRange{}, false
	}
	end, ok := parseClock(parts[1])
	if !ok || end <= start {
		return minuteRange{}, false
	}
	return minuteRange{start: start, end: end}, true
}

func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

func (a *App) checkConflicts(ctx context.Context, entries []daterange.Entry) error {
	fields := entries[0].Fields
	if fields.Place == nil || fields.Time == nil {
		return nil
	}
	requested, ok := parseTimeRange(*fields.Time)
	if !ok {
		return nil
	}

	existing, err := a.Storage.ListEvents(ctx, entries[0].Date, entries[len(entries)-1].Date, "")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		for _, e := range existing {
			if !e.Date.Equal(entry.Date) || e.Place == nil || *e.Place != *fields.Place || e.Time == nil {
				continue
			}
			stored, ok := parseTimeRange(*e.Time)
			if !ok {
				continue
			}
			if requested.overlaps(stored) {
				return fmt.Errorf("%s %s is already booked on %s: %w",
					*e.Place, *e.Time, daterange.FormatDate(e.Date), ErrScheduleConflict)
			}
		}
	}
	return nil
}
