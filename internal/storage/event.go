package storage

import (
	"strings"
	"time"
)

// Event is one schedule row bound to exactly one calendar date. Multi-day
// registrations are stored as independent rows sharing a GroupID.
type Event struct {
	ID      int64     `db:"id" json:"id"`
	Date    time.Time `db:"event_date" json:"eventDate"`
	GroupID string    `db:"group_id" json:"groupId,omitempty"`
	Fields
}

// Fields are the descriptive attributes of an event. A nil pointer means the
// field is absent; blank values are never stored.
type Fields struct {
	Business *string `db:"business" json:"business,omitempty"`
	Course   *string `db:"course" json:"course,omitempty"`
	Time     *string `db:"time" json:"time,omitempty"`
	People   *string `db:"people" json:"people,omitempty"`
	Place    *string `db:"place" json:"place,omitempty"`
	Admin    *string `db:"admin" json:"admin,omitempty"`
}

// FieldPatch describes a partial update of a single event. A nil pointer
// leaves the column untouched; a set pointer is normalized before storing, so
// a blank value clears the column. Date, when set, moves only this row.
type FieldPatch struct {
	Date     *time.Time
	Business *string
	Course   *string
	Time     *string
	People   *string
	Place    *string
	Admin    *string
}

// Empty reports whether the patch would change nothing.
func (p FieldPatch) Empty() bool {
	return p.Date == nil && p.Business == nil && p.Course == nil && p.Time == nil &&
		p.People == nil && p.Place == nil && p.Admin == nil
}

// NormalizeField trims s and maps whitespace-only values to absent.
func NormalizeField(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizePtr(p *string) *string {
	if p == nil {
		return nil
	}
	return NormalizeField(*p)
}

// Normalized returns a copy of f with every member trimmed and blank members
// mapped to nil.
func (f Fields) Normalized() Fields {
	return Fields{
		Business: normalizePtr(f.Business),
		Course:   normalizePtr(f.Course),
		Time:     normalizePtr(f.Time),
		People:   normalizePtr(f.People),
		Place:    normalizePtr(f.Place),
		Admin:    normalizePtr(f.Admin),
	}
}
