package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pohangsanhak/calendar/internal/daterange"
	"github.com/pohangsanhak/calendar/internal/storage"
	log "github.com/sirupsen/logrus"
)

// "전체" in the business filter means "all businesses", matching the UI's
// default dropdown entry.
const businessFilterAll = "전체"

type App struct {
	Storage storage.Storage
	// CheckOverlap enables the advisory same-day/same-place time-overlap
	// check on registration. Best effort: it only fires when the time
	// fields on both sides parse as HH:MM-HH:MM ranges.
	CheckOverlap bool
}

func New(stor storage.Storage) *App {
	return &App{Storage: stor}
}

// RangeRequest is one period registration as submitted by the client. End
// defaults to Start; ExcludedDates is a delimited list of dates to skip.
type RangeRequest struct {
	Start         string
	End           string
	ExcludedDates string

	Business string
	Course   string
	Time     string
	People   string
	Place    string
	Admin    string
}

type RegisterResult struct {
	Created int     `json:"created"`
	IDs     []int64 `json:"ids"`
	GroupID string  `json:"groupId,omitempty"`
}

// RegisterRange expands a [start, end] period into one event per
// non-excluded day and persists them. Validation is all-or-nothing: a
// malformed start or end creates no rows. A fully excluded period is not an
// error and reports zero created.
func (a *App) RegisterRange(ctx context.Context, req RangeRequest) (RegisterResult, error) {
	startText := strings.TrimSpace(req.Start)
	if startText == "" {
		return RegisterResult{}, fmt.Errorf("start is required: %w", daterange.ErrInvalidDate)
	}
	endText := strings.TrimSpace(req.End)
	if endText == "" {
		endText = startText
	}

	start, err := daterange.ParseDate(startText)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("start: %w", err)
	}
	end, err := daterange.ParseDate(endText)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("end: %w", err)
	}

	fields := storage.Fields{
		Business: storage.NormalizeField(req.Business),
		Course:   storage.NormalizeField(req.Course),
		Time:     storage.NormalizeField(req.Time),
		People:   storage.NormalizeField(req.People),
		Place:    storage.NormalizeField(req.Place),
		Admin:    storage.NormalizeField(req.Admin),
	}
	entries := daterange.Expand(start, end, daterange.ParseExcluded(req.ExcludedDates), fields)
	if len(entries) == 0 {
		return RegisterResult{Created: 0, IDs: []int64{}}, nil
	}

	if a.CheckOverlap {
		if err := a.checkConflicts(ctx, entries); err != nil {
			return RegisterResult{}, err
		}
	}

	groupID := uuid.NewString()
	events := make([]*storage.Event, 0, len(entries))
	for _, entry := range entries {
		events = append(events, &storage.Event{
			Date:    entry.Date,
			GroupID: groupID,
			Fields:  entry.Fields,
		})
	}
	if err := a.Storage.AddEvents(ctx, events); err != nil {
		return RegisterResult{}, err
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	log.Debugf("registered %d events in group %s", len(ids), groupID)
	return RegisterResult{Created: len(ids), IDs: ids, GroupID: groupID}, nil
}

// ListEvents returns events between from and to inclusive, ordered by
// (event_date, id). Business "" or "전체" matches every row.
func (a *App) ListEvents(ctx context.Context, from string, to string, business string) ([]storage.Event, error) {
	fromDate, err := daterange.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	toDate, err := daterange.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if toDate.Before(fromDate) {
		fromDate, toDate = toDate, fromDate
	}
	if business == businessFilterAll {
		business = ""
	}
	return a.Storage.ListEvents(ctx, fromDate, toDate, business)
}

func (a *App) UpdateEvent(ctx context.Context, id int64, patch storage.FieldPatch) error {
	if patch.Empty() {
		return storage.ErrNoFieldsToUpdate
	}
	return a.Storage.UpdateEvent(ctx, id, patch)
}

func (a *App) RemoveEvent(ctx context.Context, id int64) error {
	return a.Storage.RemoveEvent(ctx, id)
}

func (a *App) ListBusinesses(ctx context.Context) ([]string, error) {
	return a.Storage.ListBusinesses(ctx)
}
