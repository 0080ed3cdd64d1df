package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFoundEvent    = errors.New("event not found")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	// AddEvents persists every given event and fills in the assigned IDs.
	AddEvents(ctx context.Context, events []*Event) error
	UpdateEvent(ctx context.Context, id int64, patch FieldPatch) error
	RemoveEvent(ctx context.Context, id int64) error
	// ListEvents returns events with from <= event_date <= to, ordered by
	// (event_date, id) ascending. An empty business matches every row.
	ListEvents(ctx context.Context, from time.Time, to time.Time, business string) ([]Event, error)
	ListBusinesses(ctx context.Context) ([]string, error)
}
