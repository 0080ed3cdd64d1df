package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pohangsanhak/calendar/internal/daterange"
	"github.com/pohangsanhak/calendar/internal/storage"
)

type Storage struct {
	mu    sync.RWMutex
	data  map[int64]storage.Event
	idSeq int64
}

func New() *Storage {
	return &Storage{data: make(map[int64]storage.Event)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvents(_ context.Context, events []*storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		s.idSeq++
		e.ID = s.idSeq
		e.Date = daterange.TruncateToDay(e.Date)
		s.data[e.ID] = *e
	}
	return nil
}

func (s *Storage) UpdateEvent(_ context.Context, id int64, patch storage.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok {
		return fmt.Errorf("failed to update event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	if patch.Date != nil {
		e.Date = daterange.TruncateToDay(*patch.Date)
	}
	applyPatch(&e.Fields, patch)
	s.data[id] = e
	return nil
}

func (s *Storage) RemoveEvent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("failed to remove event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	delete(s.data, id)
	return nil
}

func (s *Storage) ListEvents(_ context.Context, from time.Time, to time.Time, business string) ([]storage.Event, error) {
	from = daterange.TruncateToDay(from)
	to = daterange.TruncateToDay(to)

	events := make([]storage.Event, 0)
	s.mu.RLock()
	for _, e := range s.data {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		if business != "" && (e.Business == nil || *e.Business != business) {
			continue
		}
		events = append(events, e)
	}
	s.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (s *Storage) ListBusinesses(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	s.mu.RLock()
	for _, e := range s.data {
		if e.Business != nil {
			seen[*e.Business] = struct{}{}
		}
	}
	s.mu.RUnlock()

	businesses := make([]string, 0, len(seen))
	for b := range seen {
		businesses = append(businesses, b)
	}
	sort.Strings(businesses)
	return businesses, nil
}

func applyPatch(f *storage.Fields, patch storage.FieldPatch) {
	if patch.Business != nil {
		f.Business = storage.NormalizeField(*patch.Business)
	}
	if patch.Course != nil {
		f.Course = storage.NormalizeField(*patch.Course)
	}
	if patch.Time != nil {
		f.Time = storage.NormalizeField(*patch.Time)
	}
	if patch.People != nil {
		f.People = storage.NormalizeField(*patch.People)
	}
	if patch.Place != nil {
		f.Place = storage.NormalizeField(*patch.Place)
	}
	if patch.Admin != nil {
		f.Admin = storage.NormalizeField(*patch.Admin)
	}
}
