package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pohangsanhak/calendar/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvents(ctx context.Context, events []*storage.Event) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, e := range events {
		err := tx.GetContext(
			ctx,
			&e.ID,
			"INSERT INTO events(event_date, business, course, time, people, place, admin, group_id) "+
				"VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id",
			e.Date, e.Business, e.Course, e.Time, e.People, e.Place, e.Admin, e.GroupID)
		if err != nil {
			return fmt.Errorf("failed to insert event on %s: %w", e.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

func (s *Storage) UpdateEvent(ctx context.Context, id int64, patch storage.FieldPatch) error {
	sets, params := buildPatch(patch)
	if len(sets) == 0 {
		return storage.ErrNoFieldsToUpdate
	}
	params = append(params, id)

	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		fmt.Sprintf("UPDATE events SET %s WHERE id=$%d RETURNING TRUE", strings.Join(sets, ", "), len(params)),
		params...,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

func (s *Storage) RemoveEvent(ctx context.Context, id int64) error {
	var found bool
	err := s.db.GetContext(ctx, &found, "DELETE FROM events WHERE id=$1 RETURNING TRUE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to remove event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

func (s *Storage) ListEvents(ctx context.Context, from time.Time, to time.Time, business string) ([]storage.Event, error) {
	query := "SELECT id, event_date, COALESCE(group_id, '') AS group_id, business, course, time, people, place, admin " +
		"FROM events WHERE event_date IS NOT NULL AND event_date BETWEEN $1 AND $2"
	params := []interface{}{from, to}
	if business != "" {
		query += " AND business=$3"
		params = append(params, business)
	}
	query += " ORDER BY event_date ASC, id ASC"

	var events []storage.Event
	if err := s.db.SelectContext(ctx, &events, query, params...); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Storage) ListBusinesses(ctx context.Context) ([]string, error) {
	var businesses []string
	err := s.db.SelectContext(
		ctx,
		&businesses,
		"SELECT DISTINCT COALESCE(business, '') FROM events WHERE COALESCE(business, '') <> '' ORDER BY 1",
	)
	if err != nil {
		return nil, err
	}
	return businesses, nil
}

func buildPatch(patch storage.FieldPatch) ([]string, []interface{}) {
	var sets []string
	var params []interface{}
	add := func(column string, value interface{}) {
		params = append(params, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(params)))
	}

	if patch.Date != nil {
		add("event_date", *patch.Date)
	}
	if patch.Business != nil {
		add("business", storage.NormalizeField(*patch.Business))
	}
	if patch.Course != nil {
		add("course", storage.NormalizeField(*patch.Course))
	}
	if patch.Time != nil {
		add("time", storage.NormalizeField(*patch.Time))
	}
	if patch.People != nil {
		add("people", storage.NormalizeField(*patch.People))
	}
	if patch.Place != nil {
		add("place", storage.NormalizeField(*patch.Place))
	}
	if patch.Admin != nil {
		add("admin", storage.NormalizeField(*patch.Admin))
	}
	return sets, params
}
