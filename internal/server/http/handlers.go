package internalhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pohangsanhak/calendar/internal/app"
	"github.com/pohangsanhak/calendar/internal/daterange"
	"github.com/pohangsanhak/calendar/internal/storage"
	log "github.com/sirupsen/logrus"
)

type handlers struct {
	app *app.App
}

// eventJSON mirrors what the calendar page consumes: snake_case keys, dates
// as YYYY-MM-DD strings, absent fields as null.
type eventJSON struct {
	ID        int64   `json:"id"`
	EventDate string  `json:"event_date"`
	Business  *string `json:"business"`
	Course    *string `json:"course"`
	Time      *string `json:"time"`
	People    *string `json:"people"`
	Place     *string `json:"place"`
	Admin     *string `json:"admin"`
	GroupID   string  `json:"group_id,omitempty"`
}

func toEventJSON(e storage.Event) eventJSON {
	return eventJSON{
		ID:        e.ID,
		EventDate: daterange.FormatDate(e.Date),
		Business:  e.Business,
		Course:    e.Course,
		Time:      e.Time,
		People:    e.People,
		Place:     e.Place,
		Admin:     e.Admin,
		GroupID:   e.GroupID,
	}
}

func (h *handlers) index(w http.ResponseWriter, _ *http.Request) {
	page, err := webFiles.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	if month := r.URL.Query().Get("month"); month != "" && from == "" {
		first, err := time.ParseInLocation("2006-01", month, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		from = daterange.FormatDate(first)
		to = daterange.FormatDate(first.AddDate(0, 1, -1))
	}
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	events, err := h.app.ListEvents(r.Context(), from, to, r.URL.Query().Get("business"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, toEventJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createEvents(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Start         string `json:"start"`
		End           string `json:"end"`
		ExcludedDates string `json:"excluded_dates"`
		Business      string `json:"business"`
		Course        string `json:"course"`
		Time          string `json:"time"`
		People        string `json:"people"`
		Place         string `json:"place"`
		Admin         string `json:"admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.app.RegisterRange(r.Context(), app.RangeRequest{
		Start:         body.Start,
		End:           body.End,
		ExcludedDates: body.ExcludedDates,
		Business:      body.Business,
		Course:        body.Course,
		Time:          body.Time,
		People:        body.People,
		Place:         body.Place,
		Admin:         body.Admin,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"created":  result.Created,
		"ids":      result.IDs,
		"group_id": result.GroupID,
	})
}

func (h *handlers) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// Pointer fields keep "key absent" and "key blank" apart: absent leaves
	// the column alone, blank clears it.
	var body struct {
		EventDate *string `json:"event_date"`
		Business  *string `json:"business"`
		Course    *string `json:"course"`
		Time      *string `json:"time"`
		People    *string `json:"people"`
		Place     *string `json:"place"`
		Admin     *string `json:"admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	patch := storage.FieldPatch{
		Business: body.Business,
		Course:   body.Course,
		Time:     body.Time,
		People:   body.People,
		Place:    body.Place,
		Admin:    body.Admin,
	}
	if body.EventDate != nil {
		d, err := daterange.ParseDate(*body.EventDate)
		if err != nil {
			writeAppError(w, err)
			return
		}
		patch.Date = &d
	}

	if err := h.app.UpdateEvent(r.Context(), id, patch); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": id})
}

func (h *handlers) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.app.RemoveEvent(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "deleted_id": id})
}

func (h *handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.app.ListBusinesses(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, businesses)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError keeps validation, not-found and conflict outcomes
// distinguishable from storage failures.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, daterange.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNoFieldsToUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFoundEvent):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrScheduleConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Errorf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
