package internalhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pohangsanhak/calendar/internal/app"
	memorystorage "github.com/pohangsanhak/calendar/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHandler(app.New(memorystorage.New())))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func listJSON(t *testing.T, url string) (*http.Response, []map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestEventLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{
		"start":          "2026-01-05",
		"end":            "2026-01-09",
		"excluded_dates": "2026-01-07",
		"business":       "지산맞",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.EqualValues(t, 4, created["created"])
	require.NotEmpty(t, created["group_id"])

	resp, events := listJSON(t, srv.URL+"/api/events?from=2026-01-05&to=2026-01-09")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, events, 4)
	require.Equal(t, "2026-01-05", events[0]["event_date"])
	require.Equal(t, "2026-01-06", events[1]["event_date"])
	require.Equal(t, "2026-01-08", events[2]["event_date"])
	require.Equal(t, "2026-01-09", events[3]["event_date"])
	for _, e := range events {
		require.Equal(t, "지산맞", e["business"])
		require.Nil(t, e["course"])
	}

	// update the Jan-06 row only
	jan06 := int64(events[1]["id"].(float64))
	resp, _ = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/events/%d", srv.URL, jan06),
		map[string]string{"business": "행사"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, events = listJSON(t, srv.URL+"/api/events?from=2026-01-05&to=2026-01-09")
	require.Equal(t, "지산맞", events[0]["business"])
	require.Equal(t, "행사", events[1]["business"])
	require.Equal(t, "지산맞", events[2]["business"])
	require.Equal(t, "지산맞", events[3]["business"])

	// delete the Jan-08 row only
	jan08 := int64(events[2]["id"].(float64))
	resp, deleted := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/events/%d", srv.URL, jan08), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, jan08, deleted["deleted_id"])

	_, events = listJSON(t, srv.URL+"/api/events?from=2026-01-05&to=2026-01-09")
	require.Len(t, events, 3)
	require.Equal(t, "2026-01-05", events[0]["event_date"])
	require.Equal(t, "2026-01-06", events[1]["event_date"])
	require.Equal(t, "2026-01-09", events[2]["event_date"])
}

func TestListEventsQueries(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{
		"start": "2026-01-05", "end": "2026-01-06", "business": "지산맞",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{
		"start": "2026-02-03", "business": "대관",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("month token expands to the full month", func(t *testing.T) {
		_, events := listJSON(t, srv.URL+"/api/events?month=2026-01")
		require.Len(t, events, 2)
	})

	t.Run("business filter", func(t *testing.T) {
		_, events := listJSON(t, srv.URL+"/api/events?from=2026-01-01&to=2026-02-28&business=대관")
		require.Len(t, events, 1)
		require.Equal(t, "2026-02-03", events[0]["event_date"])
	})

	t.Run("all token disables the filter", func(t *testing.T) {
		_, events := listJSON(t, srv.URL+"/api/events?from=2026-01-01&to=2026-02-28&business=전체")
		require.Len(t, events, 3)
	})

	t.Run("missing bounds are a bad request", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/events?from=2026-01-01")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed bound is a bad request not a server error", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/events?from=2026-02-30&to=2026-03-05")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCreateEventsValidation(t *testing.T) {
	srv := newTestServer(t)

	t.Run("malformed start is a bad request", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{"start": "2026-02-30"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, body["error"], "start")
	})

	t.Run("missing start is a bad request", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{"business": "지산맞"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("fully excluded period reports zero created", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{
			"start":          "2026-01-05",
			"excluded_dates": "2026-01-05",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.EqualValues(t, 0, body["created"])
	})
}

func TestNotFoundMapping(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/events/404", map[string]string{"business": "행사"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/events/404", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{
		"start": "2026-01-05", "business": "지산맞",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int64(created["ids"].([]interface{})[0].(float64))

	t.Run("empty patch is a bad request", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/events/%d", srv.URL, id), map[string]string{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed date is a bad request", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/events/%d", srv.URL, id),
			map[string]string{"event_date": "2026-02-30"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("date move relocates the row", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/events/%d", srv.URL, id),
			map[string]string{"event_date": "2026-01-12"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		_, events := listJSON(t, srv.URL+"/api/events?from=2026-01-12&to=2026-01-12")
		require.Len(t, events, 1)
	})
}

func TestConflictMapping(t *testing.T) {
	a := app.New(memorystorage.New())
	a.CheckOverlap = true
	srv := httptest.NewServer(NewHandler(a))
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{
		"start": "2026-01-05", "place": "본관 101", "time": "10:00-12:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{
		"start": "2026-01-05", "place": "본관 101", "time": "11:00-13:00",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotEmpty(t, body["error"])
}

func TestBusinessesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	for _, b := range []string{"지산맞", "대관", "지산맞", ""} {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/events", map[string]string{
			"start": "2026-01-05", "business": b,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/api/businesses")
	require.NoError(t, err)
	defer resp.Body.Close()

	var businesses []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&businesses))
	require.Equal(t, []string{"대관", "지산맞"}, businesses)
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp2, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}
