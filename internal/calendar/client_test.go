package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripFunc serves canned backend responses without a real server.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), &http.Client{Transport: rt}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClient_NilHTTPClient(t *testing.T) {
	_, err := NewClient(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestSearchEvents_InvalidOrderByFailsBeforeNetwork(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, map[string]any{})
	})

	_, err := client.SearchEvents(SearchEventsRequest{
		MinDateTime: "2024-06-01 00:00:00",
		MaxDateTime: "2024-06-30 00:00:00",
		OrderBy:     "priority",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_by")
	assert.Equal(t, 0, calls, "invalid request must not reach the backend")
}

func TestSearchEvents_AggregatesVisibleCalendars(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/users/me/calendarList"):
			return jsonResponse(http.StatusOK, map[string]any{
				"items": []map[string]any{
					{"id": "primary", "summary": "Personal", "primary": true},
					{"id": "work", "summary": "Work"},
				},
			})
		case strings.Contains(req.URL.Path, "/calendars/primary/events"):
			assert.Equal(t, "true", req.URL.Query().Get("singleEvents"))
			assert.Equal(t, "startTime", req.URL.Query().Get("orderBy"))
			return jsonResponse(http.StatusOK, map[string]any{
				"items": []map[string]any{
					{
						"id":      "evt-late",
						"summary": "Dinner",
						"start":   map[string]any{"dateTime": "2024-06-10T19:00:00Z"},
						"end":     map[string]any{"dateTime": "2024-06-10T20:00:00Z"},
					},
				},
			})
		case strings.Contains(req.URL.Path, "/calendars/work/events"):
			return jsonResponse(http.StatusOK, map[string]any{
				"items": []map[string]any{
					{
						"id":      "evt-early",
						"summary": "Standup",
						"start":   map[string]any{"dateTime": "2024-06-10T09:00:00Z"},
						"end":     map[string]any{"dateTime": "2024-06-10T09:15:00Z"},
					},
				},
			})
		}
		t.Errorf("unexpected request: %s %s", req.Method, req.URL.Path)
		return jsonResponse(http.StatusNotFound, map[string]any{})
	})

	events, err := client.SearchEvents(SearchEventsRequest{
		MinDateTime: "2024-06-01 00:00:00",
		MaxDateTime: "2024-06-30 00:00:00",
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-early", events[0].ID, "merged results must be ordered by start time")
	assert.Equal(t, "work", events[0].CalendarID)
	assert.Equal(t, "evt-late", events[1].ID)
}

func TestSearchEvents_CapsMaxResults(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/users/me/calendarList") {
			return jsonResponse(http.StatusOK, map[string]any{
				"items": []map[string]any{{"id": "primary"}},
			})
		}
		return jsonResponse(http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": "e1", "start": map[string]any{"dateTime": "2024-06-10T09:00:00Z"}},
				{"id": "e2", "start": map[string]any{"dateTime": "2024-06-10T10:00:00Z"}},
				{"id": "e3", "start": map[string]any{"dateTime": "2024-06-10T11:00:00Z"}},
			},
		})
	})

	events, err := client.SearchEvents(SearchEventsRequest{
		MinDateTime: "2024-06-01 00:00:00",
		MaxDateTime: "2024-06-30 00:00:00",
		MaxResults:  2,
	})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCreateEvent_SendsNormalizedEvent(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, req.Method)
		require.True(t, strings.Contains(req.URL.Path, "/calendars/primary/events"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		return jsonResponse(http.StatusOK, map[string]any{
			"id":      "evt-new",
			"summary": "Standup",
			"start":   map[string]any{"dateTime": "2024-06-10T09:00:00Z"},
			"end":     map[string]any{"dateTime": "2024-06-10T10:00:00Z"},
		})
	})

	created, err := client.CreateEvent(CreateEventRequest{
		Summary:       "Standup",
		StartDateTime: "2024-06-10 09:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-new", created.ID)

	assert.Equal(t, "Standup", body["summary"])
	end, ok := body["end"].(map[string]any)
	require.True(t, ok, "normalized end must be sent")
	assert.Equal(t, "2024-06-10T10:00:00Z", end["dateTime"])
	_, hasDescription := body["description"]
	assert.False(t, hasDescription, "absent optional fields must stay off the wire")
}

func TestCreateEvent_SendUpdatesQuery(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "all", req.URL.Query().Get("sendUpdates"))
		return jsonResponse(http.StatusOK, map[string]any{"id": "evt-new"})
	})

	sendUpdates := "all"
	_, err := client.CreateEvent(CreateEventRequest{
		Summary:       "Standup",
		StartDateTime: "2024-06-10 09:00:00",
		Attendees:     []string{"a@example.com"},
		SendUpdates:   &sendUpdates,
	})
	require.NoError(t, err)
}

func TestUpdateEvent_PatchIsSparse(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPatch, req.Method)
		require.True(t, strings.Contains(req.URL.Path, "/calendars/primary/events/evt-1"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		return jsonResponse(http.StatusOK, map[string]any{
			"id":      "evt-1",
			"summary": "Renamed",
		})
	})

	summary := "Renamed"
	updated, err := client.UpdateEvent(UpdateEventRequest{
		EventID: "evt-1",
		Summary: &summary,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Summary)

	assert.Equal(t, "Renamed", body["summary"])
	for _, key := range []string{"description", "location", "start", "end", "attendees"} {
		_, present := body[key]
		assert.False(t, present, "omitted field %q must stay off the wire", key)
	}
}

func TestUpdateEvent_AttachesConferenceData(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPatch, req.Method)
		require.True(t, strings.Contains(req.URL.Path, "/calendars/primary/events/evt-1"))
		assert.Equal(t, "1", req.URL.Query().Get("conferenceDataVersion"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		return jsonResponse(http.StatusOK, map[string]any{
			"id":      "evt-1",
			"summary": "Standup",
		})
	})

	withMeet := true
	_, err := client.UpdateEvent(UpdateEventRequest{
		EventID:        "evt-1",
		ConferenceData: &withMeet,
	})
	require.NoError(t, err)

	conference, ok := body["conferenceData"].(map[string]any)
	require.True(t, ok, "patch body must carry conferenceData, got %v", body)
	createRequest, ok := conference["createRequest"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, createRequest["requestId"])
}

func TestDeleteEvent(t *testing.T) {
	deleted := false
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodDelete, req.Method)
		require.True(t, strings.Contains(req.URL.Path, "/calendars/work/events/evt-1"))
		assert.Equal(t, "none", req.URL.Query().Get("sendUpdates"))
		deleted = true
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("")),
		}, nil
	})

	sendUpdates := "none"
	err := client.DeleteEvent(DeleteEventRequest{
		EventID:     "evt-1",
		CalendarID:  "work",
		SendUpdates: &sendUpdates,
	})
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCalendarsInfo_SingleCalendar(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.True(t, strings.HasSuffix(req.URL.Path, "/users/me/calendarList/work"))
		return jsonResponse(http.StatusOK, map[string]any{
			"id":         "work",
			"summary":    "Work",
			"timeZone":   "Europe/Berlin",
			"accessRole": "owner",
		})
	})

	calendars, err := client.CalendarsInfo("work")
	require.NoError(t, err)
	require.Len(t, calendars, 1)
	assert.Equal(t, "Europe/Berlin", calendars[0].TimeZone)
}

func TestCurrentDateTime(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.True(t, strings.HasSuffix(req.URL.Path, "/users/me/calendarList/primary"))
		return jsonResponse(http.StatusOK, map[string]any{
			"id":       "primary",
			"timeZone": "UTC",
		})
	})

	answer, err := client.CurrentDateTime("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer, "Time zone: UTC, Date and time: "))
}
