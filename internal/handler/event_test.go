package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/iliyamo/slot-swapper/internal/model"
	"github.com/iliyamo/slot-swapper/internal/repository"
)

func TestCreateEvent_Validation(t *testing.T) {
	h := NewEventHandler(&mockEventStore{})

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"startTime":"2026-09-01T09:00:00Z","endTime":"2026-09-01T10:00:00Z"}`},
		{"missing times", `{"title":"Standup"}`},
		{"bad start format", `{"title":"Standup","startTime":"tomorrow","endTime":"2026-09-01T10:00:00Z"}`},
		{"bad end format", `{"title":"Standup","startTime":"2026-09-01T09:00:00Z","endTime":"later"}`},
		{"start equals end", `{"title":"Standup","startTime":"2026-09-01T09:00:00Z","endTime":"2026-09-01T09:00:00Z"}`},
		{"start after end", `{"title":"Standup","startTime":"2026-09-01T11:00:00Z","endTime":"2026-09-01T10:00:00Z"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestCtx(t, http.MethodPost, "/v1/events", tc.body, 9)
			if err := h.Create(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateEvent_OwnerIsCallerAndNotSwappable(t *testing.T) {
	var created model.Event
	events := &mockEventStore{
		createFn: func(_ context.Context, ev *model.Event) error {
			ev.ID = 11
			created = *ev
			return nil
		},
	}
	h := NewEventHandler(events)

	body := `{"title":"Standup","startTime":"2026-09-01T09:00:00Z","endTime":"2026-09-01T10:00:00Z","description":"weekly"}`
	c, rec := newTestCtx(t, http.MethodPost, "/v1/events", body, 9)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if created.UserID != 9 {
		t.Fatalf("owner is %d, want the caller 9", created.UserID)
	}
	if created.Swappable {
		t.Fatal("new events must start out non-swappable")
	}
	if !created.StartTime.Before(created.EndTime) {
		t.Fatalf("times not preserved: %v .. %v", created.StartTime, created.EndTime)
	}
}

func TestListByUser_OtherUsersForbidden(t *testing.T) {
	h := NewEventHandler(&mockEventStore{})

	c, rec := newTestCtx(t, http.MethodGet, "/v1/events/user/7", "", 9)
	c.SetParamNames("userId")
	c.SetParamValues("7")
	if err := h.ListByUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rec.Code)
	}
}

func TestListByUser_EmptyIsJSONArray(t *testing.T) {
	h := NewEventHandler(&mockEventStore{})

	c, rec := newTestCtx(t, http.MethodGet, "/v1/events/user/9", "", 9)
	c.SetParamNames("userId")
	c.SetParamValues("9")
	if err := h.ListByUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	_, data, _ := decodeEnvelope(t, rec)
	if string(data) != "[]" {
		t.Fatalf("got data %s, want []", data)
	}
}

func TestToggleSwappable_OwnerOnly(t *testing.T) {
	events := &mockEventStore{
		getByIDFn: func(_ context.Context, id uint64) (model.Event, error) {
			return model.Event{ID: id, UserID: 42}, nil
		},
	}
	h := NewEventHandler(events)

	c, rec := newTestCtx(t, http.MethodPatch, "/v1/events/toggle/3", "", 9)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.ToggleSwappable(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rec.Code)
	}
}

func TestToggleSwappable_FlipsFlag(t *testing.T) {
	events := &mockEventStore{
		getByIDFn: func(_ context.Context, id uint64) (model.Event, error) {
			return model.Event{ID: id, UserID: 9, Swappable: false}, nil
		},
		toggleFn: func(_ context.Context, id uint64) (model.Event, error) {
			return model.Event{ID: id, UserID: 9, Swappable: true}, nil
		},
	}
	h := NewEventHandler(events)

	c, rec := newTestCtx(t, http.MethodPatch, "/v1/events/toggle/3", "", 9)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.ToggleSwappable(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	var ev struct {
		Swappable bool `json:"swappable"`
	}
	_, data, _ := decodeEnvelope(t, rec)
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !ev.Swappable {
		t.Fatal("flag did not flip")
	}
}

func TestToggleSwappable_NotFound(t *testing.T) {
	h := NewEventHandler(&mockEventStore{})

	c, rec := newTestCtx(t, http.MethodPatch, "/v1/events/toggle/99", "", 9)
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.ToggleSwappable(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rec.Code)
	}
}

func TestListSwappable_ReturnsMarketplace(t *testing.T) {
	events := &mockEventStore{
		listSwappableFn: func(_ context.Context) ([]repository.EventDetail, error) {
			return []repository.EventDetail{
				{ID: 1, Title: "Early", StartTime: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC), Swappable: true, OwnerName: "A", OwnerEmail: "a@example.com"},
				{ID: 2, Title: "Late", StartTime: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), Swappable: true, OwnerName: "B", OwnerEmail: "b@example.com"},
			}, nil
		},
	}
	h := NewEventHandler(events)

	c, rec := newTestCtx(t, http.MethodGet, "/v1/events/swappable", "", 9)
	if err := h.ListSwappable(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	var list []repository.EventDetail
	_, data, _ := decodeEnvelope(t, rec)
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Early" || list[1].OwnerEmail != "b@example.com" {
		t.Fatalf("unexpected marketplace: %+v", list)
	}
}

func TestDeleteEvent_Responses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"owner deletes", nil, http.StatusNoContent},
		{"missing event", repository.ErrEventNotFound, http.StatusNotFound},
		{"not the owner", repository.ErrForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := &mockEventStore{
				deleteFn: func(_ context.Context, id, ownerID uint64) error { return tc.err },
			}
			h := NewEventHandler(events)

			c, rec := newTestCtx(t, http.MethodDelete, "/v1/events/3", "", 9)
			c.SetParamNames("id")
			c.SetParamValues("3")
			if err := h.Delete(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
