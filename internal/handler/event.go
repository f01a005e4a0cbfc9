package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-swapper/internal/model"
	"github.com/iliyamo/slot-swapper/internal/repository"
)

// EventHandler exposes the event endpoints: creation, per-user
// listing, the swappable toggle, the marketplace listing, single-event
// lookup and deletion.  All routes require a valid JWT; ownership is
// checked on every mutation.
type EventHandler struct {
	Events EventStore
}

// NewEventHandler constructs an EventHandler and panics on a nil store.
func NewEventHandler(events EventStore) *EventHandler {
	if events == nil {
		panic("nil store passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

type createEventReq struct {
	Title       string `json:"title"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description"`
}

// eventResp is the JSON shape of a single owned event.
type eventResp struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"userId"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Swappable   bool      `json:"swappable"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toEventResp(ev model.Event) eventResp {
	return eventResp{
		ID:          ev.ID,
		UserID:      ev.UserID,
		Title:       ev.Title,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		Swappable:   ev.Swappable,
		Description: ev.Description,
		CreatedAt:   ev.CreatedAt,
	}
}

// Create handles POST /v1/events.  The owner is always the
// authenticated caller; a userId in the body is ignored.  Times are
// RFC3339 and the start must precede the end.
func (h *EventHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.StartTime == "" || req.EndTime == "" {
		return fail(c, http.StatusBadRequest, "title, startTime and endTime are required")
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return fail(c, http.StatusBadRequest, "startTime must be RFC3339")
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return fail(c, http.StatusBadRequest, "endTime must be RFC3339")
	}
	if !start.Before(end) {
		return fail(c, http.StatusBadRequest, "startTime must be before endTime")
	}

	ev := model.Event{
		UserID:      userID,
		Title:       req.Title,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		Swappable:   false, // new events are private until toggled
		Description: strings.TrimSpace(req.Description),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Events.Create(ctx, &ev); err != nil {
		return fail(c, http.StatusInternalServerError, "create event failed")
	}
	return respond(c, http.StatusCreated, toEventResp(ev))
}

// ListByUser handles GET /v1/events/user/:userId.  Users can only
// list their own events.
func (h *EventHandler) ListByUser(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	if userID != callerID {
		return fail(c, http.StatusForbidden, "cannot list another user's events")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	events, err := h.Events.ListByUser(ctx, userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list events failed")
	}
	out := make([]eventResp, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventResp(ev))
	}
	return respond(c, http.StatusOK, out)
}

// ToggleSwappable handles PATCH /v1/events/toggle/:id.  Only the
// event's owner may flip the flag.
func (h *EventHandler) ToggleSwappable(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	if ev.UserID != callerID {
		return fail(c, http.StatusForbidden, "not the event owner")
	}

	updated, err := h.Events.ToggleSwappable(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "toggle failed")
	}
	return respond(c, http.StatusOK, toEventResp(updated))
}

// ListSwappable handles GET /v1/events/swappable: the marketplace of
// all swappable events with owner info, earliest start first.  The
// caller's own events are included; filtering them is a client choice.
func (h *EventHandler) ListSwappable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	events, err := h.Events.ListSwappable(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list swappable events failed")
	}
	return respond(c, http.StatusOK, events)
}

// GetByID handles GET /v1/events/:id, returning the event joined with
// its owner's display info.
func (h *EventHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	det, err := h.Events.GetDetail(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return respond(c, http.StatusOK, det)
}

// Delete handles DELETE /v1/events/:id.  Owner-only.
func (h *EventHandler) Delete(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid event id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	switch err := h.Events.Delete(ctx, id, callerID); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrEventNotFound:
		return fail(c, http.StatusNotFound, "event not found")
	case repository.ErrForbidden:
		return fail(c, http.StatusForbidden, "not the event owner")
	default:
		return fail(c, http.StatusInternalServerError, "delete failed")
	}
}
