package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-swapper/internal/model"
	"github.com/iliyamo/slot-swapper/internal/queue"
	"github.com/iliyamo/slot-swapper/internal/repository"
	"github.com/iliyamo/slot-swapper/internal/service"
)

// emailPattern is the basic local@domain.tld shape accepted for the
// contact address.  Deliberately loose: the address is a contact
// hint, not a verified identity.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SwapHandler implements the swap-request lifecycle: creation,
// incoming/outgoing listing, the status transition and single-request
// lookup.  The notifier is optional; a nil value disables the
// best-effort notifications without affecting any contract.
type SwapHandler struct {
	Users    UserStore
	Events   EventStore
	Swaps    SwapStore
	Notifier service.Notifier
}

// NewSwapHandler constructs a SwapHandler.  Stores must be non-nil;
// notifier may be nil.
func NewSwapHandler(users UserStore, events EventStore, swaps SwapStore, notifier service.Notifier) *SwapHandler {
	if users == nil || events == nil || swaps == nil {
		panic("nil store passed to NewSwapHandler")
	}
	return &SwapHandler{Users: users, Events: events, Swaps: swaps, Notifier: notifier}
}

type createSwapReq struct {
	EventID        uint64  `json:"eventId"`
	Reason         string  `json:"reason"`
	PreferredDate  string  `json:"preferredDate"`
	PreferredTime  string  `json:"preferredTime"`
	ContactEmail   string  `json:"contactEmail"`
	OfferedEventID *uint64 `json:"offeredEventId"`
}

type createSwapResp struct {
	RequestID  uint64 `json:"requestId"`
	EventTitle string `json:"eventTitle"`
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`
	Status     string `json:"status"`
	NextSteps  string `json:"nextSteps"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// Create handles POST /v1/swaps.  The requested event does not need
// to be swappable for the lookup to succeed; marketplace visibility
// and requestability are deliberately independent.
func (h *SwapHandler) Create(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createSwapReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if req.EventID == 0 || req.Reason == "" || req.PreferredDate == "" ||
		req.PreferredTime == "" || req.ContactEmail == "" {
		return fail(c, http.StatusBadRequest, "all fields are required")
	}
	if !emailPattern.MatchString(req.ContactEmail) {
		return fail(c, http.StatusBadRequest, "please enter a valid email address")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	requested, err := h.Events.GetDetail(ctx, req.EventID)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return fail(c, http.StatusNotFound, "event not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}

	caller, err := h.Users.GetByID(ctx, callerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusUnauthorized, "unauthorized")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}

	requestType := model.RequestTypeSimple
	if req.OfferedEventID != nil && *req.OfferedEventID != 0 {
		offered, err := h.Events.GetByID(ctx, *req.OfferedEventID)
		if err != nil {
			if err == repository.ErrEventNotFound {
				return fail(c, http.StatusNotFound, "offered event not found")
			}
			return fail(c, http.StatusInternalServerError, "database error")
		}
		if offered.UserID != callerID {
			return fail(c, http.StatusForbidden, "offered event is not yours")
		}
		requestType = model.RequestTypeComplex
	}

	requesterName := caller.Name
	if requesterName == "" {
		// Fall back to the local part of the contact address.
		requesterName = strings.SplitN(req.ContactEmail, "@", 2)[0]
	}

	ownerID := requested.OwnerID
	swap := model.SwapRequest{
		RequestedEventID: req.EventID,
		EventOwnerID:     &ownerID, // snapshot of the owner at creation time
		RequesterID:      &caller.ID,
		OfferedEventID:   req.OfferedEventID,
		Message:          req.Reason,
		PreferredDate:    req.PreferredDate,
		PreferredTime:    req.PreferredTime,
		ContactEmail:     req.ContactEmail,
		RequesterName:    requesterName,
		Status:           model.StatusPending,
		RequestType:      requestType,
	}
	if err := h.Swaps.Create(ctx, &swap); err != nil {
		return fail(c, http.StatusInternalServerError, "create swap request failed")
	}

	h.notify(queue.SwapNotification{
		Kind:           queue.KindSwapRequested,
		RequestID:      swap.ID,
		EventID:        requested.ID,
		EventTitle:     requested.Title,
		Status:         swap.Status,
		RecipientName:  requested.OwnerName,
		RecipientEmail: requested.OwnerEmail,
		RequesterName:  requesterName,
		RequesterEmail: req.ContactEmail,
	})

	return respondMsg(c, http.StatusCreated, createSwapResp{
		RequestID:  swap.ID,
		EventTitle: requested.Title,
		OwnerName:  requested.OwnerName,
		OwnerEmail: requested.OwnerEmail,
		Status:     swap.Status,
		NextSteps:  "The event owner has been notified and will contact you via email to arrange the swap.",
	}, "Swap request submitted successfully!")
}

// Incoming handles GET /v1/swap-requests/incoming: requests targeting
// events the caller owns, newest first.
func (h *SwapHandler) Incoming(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	requests, err := h.Swaps.ListIncoming(ctx, callerID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "fetch incoming requests failed")
	}
	return respond(c, http.StatusOK, requests)
}

// Outgoing handles GET /v1/swap-requests/outgoing: requests the caller
// made, matched by requester reference or by contact email for rows
// created before the caller's identity was attached.
func (h *SwapHandler) Outgoing(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	caller, err := h.Users.GetByID(ctx, callerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusUnauthorized, "unauthorized")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}

	requests, err := h.Swaps.ListOutgoing(ctx, caller.ID, caller.Email)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "fetch outgoing requests failed")
	}
	return respond(c, http.StatusOK, requests)
}

// UpdateStatus handles PATCH /v1/swaps/:id.  Only the owner of the
// requested event may decide, and only a pending request can move;
// the transition itself is a conditional update so concurrent calls
// cannot both win.
func (h *SwapHandler) UpdateStatus(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid request id")
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	own, err := h.Swaps.GetOwnership(ctx, id)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return fail(c, http.StatusNotFound, "swap request not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}

	if !model.ValidDecision(req.Status) {
		return fail(c, http.StatusBadRequest, "invalid status")
	}

	caller, err := h.Users.GetByID(ctx, callerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusUnauthorized, "unauthorized")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}

	// The id match covers all rows written by this server; the email
	// fallback keeps legacy rows decidable until the backfill has
	// resolved them.
	isOwnerByID := own.OwnerID != nil && *own.OwnerID == caller.ID
	isOwnerByEmail := own.OwnerEmail != "" && strings.EqualFold(own.OwnerEmail, caller.Email)
	if !isOwnerByID && !isOwnerByEmail {
		return fail(c, http.StatusForbidden, "not the event owner")
	}

	switch err := h.Swaps.UpdateStatusFromPending(ctx, id, req.Status); err {
	case nil:
	case repository.ErrRequestNotFound:
		return fail(c, http.StatusNotFound, "swap request not found")
	case repository.ErrConflict:
		return fail(c, http.StatusConflict, "request has already been decided")
	default:
		return fail(c, http.StatusInternalServerError, "update status failed")
	}

	det, err := h.Swaps.GetDetail(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load request failed")
	}

	h.notify(queue.SwapNotification{
		Kind:           queue.KindSwapDecided,
		RequestID:      det.ID,
		EventID:        det.EventID,
		EventTitle:     det.EventTitle,
		Status:         det.Status,
		RecipientName:  det.RequesterName,
		RecipientEmail: det.RequesterEmail,
		RequesterName:  det.RequesterName,
		RequesterEmail: det.RequesterEmail,
	})

	return respondMsg(c, http.StatusOK, det, "Request "+det.Status+" successfully")
}

// Get handles GET /v1/swaps/:id, returning a single populated request.
func (h *SwapHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid request id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	det, err := h.Swaps.GetDetail(ctx, id)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return fail(c, http.StatusNotFound, "swap request not found")
		}
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return respond(c, http.StatusOK, det)
}

// notify publishes a notification without letting a broker outage
// affect the request.  Publishing happens on a detached context with
// its own timeout since the HTTP response does not wait for it.
func (h *SwapHandler) notify(n queue.SwapNotification) {
	if h.Notifier == nil {
		return
	}
	n.ID = uuid.NewString()
	n.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Notifier.Publish(ctx, n); err != nil {
			log.Printf("swap: notification publish failed (ignored): %v", err)
		}
	}()
}
