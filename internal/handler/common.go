// Package handler defines the HTTP handlers for the SlotSwapper API.
// Handlers depend on narrow store interfaces rather than concrete
// repositories so tests can substitute in-memory fakes.  Every
// response uses the same envelope: {success, data, message}.
package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-swapper/internal/model"
	"github.com/iliyamo/slot-swapper/internal/repository"
)

// UserStore is the slice of user persistence the handlers need.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists and validates refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// EventStore is the event persistence surface used by handlers.
type EventStore interface {
	Create(ctx context.Context, ev *model.Event) error
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	GetDetail(ctx context.Context, id uint64) (*repository.EventDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Event, error)
	ListSwappable(ctx context.Context) ([]repository.EventDetail, error)
	ToggleSwappable(ctx context.Context, id uint64) (model.Event, error)
	Delete(ctx context.Context, id, ownerID uint64) error
}

// SwapStore is the swap-request persistence surface used by handlers.
type SwapStore interface {
	Create(ctx context.Context, req *model.SwapRequest) error
	GetOwnership(ctx context.Context, id uint64) (repository.Ownership, error)
	UpdateStatusFromPending(ctx context.Context, id uint64, status string) error
	GetDetail(ctx context.Context, id uint64) (*repository.RequestDetail, error)
	ListIncoming(ctx context.Context, ownerID uint64) ([]repository.IncomingRequest, error)
	ListOutgoing(ctx context.Context, requesterID uint64, email string) ([]repository.OutgoingRequest, error)
}

// envelope is the uniform response body.  Data is omitted on errors
// and Message on plain data responses; list endpoints always carry a
// non-nil Data so clients can tell an empty list from a failure.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// respond writes a success envelope with the given payload.
func respond(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, envelope{Success: true, Data: data})
}

// respondMsg writes a success envelope with payload and message.
func respondMsg(c echo.Context, code int, data interface{}, msg string) error {
	return c.JSON(code, envelope{Success: true, Data: data, Message: msg})
}

// fail writes an error envelope.
func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, envelope{Success: false, Message: msg})
}

// getUserID extracts the user_id stored by the JWT middleware and
// converts it to uint64.  JWT numeric claims decode as float64; the
// other branches cover values set directly in tests.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// dbTimeout bounds every database round trip issued from a handler.
const dbTimeout = 5 * time.Second
