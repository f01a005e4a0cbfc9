// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationQueueName is the durable queue carrying swap notifications.
const NotificationQueueName = "swap.notifications"

// Notification kinds.
const (
	KindSwapRequested = "swap.requested"
	KindSwapDecided   = "swap.decided"
)

// SwapNotification is published when a swap request is created or
// decided.  It carries enough information for downstream consumers to
// notify the affected party without querying the primary database.
// For KindSwapRequested the recipient is the event owner; for
// KindSwapDecided it is the requester.
type SwapNotification struct {
	ID             string `json:"id"` // unique notification id (uuid)
	Kind           string `json:"kind"`
	RequestID      uint64 `json:"request_id"`
	EventID        uint64 `json:"event_id"`
	EventTitle     string `json:"event_title"`
	Status         string `json:"status"`
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	OccurredAt     string `json:"occurred_at"`
}
