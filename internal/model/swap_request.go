package model

import "time"

// Swap request status values.  A request is created as pending and
// transitions exactly once into one of the terminal states; terminal
// states are never revived.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Swap request types.  A simple request carries only a reason and the
// requester's preferred date/time; a complex request additionally
// offers one of the requester's own events in exchange.
const (
	RequestTypeSimple  = "simple"
	RequestTypeComplex = "complex"
)

// ValidDecision reports whether s is a legal target for the status
// transition operation.  Only the three terminal states qualify;
// "pending" is the initial state and never a target.
func ValidDecision(s string) bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// SwapRequest is the negotiation entity between a requester and the
// owner of the requested event.  The owner reference is a snapshot
// taken at creation time; it is not updated if the event later
// changes hands.  EventOwnerID is nullable only to accommodate
// legacy rows imported before the ownership reference existed; such
// rows carry OwnerEmail instead and are normalized by a backfill
// migration.
//
// Fields:
//  ID               – primary key identifier.
//  RequestedEventID – event the requester wants.
//  EventOwnerID     – owner of the requested event at creation time.
//  OwnerEmail       – legacy owner email for rows predating EventOwnerID.
//  RequesterID      – user who initiated the request (nullable for
//                     anonymous/email-only requests).
//  OfferedEventID   – event offered in exchange (complex requests only).
//  Message          – the requester's reason, free text.
//  PreferredDate    – requester's preferred date, free-form string.
//  PreferredTime    – requester's preferred time, free-form string.
//  ContactEmail     – fallback contact address of the requester.
//  RequesterName    – fallback display name of the requester.
//  Status           – pending | accepted | rejected | cancelled.
//  RequestType      – simple | complex.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type SwapRequest struct {
	ID               uint64    // swap_requests.id
	RequestedEventID uint64    // swap_requests.requested_event_id
	EventOwnerID     *uint64   // swap_requests.event_owner_id (nullable, legacy rows)
	OwnerEmail       string    // swap_requests.owner_email (legacy fallback)
	RequesterID      *uint64   // swap_requests.requester_id (nullable)
	OfferedEventID   *uint64   // swap_requests.offered_event_id (nullable)
	Message          string    // swap_requests.message
	PreferredDate    string    // swap_requests.preferred_date
	PreferredTime    string    // swap_requests.preferred_time
	ContactEmail     string    // swap_requests.contact_email
	RequesterName    string    // swap_requests.requester_name
	Status           string    // swap_requests.status
	RequestType      string    // swap_requests.request_type
	CreatedAt        time.Time // swap_requests.created_at
	UpdatedAt        time.Time // swap_requests.updated_at
}
