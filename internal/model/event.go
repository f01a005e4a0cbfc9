package model

import "time"

// Event represents a schedulable time slot owned by a single user.
// Events form the inventory of the swap marketplace: an event whose
// Swappable flag is set appears in the swappable listing and may be
// the target of swap requests.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the event.
//  Title       – human readable title of the slot.
//  StartTime   – when the slot begins.
//  EndTime     – when the slot ends (must be after StartTime).
//  Swappable   – whether the event is visible in the marketplace.
//  Description – optional free text.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64    // events.id
	UserID      uint64    // events.user_id
	Title       string    // events.title
	StartTime   time.Time // events.start_time
	EndTime     time.Time // events.end_time
	Swappable   bool      // events.swappable
	Description string    // events.description
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}
