package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/slot-swapper/internal/model"
)

// SwapRequestRepo provides persistence for swap requests: the
// negotiation records between a requester and the owner of a
// swappable event.  A request is inserted as pending and moves to a
// terminal status through a conditional update; every read that feeds
// a response joins the related event and user rows so handlers never
// expose raw foreign keys.
type SwapRequestRepo struct {
	db *sql.DB
}

// NewSwapRequestRepo returns a new SwapRequestRepo bound to the given database.
func NewSwapRequestRepo(db *sql.DB) *SwapRequestRepo { return &SwapRequestRepo{db: db} }

// IncomingRequest is a swap request as seen by the owner of the
// requested event.  The requester's display name and email prefer the
// linked user record over the contact fallback captured at creation.
type IncomingRequest struct {
	ID             uint64     `json:"id"`
	EventTitle     string     `json:"eventTitle"`
	EventTime      *time.Time `json:"eventTime"`
	RequesterID    *uint64    `json:"requesterId,omitempty"`
	RequesterName  string     `json:"requesterName"`
	RequesterEmail string     `json:"requesterEmail"`
	Reason         string     `json:"reason"`
	PreferredDate  string     `json:"preferredDate"`
	PreferredTime  string     `json:"preferredTime"`
	Status         string     `json:"status"`
	RequestType    string     `json:"requestType"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// OutgoingRequest is a swap request as seen by the user who made it.
type OutgoingRequest struct {
	ID            uint64     `json:"id"`
	EventTitle    string     `json:"eventTitle"`
	EventTime     *time.Time `json:"eventTime"`
	OwnerName     string     `json:"ownerName"`
	OwnerEmail    string     `json:"ownerEmail"`
	Reason        string     `json:"reason"`
	PreferredDate string     `json:"preferredDate"`
	PreferredTime string     `json:"preferredTime"`
	Status        string     `json:"status"`
	RequestType   string     `json:"requestType"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// RequestDetail is the fully populated view of a single swap request,
// returned after a status transition and by the single-request lookup.
type RequestDetail struct {
	ID             uint64     `json:"id"`
	EventID        uint64     `json:"eventId"`
	EventTitle     string     `json:"eventTitle"`
	EventStart     *time.Time `json:"eventStartTime"`
	EventEnd       *time.Time `json:"eventEndTime"`
	OwnerName      string     `json:"ownerName"`
	OwnerEmail     string     `json:"ownerEmail"`
	RequesterName  string     `json:"requesterName"`
	RequesterEmail string     `json:"requesterEmail"`
	Reason         string     `json:"reason"`
	PreferredDate  string     `json:"preferredDate"`
	PreferredTime  string     `json:"preferredTime"`
	Status         string     `json:"status"`
	RequestType    string     `json:"requestType"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Ownership carries what the authorization check needs: the owner
// reference snapshotted at creation plus the owner's email.  For
// legacy rows lacking the reference, the stored legacy email is used.
type Ownership struct {
	OwnerID    *uint64
	OwnerEmail string
}

// Create inserts a new swap request and populates the generated ID
// and creation timestamp on the provided model.  The caller is
// responsible for having snapshotted EventOwnerID from the requested
// event beforehand.
func (r *SwapRequestRepo) Create(ctx context.Context, req *model.SwapRequest) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO swap_requests
		 (requested_event_id, event_owner_id, requester_id, offered_event_id,
		  message, preferred_date, preferred_time, contact_email, requester_name,
		  status, request_type)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		req.RequestedEventID, req.EventOwnerID, req.RequesterID, req.OfferedEventID,
		req.Message, req.PreferredDate, req.PreferredTime, req.ContactEmail, req.RequesterName,
		req.Status, req.RequestType)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM swap_requests WHERE id=?",
		req.ID).Scan(&req.CreatedAt, &req.UpdatedAt)
}

// GetOwnership returns the ownership snapshot for a request so the
// handler can authorize a status transition.  The email prefers the
// linked owner account and falls back to the legacy owner_email
// column for rows predating the ownership reference.
// ErrRequestNotFound is returned when the request does not exist.
func (r *SwapRequestRepo) GetOwnership(ctx context.Context, id uint64) (Ownership, error) {
	var (
		own     Ownership
		ownerID sql.NullInt64
		email   sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT sr.event_owner_id, COALESCE(u.email, sr.owner_email)
		 FROM swap_requests sr
		 LEFT JOIN users u ON u.id = sr.event_owner_id
		 WHERE sr.id = ?`,
		id).Scan(&ownerID, &email)
	if err == sql.ErrNoRows {
		return own, ErrRequestNotFound
	}
	if err != nil {
		return own, err
	}
	if ownerID.Valid {
		oid := uint64(ownerID.Int64)
		own.OwnerID = &oid
	}
	if email.Valid {
		own.OwnerEmail = email.String
	}
	return own, nil
}

// UpdateStatusFromPending applies the only legal transition of the
// request state machine: pending to one of the terminal states.  The
// update is conditional on the current status still being pending, so
// two concurrent calls cannot both succeed.  When zero rows are
// affected the row is re-checked: a missing row yields
// ErrRequestNotFound, an existing one ErrConflict (the transition
// already happened).
func (r *SwapRequestRepo) UpdateStatusFromPending(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE swap_requests SET status=? WHERE id=? AND status='pending'",
		status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx,
		"SELECT 1 FROM swap_requests WHERE id=? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// GetDetail returns the fully populated view of a single request.
// ErrRequestNotFound is returned when no such request exists.
func (r *SwapRequestRepo) GetDetail(ctx context.Context, id uint64) (*RequestDetail, error) {
	var (
		det        RequestDetail
		start, end sql.NullTime
		title      sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT sr.id, sr.requested_event_id, e.title, e.start_time, e.end_time,
		        COALESCE(ou.name, ''), COALESCE(ou.email, sr.owner_email, ''),
		        COALESCE(ru.name, sr.requester_name), COALESCE(ru.email, sr.contact_email),
		        sr.message, sr.preferred_date, sr.preferred_time,
		        sr.status, sr.request_type, sr.created_at
		 FROM swap_requests sr
		 LEFT JOIN events e ON e.id = sr.requested_event_id
		 LEFT JOIN users ou ON ou.id = sr.event_owner_id
		 LEFT JOIN users ru ON ru.id = sr.requester_id
		 WHERE sr.id = ?`,
		id).Scan(&det.ID, &det.EventID, &title, &start, &end,
		&det.OwnerName, &det.OwnerEmail,
		&det.RequesterName, &det.RequesterEmail,
		&det.Reason, &det.PreferredDate, &det.PreferredTime,
		&det.Status, &det.RequestType, &det.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if title.Valid {
		det.EventTitle = title.String
	}
	if start.Valid {
		t := start.Time.UTC()
		det.EventStart = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		det.EventEnd = &t
	}
	return &det, nil
}

// ListIncoming returns all requests targeting events owned by the
// given user, newest first.  An empty slice is returned when there
// are none.
func (r *SwapRequestRepo) ListIncoming(ctx context.Context, ownerID uint64) ([]IncomingRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sr.id, COALESCE(e.title, ''), e.start_time,
		        sr.requester_id,
		        COALESCE(ru.name, sr.requester_name), COALESCE(ru.email, sr.contact_email),
		        sr.message, sr.preferred_date, sr.preferred_time,
		        sr.status, sr.request_type, sr.created_at
		 FROM swap_requests sr
		 LEFT JOIN events e ON e.id = sr.requested_event_id
		 LEFT JOIN users ru ON ru.id = sr.requester_id
		 WHERE sr.event_owner_id = ?
		 ORDER BY sr.created_at DESC, sr.id DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]IncomingRequest, 0)
	for rows.Next() {
		var (
			req         IncomingRequest
			start       sql.NullTime
			requesterID sql.NullInt64
		)
		if err := rows.Scan(&req.ID, &req.EventTitle, &start,
			&requesterID, &req.RequesterName, &req.RequesterEmail,
			&req.Reason, &req.PreferredDate, &req.PreferredTime,
			&req.Status, &req.RequestType, &req.CreatedAt); err != nil {
			return nil, err
		}
		if start.Valid {
			t := start.Time.UTC()
			req.EventTime = &t
		}
		if requesterID.Valid {
			rid := uint64(requesterID.Int64)
			req.RequesterID = &rid
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOutgoing returns all requests made by the given user, newest
// first.  The OR on contact_email covers requests made before the
// caller's identity was attached or made anonymously with their
// email; each request is a single row, so the result carries no
// duplicates.
func (r *SwapRequestRepo) ListOutgoing(ctx context.Context, requesterID uint64, email string) ([]OutgoingRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sr.id, COALESCE(e.title, ''), e.start_time,
		        COALESCE(ou.name, ''), COALESCE(ou.email, sr.owner_email, ''),
		        sr.message, sr.preferred_date, sr.preferred_time,
		        sr.status, sr.request_type, sr.created_at
		 FROM swap_requests sr
		 LEFT JOIN events e ON e.id = sr.requested_event_id
		 LEFT JOIN users ou ON ou.id = sr.event_owner_id
		 WHERE sr.requester_id = ? OR sr.contact_email = ?
		 ORDER BY sr.created_at DESC, sr.id DESC`,
		requesterID, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]OutgoingRequest, 0)
	for rows.Next() {
		var (
			req   OutgoingRequest
			start sql.NullTime
		)
		if err := rows.Scan(&req.ID, &req.EventTitle, &start,
			&req.OwnerName, &req.OwnerEmail,
			&req.Reason, &req.PreferredDate, &req.PreferredTime,
			&req.Status, &req.RequestType, &req.CreatedAt); err != nil {
			return nil, err
		}
		if start.Valid {
			t := start.Time.UTC()
			req.EventTime = &t
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
