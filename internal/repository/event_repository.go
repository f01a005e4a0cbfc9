package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/slot-swapper/internal/model"
)

// EventRepo provides CRUD operations for events.  An event is a time
// slot owned by a single user; its swappable flag controls whether it
// appears in the marketplace listing.  All timestamps are stored in
// UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventDetail joins an event with its owner's display information.
// It is the shape returned by the marketplace listing and single-event
// lookups, where the caller needs to know who to negotiate with.
type EventDetail struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Swappable  bool      `json:"swappable"`
	OwnerID    uint64    `json:"ownerId"`
	OwnerName  string    `json:"ownerName"`
	OwnerEmail string    `json:"ownerEmail"`
}

// Create inserts a new event and populates the generated ID and
// timestamps on the provided model.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO events (user_id, title, start_time, end_time, swappable, description) VALUES (?,?,?,?,?,?)",
		ev.UserID, ev.Title, ev.StartTime.UTC(), ev.EndTime.UTC(), ev.Swappable, ev.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	// Query back the row to pick up DB-side defaults and timestamps.
	return r.db.QueryRowContext(ctx,
		"SELECT swappable, created_at, updated_at FROM events WHERE id=?",
		ev.ID).Scan(&ev.Swappable, &ev.CreatedAt, &ev.UpdatedAt)
}

// GetByID returns a single event row.  ErrEventNotFound is returned
// when no event with the given ID exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var ev model.Event
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, start_time, end_time, swappable, description, created_at, updated_at
		 FROM events WHERE id=? LIMIT 1`,
		id).Scan(&ev.ID, &ev.UserID, &ev.Title, &ev.StartTime, &ev.EndTime, &ev.Swappable,
		&ev.Description, &ev.CreatedAt, &ev.UpdatedAt)
	if err == sql.ErrNoRows {
		return ev, ErrEventNotFound
	}
	return ev, err
}

// GetDetail returns an event joined with its owner's name and email.
// It is used when shaping swap responses and the single-event view.
func (r *EventRepo) GetDetail(ctx context.Context, id uint64) (*EventDetail, error) {
	var det EventDetail
	err := r.db.QueryRowContext(ctx,
		`SELECT e.id, e.title, e.start_time, e.end_time, e.swappable, u.id, u.name, u.email
		 FROM events e
		 JOIN users u ON u.id = e.user_id
		 WHERE e.id = ?`,
		id).Scan(&det.ID, &det.Title, &det.StartTime, &det.EndTime, &det.Swappable,
		&det.OwnerID, &det.OwnerName, &det.OwnerEmail)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &det, nil
}

// ListByUser returns all events owned by the given user, earliest
// first.  An empty slice is returned when the user has no events.
func (r *EventRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, start_time, end_time, swappable, description, created_at, updated_at
		 FROM events WHERE user_id=? ORDER BY start_time ASC, id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Title, &ev.StartTime, &ev.EndTime,
			&ev.Swappable, &ev.Description, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ListSwappable returns the marketplace: every event whose swappable
// flag is set, joined with its owner, sorted by start time ascending.
// No pagination or caller exclusion is applied; an owner sees their
// own swappable events listed too.
func (r *EventRepo) ListSwappable(ctx context.Context) ([]EventDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.title, e.start_time, e.end_time, e.swappable, u.id, u.name, u.email
		 FROM events e
		 JOIN users u ON u.id = e.user_id
		 WHERE e.swappable = 1
		 ORDER BY e.start_time ASC, e.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventDetail, 0)
	for rows.Next() {
		var det EventDetail
		if err := rows.Scan(&det.ID, &det.Title, &det.StartTime, &det.EndTime, &det.Swappable,
			&det.OwnerID, &det.OwnerName, &det.OwnerEmail); err != nil {
			return nil, err
		}
		out = append(out, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleSwappable flips the swappable flag of the event and returns
// the updated row.  ErrEventNotFound is returned when no row was
// affected.  The flip happens in a single statement so two concurrent
// toggles interleave as two flips rather than a lost update.
func (r *EventRepo) ToggleSwappable(ctx context.Context, id uint64) (model.Event, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE events SET swappable = NOT swappable WHERE id=?", id)
	if err != nil {
		return model.Event{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports zero affected rows both for a missing row and
		// for a no-op update; NOT swappable always changes the value,
		// so zero means the row does not exist.
		return model.Event{}, ErrEventNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes an event owned by the given user.  ErrEventNotFound
// is returned when the event does not exist and ErrForbidden when it
// belongs to someone else.
func (r *EventRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM events WHERE id=? AND user_id=?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Distinguish missing from not owned for the 404/403 split.
	var exists int
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id=? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	return ErrForbidden
}
