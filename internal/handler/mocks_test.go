package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-swapper/internal/model"
	"github.com/iliyamo/slot-swapper/internal/queue"
	"github.com/iliyamo/slot-swapper/internal/repository"
)

// --- mock stores ---

type mockUserStore struct {
	createFn     func(ctx context.Context, name, email, password string, cost int) (uint64, error)
	getByEmailFn func(ctx context.Context, email string) (model.User, error)
	getByIDFn    func(ctx context.Context, id uint64) (model.User, error)
}

func (m *mockUserStore) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, email, password, cost)
	}
	return 1, nil
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return model.User{}, sql.ErrNoRows
}

func (m *mockUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return model.User{ID: id, Name: "Test User", Email: "user@example.com"}, nil
}

type mockTokenStore struct {
	storeFn     func(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	validateFn  func(ctx context.Context, tokenHash string) (uint64, error)
	revokeFn    func(ctx context.Context, tokenHash string) error
	revokeAllFn func(ctx context.Context, userID uint64) error
}

func (m *mockTokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	if m.storeFn != nil {
		return m.storeFn(ctx, userID, tokenHash, exp)
	}
	return nil
}

func (m *mockTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, tokenHash)
	}
	return 0, sql.ErrNoRows
}

func (m *mockTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, tokenHash)
	}
	return nil
}

func (m *mockTokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	if m.revokeAllFn != nil {
		return m.revokeAllFn(ctx, userID)
	}
	return nil
}

type mockEventStore struct {
	createFn        func(ctx context.Context, ev *model.Event) error
	getByIDFn       func(ctx context.Context, id uint64) (model.Event, error)
	getDetailFn     func(ctx context.Context, id uint64) (*repository.EventDetail, error)
	listByUserFn    func(ctx context.Context, userID uint64) ([]model.Event, error)
	listSwappableFn func(ctx context.Context) ([]repository.EventDetail, error)
	toggleFn        func(ctx context.Context, id uint64) (model.Event, error)
	deleteFn        func(ctx context.Context, id, ownerID uint64) error
}

func (m *mockEventStore) Create(ctx context.Context, ev *model.Event) error {
	if m.createFn != nil {
		return m.createFn(ctx, ev)
	}
	ev.ID = 1
	ev.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockEventStore) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return model.Event{}, repository.ErrEventNotFound
}

func (m *mockEventStore) GetDetail(ctx context.Context, id uint64) (*repository.EventDetail, error) {
	if m.getDetailFn != nil {
		return m.getDetailFn(ctx, id)
	}
	return nil, repository.ErrEventNotFound
}

func (m *mockEventStore) ListByUser(ctx context.Context, userID uint64) ([]model.Event, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return []model.Event{}, nil
}

func (m *mockEventStore) ListSwappable(ctx context.Context) ([]repository.EventDetail, error) {
	if m.listSwappableFn != nil {
		return m.listSwappableFn(ctx)
	}
	return []repository.EventDetail{}, nil
}

func (m *mockEventStore) ToggleSwappable(ctx context.Context, id uint64) (model.Event, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, id)
	}
	return model.Event{}, repository.ErrEventNotFound
}

func (m *mockEventStore) Delete(ctx context.Context, id, ownerID uint64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, ownerID)
	}
	return repository.ErrEventNotFound
}

type mockSwapStore struct {
	createFn       func(ctx context.Context, req *model.SwapRequest) error
	getOwnershipFn func(ctx context.Context, id uint64) (repository.Ownership, error)
	updateFn       func(ctx context.Context, id uint64, status string) error
	getDetailFn    func(ctx context.Context, id uint64) (*repository.RequestDetail, error)
	listIncomingFn func(ctx context.Context, ownerID uint64) ([]repository.IncomingRequest, error)
	listOutgoingFn func(ctx context.Context, requesterID uint64, email string) ([]repository.OutgoingRequest, error)
}

func (m *mockSwapStore) Create(ctx context.Context, req *model.SwapRequest) error {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	req.ID = 1
	req.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockSwapStore) GetOwnership(ctx context.Context, id uint64) (repository.Ownership, error) {
	if m.getOwnershipFn != nil {
		return m.getOwnershipFn(ctx, id)
	}
	return repository.Ownership{}, repository.ErrRequestNotFound
}

func (m *mockSwapStore) UpdateStatusFromPending(ctx context.Context, id uint64, status string) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, status)
	}
	return repository.ErrRequestNotFound
}

func (m *mockSwapStore) GetDetail(ctx context.Context, id uint64) (*repository.RequestDetail, error) {
	if m.getDetailFn != nil {
		return m.getDetailFn(ctx, id)
	}
	return nil, repository.ErrRequestNotFound
}

func (m *mockSwapStore) ListIncoming(ctx context.Context, ownerID uint64) ([]repository.IncomingRequest, error) {
	if m.listIncomingFn != nil {
		return m.listIncomingFn(ctx, ownerID)
	}
	return []repository.IncomingRequest{}, nil
}

func (m *mockSwapStore) ListOutgoing(ctx context.Context, requesterID uint64, email string) ([]repository.OutgoingRequest, error) {
	if m.listOutgoingFn != nil {
		return m.listOutgoingFn(ctx, requesterID, email)
	}
	return []repository.OutgoingRequest{}, nil
}

// recordingNotifier captures published notifications.  Done is
// signalled once per publish because handlers publish from a
// goroutine.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []queue.SwapNotification
	done chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 8)}
}

func (r *recordingNotifier) Publish(_ context.Context, n queue.SwapNotification) error {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingNotifier) wait(t *testing.T) queue.SwapNotification {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

// --- compile-time interface checks ---
var _ UserStore = (*mockUserStore)(nil)
var _ TokenStore = (*mockTokenStore)(nil)
var _ EventStore = (*mockEventStore)(nil)
var _ SwapStore = (*mockSwapStore)(nil)

// --- request helpers ---

// newTestCtx builds an echo context carrying a JSON body.  The caller
// id is attached the way the auth middleware would; pass 0 for an
// unauthenticated request.
func newTestCtx(t *testing.T, method, target, body string, callerID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if callerID != 0 {
		c.Set("user_id", callerID)
	}
	return c, rec
}

// decodeEnvelope unmarshals the uniform response body.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, json.RawMessage, string) {
	t.Helper()
	var out struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return out.Success, out.Data, out.Message
}
