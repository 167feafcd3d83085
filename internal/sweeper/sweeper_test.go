package sweeper

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/NorthLot-Market/Verdict/internal/signal"
	"github.com/NorthLot-Market/Verdict/internal/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateDecision(ctx context.Context, rec *store.DecisionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) GetDecision(ctx context.Context, id uuid.UUID) (*store.DecisionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.DecisionRecord), args.Error(1)
}

func (m *MockStore) ListDecisions(ctx context.Context, filter store.DecisionFilter) ([]*store.DecisionRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.DecisionRecord), args.Error(1)
}

func (m *MockStore) UpdateDecisionStatus(ctx context.Context, id uuid.UUID, status store.DecisionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) CreateDecisionEvent(ctx context.Context, event *store.DecisionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStore) GetDecisionEvents(ctx context.Context, decisionID uuid.UUID) ([]*store.DecisionEvent, error) {
	args := m.Called(ctx, decisionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.DecisionEvent), args.Error(1)
}

func (m *MockStore) GetStaleFlagged(ctx context.Context, cutoff time.Time) ([]*store.DecisionRecord, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.DecisionRecord), args.Error(1)
}

func (m *MockStore) GetStats(ctx context.Context) (*store.DecisionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.DecisionStats), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

// capturingClient records published subjects for assertions.
type capturingClient struct {
	mu       sync.Mutex
	subjects []string
}

func (c *capturingClient) Publish(subject string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects = append(c.subjects, subject)
	return nil
}

func (c *capturingClient) Subscribe(string, func(string, []byte)) error { return nil }
func (c *capturingClient) Close()                                       {}

func (c *capturingClient) published() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.subjects))
	copy(out, c.subjects)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExpireStaleTransitionsFlaggedDecisions(t *testing.T) {
	ms := new(MockStore)
	ev := &capturingClient{}

	stale := &store.DecisionRecord{
		ID:        uuid.New(),
		Domain:    signal.DomainFraud,
		Status:    store.StatusFlagged,
		CreatedAt: time.Now().Add(-100 * time.Hour),
	}
	ms.On("GetStaleFlagged", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*store.DecisionRecord{stale}, nil)
	ms.On("UpdateDecisionStatus", mock.Anything, stale.ID, store.StatusExpired).Return(nil)
	ms.On("CreateDecisionEvent", mock.Anything, mock.AnythingOfType("*store.DecisionEvent")).Return(nil)

	sw := New(ms, ev, time.Minute, 72*time.Hour, testLogger())
	sw.expireStale(context.Background())

	ms.AssertCalled(t, "UpdateDecisionStatus", mock.Anything, stale.ID, store.StatusExpired)
	ms.AssertCalled(t, "CreateDecisionEvent", mock.Anything, mock.AnythingOfType("*store.DecisionEvent"))
	assert.Len(t, ev.published(), 1)
	assert.Contains(t, ev.published()[0], stale.ID.String())
}

func TestExpireStaleNothingToDo(t *testing.T) {
	ms := new(MockStore)
	ev := &capturingClient{}
	ms.On("GetStaleFlagged", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*store.DecisionRecord{}, nil)

	sw := New(ms, ev, time.Minute, 72*time.Hour, testLogger())
	sw.expireStale(context.Background())

	ms.AssertNotCalled(t, "UpdateDecisionStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, ev.published())
}

func TestExpireStaleUsesReviewWindowCutoff(t *testing.T) {
	ms := new(MockStore)
	window := 48 * time.Hour
	ms.On("GetStaleFlagged", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		expected := time.Now().Add(-window)
		return cutoff.Sub(expected).Abs() < time.Second
	})).Return([]*store.DecisionRecord{}, nil)

	sw := New(ms, &capturingClient{}, time.Minute, window, testLogger())
	sw.expireStale(context.Background())

	ms.AssertExpectations(t)
}

func TestPublishStats(t *testing.T) {
	ms := new(MockStore)
	ev := &capturingClient{}
	ms.On("GetStats", mock.Anything).Return(&store.DecisionStats{
		TotalByDomain: map[string]int{"fraud": 3, "pricing": 1},
		TotalFlagged:  2,
		AvgConfidence: 74.5,
	}, nil)

	sw := New(ms, ev, time.Minute, 72*time.Hour, testLogger())
	sw.publishStats(context.Background())

	assert.Equal(t, []string{"verdict.stats"}, ev.published())
}

func TestStartStop(t *testing.T) {
	ms := new(MockStore)
	ms.On("GetStaleFlagged", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*store.DecisionRecord{}, nil)
	ms.On("GetStats", mock.Anything).Return(&store.DecisionStats{}, nil)

	sw := New(ms, &capturingClient{}, 10*time.Millisecond, time.Hour, testLogger())
	sw.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	sw.Stop()
	// Stop is idempotent
	sw.Stop()
}
