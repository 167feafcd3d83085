package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/NorthLot-Market/Verdict/internal/engine"
	"github.com/NorthLot-Market/Verdict/internal/events"
	"github.com/NorthLot-Market/Verdict/internal/signal"
	"github.com/NorthLot-Market/Verdict/internal/store"
)

// MockStore implements store.Store for handler tests
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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, s store.Store, adminToken string) http.Handler {
	t.Helper()
	eng, err := engine.New(engine.DefaultProfiles(), engine.DefaultConfig(),
		engine.FixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)), testLogger())
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	return NewRouter(s, events.NoopClient{}, nil, eng, nil, adminToken, 120, testLogger())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func clientHeaders() map[string]string {
	return map[string]string{"X-Client-ID": "tester"}
}

func TestScoreFraudEndpoint(t *testing.T) {
	ms := new(MockStore)
	ms.On("CreateDecision", mock.Anything, mock.AnythingOfType("*store.DecisionRecord")).Return(nil)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "POST", "/api/v1/score/fraud", map[string]interface{}{
		"user": map[string]interface{}{"id": "u1", "ads_last_24h": 7},
	}, clientHeaders())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp DecisionResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, signal.DomainFraud, resp.Decision.Domain)
	assert.Equal(t, 35.0, resp.Decision.Score)
	assert.Equal(t, "low", resp.Decision.Label)
	ms.AssertCalled(t, "CreateDecision", mock.Anything, mock.AnythingOfType("*store.DecisionRecord"))
}

func TestScoreFraudRejectsEmptyBundle(t *testing.T) {
	ms := new(MockStore)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "POST", "/api/v1/score/fraud", map[string]interface{}{}, clientHeaders())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoringRequiresClientID(t *testing.T) {
	ms := new(MockStore)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "POST", "/api/v1/score/fraud", map[string]interface{}{
		"user": map[string]interface{}{"id": "u1"},
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScoreDuplicateEndpoint(t *testing.T) {
	ms := new(MockStore)
	ms.On("CreateDecision", mock.Anything, mock.AnythingOfType("*store.DecisionRecord")).Return(nil)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "POST", "/api/v1/score/duplicate", map[string]interface{}{
		"ad": map[string]interface{}{
			"id": "a1", "title": "Trek Marlin 7 mountain bike 2023",
			"price": 650, "category": "bikes", "location": "Leeds",
		},
		"pool": []map[string]interface{}{
			{
				"id": "a2", "title": "Trek Marlin 7 mountain bike 2023",
				"price": 660, "category": "bikes", "location": "Leeds",
			},
		},
	}, clientHeaders())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp DuplicateScoreResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Matches, 1)
	assert.Equal(t, "a2", resp.Matches[0].OtherID)
	assert.GreaterOrEqual(t, resp.Matches[0].Decision.Score, 80.0)
}

func TestPriceRecommendEndpoint(t *testing.T) {
	ms := new(MockStore)
	ms.On("CreateDecision", mock.Anything, mock.AnythingOfType("*store.DecisionRecord")).Return(nil)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "POST", "/api/v1/price/recommend", map[string]interface{}{
		"ad": map[string]interface{}{
			"id": "a1", "title": "Sony headphones", "price": 220, "condition": "new", "image_count": 4,
		},
		"snapshot": map[string]interface{}{
			"avg_price": 240, "min_price": 180, "max_price": 310,
			"comparables": []map[string]interface{}{{"id": "c1", "price": 230}},
		},
	}, clientHeaders())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp DecisionResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, signal.DomainPricing, resp.Decision.Domain)
	assert.Greater(t, resp.Decision.Score, 240.0)
}

func TestPredictSuccessEndpointWithEstimates(t *testing.T) {
	ms := new(MockStore)
	ms.On("CreateDecision", mock.Anything, mock.AnythingOfType("*store.DecisionRecord")).Return(nil)

	eng, err := engine.New(engine.DefaultProfiles(), engine.DefaultConfig(), engine.SystemClock(), testLogger())
	assert.NoError(t, err)
	est := engine.NewEstimator(rand.NewSource(7))
	router := NewRouter(ms, events.NoopClient{}, nil, eng, est, "", 120, testLogger())

	w := doJSON(t, router, "POST", "/api/v1/predict/success", map[string]interface{}{
		"ad": map[string]interface{}{
			"id": "a1", "title": "IKEA Billy bookcase, white", "description": "Good condition",
			"price": 25, "image_count": 3,
		},
		"include_estimates": true,
	}, clientHeaders())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp SuccessPredictResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.GreaterOrEqual(t, resp.Decision.Score, 0.0)
	assert.LessOrEqual(t, resp.Decision.Score, 1.0)
	assert.NotNil(t, resp.Estimates)
}

func TestDisputeResolveEndpoint(t *testing.T) {
	ms := new(MockStore)
	ms.On("CreateDecision", mock.Anything, mock.AnythingOfType("*store.DecisionRecord")).Return(nil)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "POST", "/api/v1/dispute/resolve", map[string]interface{}{
		"dispute_type": "item_not_received",
		"evidence":     []map[string]interface{}{{"type": "receipt"}},
		"transaction": map[string]interface{}{
			"payment_method": "escrow", "shipping_days": 25, "amount": 120, "market_value": 115,
		},
		"history": map[string]interface{}{
			"positive_feedback": 48, "negative_feedback": 2, "prior_transactions": 50, "prior_disputes": 1,
		},
	}, clientHeaders())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp DecisionResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, signal.DomainDispute, resp.Decision.Domain)
	assert.GreaterOrEqual(t, resp.Decision.Score, 0.0)
	assert.LessOrEqual(t, resp.Decision.Score, 1.0)
	assert.NotEmpty(t, resp.Decision.Label)
}

func TestGetDecisionNotFound(t *testing.T) {
	ms := new(MockStore)
	id := uuid.New()
	ms.On("GetDecision", mock.Anything, id).Return(nil, nil)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "GET", "/api/v1/decisions/"+id.String(), nil, clientHeaders())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDecisionInvalidID(t *testing.T) {
	ms := new(MockStore)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "GET", "/api/v1/decisions/not-a-uuid", nil, clientHeaders())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatusConfirmsFlaggedDecision(t *testing.T) {
	ms := new(MockStore)
	id := uuid.New()
	rec := &store.DecisionRecord{ID: id, Domain: signal.DomainFraud, Status: store.StatusFlagged}
	ms.On("GetDecision", mock.Anything, id).Return(rec, nil)
	ms.On("UpdateDecisionStatus", mock.Anything, id, store.StatusConfirmed).Return(nil)
	ms.On("CreateDecisionEvent", mock.Anything, mock.AnythingOfType("*store.DecisionEvent")).Return(nil)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "POST", "/api/v1/decisions/"+id.String()+"/status", map[string]interface{}{
		"status": "confirmed",
		"reason": "verified manually",
	}, clientHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	ms.AssertCalled(t, "UpdateDecisionStatus", mock.Anything, id, store.StatusConfirmed)
	ms.AssertCalled(t, "CreateDecisionEvent", mock.Anything, mock.AnythingOfType("*store.DecisionEvent"))
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	ms := new(MockStore)
	id := uuid.New()
	rec := &store.DecisionRecord{ID: id, Domain: signal.DomainPricing, Status: store.StatusRecorded}
	ms.On("GetDecision", mock.Anything, id).Return(rec, nil)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "POST", "/api/v1/decisions/"+id.String()+"/status", map[string]interface{}{
		"status": "confirmed",
	}, clientHeaders())

	assert.Equal(t, http.StatusConflict, w.Code)
	ms.AssertNotCalled(t, "UpdateDecisionStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestListDecisionsFilters(t *testing.T) {
	ms := new(MockStore)
	ms.On("ListDecisions", mock.Anything, mock.MatchedBy(func(f store.DecisionFilter) bool {
		return f.Domain != nil && *f.Domain == signal.DomainFraud && f.Limit == 10
	})).Return([]*store.DecisionRecord{}, nil)
	router := newTestRouter(t, ms, "")

	w := doJSON(t, router, "GET", "/api/v1/decisions?domain=fraud&limit=10", nil, clientHeaders())
	assert.Equal(t, http.StatusOK, w.Code)
	ms.AssertExpectations(t)
}

func TestAdminStatsRequiresToken(t *testing.T) {
	ms := new(MockStore)
	ms.On("GetStats", mock.Anything).Return(&store.DecisionStats{TotalByDomain: map[string]int{"fraud": 2}}, nil)
	router := newTestRouter(t, ms, "secret")

	w := doJSON(t, router, "GET", "/api/v1/stats", nil, clientHeaders())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	headers := clientHeaders()
	headers["Authorization"] = "Bearer secret"
	w = doJSON(t, router, "GET", "/api/v1/stats", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsRouterHealth(t *testing.T) {
	router := NewMetricsRouter()
	w := doJSON(t, router, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
