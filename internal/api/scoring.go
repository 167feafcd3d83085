package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/NorthLot-Market/Verdict/internal/engine"
	"github.com/NorthLot-Market/Verdict/internal/events"
	"github.com/NorthLot-Market/Verdict/internal/market"
	"github.com/NorthLot-Market/Verdict/internal/signal"
	"github.com/NorthLot-Market/Verdict/internal/store"
)

type ScoringHandler struct {
	store     store.Store
	events    events.Client
	market    market.Provider
	engine    *engine.Engine
	estimator *engine.Estimator
	logger    *slog.Logger
}

func NewScoringHandler(s store.Store, ev events.Client, mk market.Provider, eng *engine.Engine, est *engine.Estimator, logger *slog.Logger) *ScoringHandler {
	return &ScoringHandler{store: s, events: ev, market: mk, engine: eng, estimator: est, logger: logger}
}

type FraudScoreRequest struct {
	User    *engine.User    `json:"user,omitempty"`
	Ad      *market.Ad      `json:"ad,omitempty"`
	Payment *engine.Payment `json:"payment,omitempty"`
}

// Fraud scores a user/ad/payment bundle for fraud risk.
// POST /api/v1/score/fraud
func (h *ScoringHandler) Fraud(w http.ResponseWriter, r *http.Request) {
	var req FraudScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start := time.Now()
	dec, err := h.engine.ScoreFraud(r.Context(), engine.FraudRequest{
		User:    req.User,
		Ad:      req.Ad,
		Payment: req.Payment,
	})
	scoringDuration.WithLabelValues(string(signal.DomainFraud)).Observe(time.Since(start).Seconds())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	subjectID := ""
	if req.User != nil {
		subjectID = req.User.ID
	} else if req.Ad != nil {
		subjectID = req.Ad.ID
	}
	rec := h.persist(r, dec, subjectID, "")
	if rec != nil && (dec.Label == "critical" || dec.Label == "high") {
		_ = h.events.Publish(events.SubjectFraudFlagged(subjectID), events.FraudFlaggedEvent{
			DecisionID: rec.ID.String(),
			SubjectID:  subjectID,
			Score:      dec.Score,
			Severity:   dec.Label,
			Rationale:  dec.Rationale,
		})
	}

	writeDecision(w, dec, rec)
}

type DuplicateScoreRequest struct {
	Ad   market.Ad   `json:"ad"`
	Pool []market.Ad `json:"pool,omitempty"`
}

type DuplicateScoreResponse struct {
	AdID    string           `json:"ad_id"`
	Matches []DuplicateMatch `json:"matches"`
}

type DuplicateMatch struct {
	OtherID    string          `json:"other_id"`
	DecisionID string          `json:"decision_id,omitempty"`
	Decision   signal.Decision `json:"decision"`
}

// Duplicate checks an ad against a pool of candidates. When the caller
// supplies no pool, candidates come from the market provider.
// POST /api/v1/score/duplicate
func (h *ScoringHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	var req DuplicateScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	pool := req.Pool
	if len(pool) == 0 && h.market != nil {
		fetched, err := h.market.Candidates(r.Context(), req.Ad.Category, req.Ad.Location)
		if err != nil {
			h.logger.Warn("candidate fetch failed", "error", err)
		} else {
			pool = fetched
		}
	}

	start := time.Now()
	matches, err := h.engine.ScoreDuplicate(r.Context(), req.Ad, pool)
	scoringDuration.WithLabelValues(string(signal.DomainDuplicate)).Observe(time.Since(start).Seconds())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := DuplicateScoreResponse{AdID: req.Ad.ID, Matches: []DuplicateMatch{}}
	for _, m := range matches {
		rec := h.persist(r, m.Decision, req.Ad.ID, m.OtherID)
		out := DuplicateMatch{OtherID: m.OtherID, Decision: m.Decision}
		if rec != nil {
			out.DecisionID = rec.ID.String()
			_ = h.events.Publish(events.SubjectDuplicateFlagged(req.Ad.ID), events.DuplicateFlaggedEvent{
				DecisionID: rec.ID.String(),
				AdID:       req.Ad.ID,
				OtherAdID:  m.OtherID,
				Similarity: m.Decision.Score,
				Label:      m.Decision.Label,
			})
		}
		resp.Matches = append(resp.Matches, out)
	}

	writeJSON(w, http.StatusOK, resp)
}

type PriceRecommendRequest struct {
	Ad       market.Ad        `json:"ad"`
	Snapshot *market.Snapshot `json:"snapshot,omitempty"`
}

// Price recommends a listing price from market comparables.
// POST /api/v1/price/recommend
func (h *ScoringHandler) Price(w http.ResponseWriter, r *http.Request) {
	var req PriceRecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	snap := market.Snapshot{}
	if req.Snapshot != nil {
		snap = *req.Snapshot
	} else if h.market != nil {
		fetched, err := h.market.Snapshot(r.Context(), req.Ad.Category, req.Ad.Location, req.Ad.Condition)
		if err != nil {
			h.logger.Warn("market snapshot failed", "error", err)
		} else if fetched != nil {
			snap = *fetched
		}
	}

	start := time.Now()
	dec, err := h.engine.RecommendPrice(r.Context(), req.Ad, snap)
	scoringDuration.WithLabelValues(string(signal.DomainPricing)).Observe(time.Since(start).Seconds())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	rec := h.persist(r, dec, req.Ad.ID, "")
	writeDecision(w, dec, rec)
}

type SuccessPredictRequest struct {
	Ad               market.Ad   `json:"ad"`
	Pool             []market.Ad `json:"pool,omitempty"`
	IncludeEstimates bool        `json:"include_estimates,omitempty"`
}

type SuccessPredictResponse struct {
	DecisionID string                   `json:"decision_id,omitempty"`
	Decision   signal.Decision          `json:"decision"`
	Estimates  *engine.PredictedMetrics `json:"estimates,omitempty"`
}

// Success predicts the probability that a listing sells.
// POST /api/v1/predict/success
func (h *ScoringHandler) Success(w http.ResponseWriter, r *http.Request) {
	var req SuccessPredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	pool := req.Pool
	if len(pool) == 0 && h.market != nil {
		fetched, err := h.market.Candidates(r.Context(), req.Ad.Category, req.Ad.Location)
		if err != nil {
			h.logger.Warn("candidate fetch failed", "error", err)
		} else {
			pool = fetched
		}
	}

	start := time.Now()
	dec, err := h.engine.PredictSuccess(r.Context(), req.Ad, pool)
	scoringDuration.WithLabelValues(string(signal.DomainSuccess)).Observe(time.Since(start).Seconds())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	rec := h.persist(r, dec, req.Ad.ID, "")
	resp := SuccessPredictResponse{Decision: dec}
	if rec != nil {
		resp.DecisionID = rec.ID.String()
	}
	if req.IncludeEstimates && h.estimator != nil {
		m := h.estimator.Estimate(req.Ad, dec.Score)
		resp.Estimates = &m
	}

	writeJSON(w, http.StatusOK, resp)
}

type DisputeResolveRequest struct {
	DisputeType string                `json:"dispute_type"`
	Evidence    []engine.EvidenceItem `json:"evidence,omitempty"`
	Transaction engine.TxnDetails     `json:"transaction"`
	History     engine.UserHistory    `json:"history"`
	DisputeID   string                `json:"dispute_id,omitempty"`
}

// Dispute resolves an escrow dispute toward refund or release.
// POST /api/v1/dispute/resolve
func (h *ScoringHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	var req DisputeResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start := time.Now()
	dec, err := h.engine.ResolveDispute(r.Context(), engine.DisputeRequest{
		Evidence:    req.Evidence,
		Transaction: req.Transaction,
		History:     req.History,
		DisputeType: req.DisputeType,
	})
	scoringDuration.WithLabelValues(string(signal.DomainDispute)).Observe(time.Since(start).Seconds())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	rec := h.persist(r, dec, req.DisputeID, "")
	writeDecision(w, dec, rec)
}

// persist stores the decision and publishes its created event. Persistence
// failures are logged and the scoring response still returned; the score
// itself is the contract.
func (h *ScoringHandler) persist(r *http.Request, dec signal.Decision, subjectID, compareID string) *store.DecisionRecord {
	rec := store.FromDecision(dec, subjectID, compareID, r.Header.Get("X-Client-ID"))
	if err := h.store.CreateDecision(r.Context(), rec); err != nil {
		h.logger.Error("persist decision failed", "domain", dec.Domain, "error", err)
		return nil
	}
	decisionsTotal.WithLabelValues(string(dec.Domain), dec.Label).Inc()
	_ = h.events.Publish(events.SubjectDecisionCreated(string(dec.Domain), rec.ID.String()), events.DecisionCreatedEvent{
		DecisionID: rec.ID.String(),
		Domain:     string(dec.Domain),
		SubjectID:  subjectID,
		CompareID:  compareID,
		Score:      dec.Score,
		Label:      dec.Label,
		Confidence: dec.Confidence,
	})
	return rec
}

type DecisionResponse struct {
	DecisionID string          `json:"decision_id,omitempty"`
	Decision   signal.Decision `json:"decision"`
}

func writeDecision(w http.ResponseWriter, dec signal.Decision, rec *store.DecisionRecord) {
	resp := DecisionResponse{Decision: dec}
	if rec != nil {
		resp.DecisionID = rec.ID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
