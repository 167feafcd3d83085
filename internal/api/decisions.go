package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/NorthLot-Market/Verdict/internal/events"
	"github.com/NorthLot-Market/Verdict/internal/signal"
	"github.com/NorthLot-Market/Verdict/internal/store"
)

type DecisionsHandler struct {
	store  store.Store
	events events.Client
}

func NewDecisionsHandler(s store.Store, ev events.Client) *DecisionsHandler {
	return &DecisionsHandler{store: s, events: ev}
}

// List returns stored decisions, newest first.
// GET /api/v1/decisions?domain=&status=&subject_id=&label=&limit=&offset=
func (h *DecisionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.DecisionFilter{
		SubjectID: r.URL.Query().Get("subject_id"),
		Label:     r.URL.Query().Get("label"),
	}
	if v := r.URL.Query().Get("domain"); v != "" {
		d := signal.Domain(v)
		filter.Domain = &d
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := store.DecisionStatus(v)
		filter.Status = &s
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	records, err := h.store.ListDecisions(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if records == nil {
		records = []*store.DecisionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Get returns one stored decision.
// GET /api/v1/decisions/{id}
func (h *DecisionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Explain returns the signal breakdown behind a stored decision.
// GET /api/v1/decisions/{id}/explain
func (h *DecisionsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"decision_id": rec.ID,
		"domain":      rec.Domain,
		"score":       rec.Score,
		"label":       rec.Label,
		"confidence":  rec.Confidence,
	}
	if rec.Signals != nil {
		resp["signals"] = rec.Signals
		resp["top_contributors"] = signal.TopContributors(rec.Signals, 3)
	}
	if rec.Rationale != nil {
		resp["rationale"] = rec.Rationale
	}

	writeJSON(w, http.StatusOK, resp)
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// validTransitions holds the allowed review flow. Only flagged decisions
// move; expiry is the sweeper's job.
var validTransitions = map[store.DecisionStatus][]store.DecisionStatus{
	store.StatusFlagged: {store.StatusConfirmed, store.StatusDismissed},
}

// UpdateStatus transitions a flagged decision to confirmed or dismissed and
// records the transition in the audit trail.
// POST /api/v1/decisions/{id}/status
func (h *DecisionsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	newStatus := store.DecisionStatus(req.Status)
	if !transitionAllowed(rec.Status, newStatus) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "cannot transition from " + string(rec.Status) + " to " + req.Status,
		})
		return
	}

	if err := h.store.UpdateDecisionStatus(r.Context(), rec.ID, newStatus); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	actor := r.Header.Get("X-Client-ID")
	_ = h.store.CreateDecisionEvent(r.Context(), &store.DecisionEvent{
		DecisionID: rec.ID,
		Event:      "status_changed",
		Actor:      actor,
		Payload: map[string]interface{}{
			"old_status": string(rec.Status),
			"new_status": string(newStatus),
			"reason":     req.Reason,
		},
	})

	subject := events.SubjectDecisionConfirmed(rec.ID.String())
	if newStatus == store.StatusDismissed {
		subject = events.SubjectDecisionDismissed(rec.ID.String())
	}
	_ = h.events.Publish(subject, events.StatusChangedEvent{
		DecisionID: rec.ID.String(),
		OldStatus:  string(rec.Status),
		NewStatus:  string(newStatus),
		Actor:      actor,
		Reason:     req.Reason,
	})

	rec.Status = newStatus
	writeJSON(w, http.StatusOK, rec)
}

// Events returns the audit trail for a decision.
// GET /api/v1/decisions/{id}/events
func (h *DecisionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	evts, err := h.store.GetDecisionEvents(r.Context(), rec.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if evts == nil {
		evts = []*store.DecisionEvent{}
	}
	writeJSON(w, http.StatusOK, evts)
}

func (h *DecisionsHandler) lookup(w http.ResponseWriter, r *http.Request) (*store.DecisionRecord, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid decision id"})
		return nil, false
	}
	rec, err := h.store.GetDecision(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision not found"})
		return nil, false
	}
	return rec, true
}

func transitionAllowed(from, to store.DecisionStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
