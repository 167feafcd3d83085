package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// DecisionStatus is the caller-managed lifecycle of a stored decision. The
// engine never transitions status; the API and sweeper do.
type DecisionStatus string

const (
	StatusFlagged   DecisionStatus = "flagged"
	StatusConfirmed DecisionStatus = "confirmed"
	StatusDismissed DecisionStatus = "dismissed"
	StatusExpired   DecisionStatus = "expired"
	StatusRecorded  DecisionStatus = "recorded"
)

// DecisionRecord is a persisted engine Decision plus the bookkeeping the
// engine itself does not own.
type DecisionRecord struct {
	ID        uuid.UUID     `json:"id"`
	Domain    signal.Domain `json:"domain"`
	SubjectID string        `json:"subject_id,omitempty"`
	// CompareID holds the other ad for duplicate decisions.
	CompareID string `json:"compare_id,omitempty"`

	Score              float64         `json:"score"`
	Label              string          `json:"label,omitempty"`
	Confidence         float64         `json:"confidence"`
	Rationale          []string        `json:"rationale,omitempty"`
	RecommendedActions []string        `json:"recommended_actions,omitempty"`
	Signals            []signal.Signal `json:"signals,omitempty"`

	Status      DecisionStatus `json:"status"`
	RequestedBy string         `json:"requested_by,omitempty"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FromDecision wraps an engine Decision for persistence. Fraud and duplicate
// decisions start flagged so reviewers can confirm or dismiss them; the
// other domains are simply recorded.
func FromDecision(dec signal.Decision, subjectID, compareID, requestedBy string) *DecisionRecord {
	status := StatusRecorded
	if dec.Domain == signal.DomainFraud || dec.Domain == signal.DomainDuplicate {
		status = StatusFlagged
	}
	return &DecisionRecord{
		Domain:             dec.Domain,
		SubjectID:          subjectID,
		CompareID:          compareID,
		Score:              dec.Score,
		Label:              dec.Label,
		Confidence:         dec.Confidence,
		Rationale:          dec.Rationale,
		RecommendedActions: dec.RecommendedActions,
		Signals:            dec.Signals,
		Status:             status,
		RequestedBy:        requestedBy,
		EvaluatedAt:        dec.EvaluatedAt,
	}
}

type DecisionFilter struct {
	Domain    *signal.Domain
	Status    *DecisionStatus
	SubjectID string
	Label     string
	Limit     int
	Offset    int
}

// DecisionEvent is one audit entry against a stored decision, covering
// status transitions and overrides.
type DecisionEvent struct {
	ID         uuid.UUID              `json:"id"`
	DecisionID uuid.UUID              `json:"decision_id"`
	Event      string                 `json:"event"`
	Actor      string                 `json:"actor,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// DecisionStats aggregates stored decisions for the admin surface and the
// sweeper's stats publication.
type DecisionStats struct {
	TotalByDomain  map[string]int `json:"total_by_domain"`
	TotalFlagged   int            `json:"total_flagged"`
	TotalConfirmed int            `json:"total_confirmed"`
	TotalDismissed int            `json:"total_dismissed"`
	AvgConfidence  float64        `json:"avg_confidence"`
}

type Store interface {
	CreateDecision(ctx context.Context, rec *DecisionRecord) error
	GetDecision(ctx context.Context, id uuid.UUID) (*DecisionRecord, error)
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]*DecisionRecord, error)
	UpdateDecisionStatus(ctx context.Context, id uuid.UUID, status DecisionStatus) error

	CreateDecisionEvent(ctx context.Context, event *DecisionEvent) error
	GetDecisionEvents(ctx context.Context, decisionID uuid.UUID) ([]*DecisionEvent, error)

	// GetStaleFlagged returns flagged decisions older than the cutoff, for
	// the sweeper's review-window expiry.
	GetStaleFlagged(ctx context.Context, cutoff time.Time) ([]*DecisionRecord, error)

	GetStats(ctx context.Context) (*DecisionStats, error)

	Close() error
}
