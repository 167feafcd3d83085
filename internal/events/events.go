package events

import "time"

type DecisionCreatedEvent struct {
	DecisionID string  `json:"decision_id"`
	Domain     string  `json:"domain"`
	SubjectID  string  `json:"subject_id,omitempty"`
	CompareID  string  `json:"compare_id,omitempty"`
	Score      float64 `json:"score"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
}

type StatusChangedEvent struct {
	DecisionID string `json:"decision_id"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
	Actor      string `json:"actor,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type FraudFlaggedEvent struct {
	DecisionID string   `json:"decision_id"`
	SubjectID  string   `json:"subject_id"`
	Score      float64  `json:"score"`
	Severity   string   `json:"severity"`
	Rationale  []string `json:"rationale,omitempty"`
}

type DuplicateFlaggedEvent struct {
	DecisionID string  `json:"decision_id"`
	AdID       string  `json:"ad_id"`
	OtherAdID  string  `json:"other_ad_id"`
	Similarity float64 `json:"similarity"`
	Label      string  `json:"label"`
}

type StatsEvent struct {
	TotalByDomain map[string]int `json:"total_by_domain"`
	Flagged       int            `json:"flagged"`
	Confirmed     int            `json:"confirmed"`
	Dismissed     int            `json:"dismissed"`
	AvgConfidence float64        `json:"avg_confidence"`
	Timestamp     time.Time      `json:"timestamp"`
}
