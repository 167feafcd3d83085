package signal

import (
	"time"
)

// Domain identifies which scoring model a run belongs to.
type Domain string

const (
	DomainFraud     Domain = "fraud"
	DomainDuplicate Domain = "duplicate"
	DomainPricing   Domain = "pricing"
	DomainSuccess   Domain = "success"
	DomainDispute   Domain = "dispute"
)

// LabelInsufficientData is returned when a scoring call had no usable input.
const LabelInsufficientData = "insufficient_data"

// Signal is a single named measurement extracted from entity data.
// Value is normalized to [0,100] for every domain except fraud, where it
// carries raw risk points. Evidence keeps the raw inputs that produced the
// value so the rationale generator can reference them.
type Signal struct {
	Name      string                 `json:"name"`
	Value     float64                `json:"value"`
	Weight    float64                `json:"weight"`
	Weighted  float64                `json:"weighted"`
	Available bool                   `json:"available"`
	Evidence  map[string]interface{} `json:"evidence,omitempty"`
}

// Neutral returns the degraded default for an extractor whose inputs were
// missing: value 50, marked unavailable so confidence takes the penalty.
func Neutral(name string, reason string) Signal {
	return Signal{
		Name:      name,
		Value:     50,
		Available: false,
		Evidence:  map[string]interface{}{"defaulted": reason},
	}
}

// Decision is the immutable output of one scoring call. Score is [0,100]
// except for the pricing domain (a recommended price in currency units) and
// the dispute domain ([0,1]). Confidence measures input completeness and is
// computed independently of the score.
type Decision struct {
	Domain             Domain    `json:"domain"`
	Score              float64   `json:"score"`
	Label              string    `json:"label,omitempty"`
	Confidence         float64   `json:"confidence"`
	Rationale          []string  `json:"rationale"`
	RecommendedActions []string  `json:"recommended_actions,omitempty"`
	Signals            []Signal  `json:"signals"`
	EvaluatedAt        time.Time `json:"evaluated_at"`
}

// Clamp bounds v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
