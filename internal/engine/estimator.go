package engine

import (
	"math/rand"

	"github.com/NorthLot-Market/Verdict/internal/market"
)

// PredictedMetrics are rough traffic estimates for a listing. They are NOT
// part of a Decision: the Estimator is explicitly non-deterministic and is
// excluded from the engine's reproducibility guarantees.
type PredictedMetrics struct {
	EstimatedViews      int `json:"estimated_views"`
	EstimatedResponses  int `json:"estimated_responses"`
	EstimatedDaysToSale int `json:"estimated_days_to_sale"`
}

// Estimator produces placeholder traffic metrics scaled by the success
// probability. Keep it out of any path that must be idempotent.
type Estimator struct {
	rng *rand.Rand
}

// NewEstimator creates an Estimator from the given randomness source.
func NewEstimator(src rand.Source) *Estimator {
	return &Estimator{rng: rand.New(src)}
}

// Estimate derives traffic expectations from the success probability. The
// spread around each midpoint is random.
func (e *Estimator) Estimate(ad market.Ad, successProbability float64) PredictedMetrics {
	p := successProbability
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	views := int(float64(20+e.rng.Intn(80)) * (0.5 + p))
	responses := views / (4 + e.rng.Intn(6))
	days := 30 - int(p*20) + e.rng.Intn(10)
	if days < 1 {
		days = 1
	}
	return PredictedMetrics{
		EstimatedViews:      views,
		EstimatedResponses:  responses,
		EstimatedDaysToSale: days,
	}
}
