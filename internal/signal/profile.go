package signal

import (
	"fmt"
	"math"
	"sort"
)

// AggregationStrategy selects how a profile combines its signals.
type AggregationStrategy string

const (
	// WeightedMean combines normalized signals under the profile's weight
	// table; signals absent from the table share the unassigned remainder
	// equally.
	WeightedMean AggregationStrategy = "weighted_mean"
	// RiskSum adds raw risk points and clamps to [0,100]. Used by the fraud
	// domain, which has no per-signal weight table.
	RiskSum AggregationStrategy = "risk_sum"
)

// ThresholdBand maps a lower score bound to a classification label.
type ThresholdBand struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Label string  `yaml:"label" json:"label"`
}

// Profile is the immutable per-domain scoring configuration: weight table,
// threshold bands, and aggregation strategy. Built once at startup.
type Profile struct {
	Domain     Domain
	Strategy   AggregationStrategy
	Weights    map[string]float64
	Thresholds []ThresholdBand
}

// Validate checks that assigned weights are non-negative and do not exceed
// 1.0, and that threshold bands are strictly descending.
func (p Profile) Validate() error {
	var sum float64
	for name, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("profile %s: negative weight for %s: %f", p.Domain, name, w)
		}
		sum += w
	}
	if sum > 1.0+1e-9 {
		return fmt.Errorf("profile %s: assigned weights sum to %.4f, must not exceed 1.0", p.Domain, sum)
	}
	for i := 1; i < len(p.Thresholds); i++ {
		if p.Thresholds[i].Lower >= p.Thresholds[i-1].Lower {
			return fmt.Errorf("profile %s: threshold bands must be strictly descending", p.Domain)
		}
	}
	return nil
}

// Classify scans the bands in descending lower-bound order and returns the
// first label whose bound the score meets or exceeds. Empty thresholds
// classify to "".
func (p Profile) Classify(score float64) string {
	for _, band := range p.Thresholds {
		if score >= band.Lower {
			return band.Label
		}
	}
	return ""
}

// Aggregate combines the signals per the profile's strategy, filling in
// each signal's Weight and Weighted contribution in place.
//
// WeightedMean: signals named in the weight table contribute value×weight;
// the rest split the unassigned remainder 1−Σ(assigned) equally. When the
// table covers every signal in the run but sums below 1.0, the assigned
// weights are rescaled pro-rata. Either way the effective weights across one
// run sum to exactly 1.0.
func Aggregate(signals []Signal, p Profile) float64 {
	if len(signals) == 0 {
		return 50
	}

	if p.Strategy == RiskSum {
		var total float64
		for i := range signals {
			signals[i].Weight = 0
			signals[i].Weighted = signals[i].Value
			total += signals[i].Value
		}
		return Clamp(total, 0, 100)
	}

	var assigned float64
	var unassignedCount int
	for i := range signals {
		if w, ok := p.Weights[signals[i].Name]; ok {
			signals[i].Weight = w
			assigned += w
		} else {
			unassignedCount++
		}
	}

	switch {
	case unassignedCount > 0:
		share := (1.0 - assigned) / float64(unassignedCount)
		for i := range signals {
			if _, ok := p.Weights[signals[i].Name]; !ok {
				signals[i].Weight = share
			}
		}
	case assigned < 1e-12:
		share := 1.0 / float64(len(signals))
		for i := range signals {
			signals[i].Weight = share
		}
	case math.Abs(assigned-1.0) > 1e-9:
		for i := range signals {
			signals[i].Weight /= assigned
		}
	}

	var total float64
	for i := range signals {
		signals[i].Weighted = signals[i].Value * signals[i].Weight
		total += signals[i].Weighted
	}
	return Clamp(total, 0, 100)
}

// EffectiveWeightSum reports the total weight actually applied across a run.
// After Aggregate with WeightedMean this is 1.0 within 1e-9.
func EffectiveWeightSum(signals []Signal) float64 {
	var sum float64
	for _, s := range signals {
		sum += s.Weight
	}
	return sum
}

// TopContributors returns the n signal names with the largest absolute
// weighted contribution, in descending order.
func TopContributors(signals []Signal, n int) []string {
	sorted := make([]Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Weighted) > math.Abs(sorted[j].Weighted)
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	names := make([]string, 0, n)
	for _, s := range sorted[:n] {
		names = append(names, s.Name)
	}
	return names
}
