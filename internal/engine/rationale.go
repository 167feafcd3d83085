package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// buildRationale emits one clause per material signal, ordered by
// contribution magnitude descending. For weighted-mean runs a signal is
// material when its value sits further than the materiality floor from the
// neutral 50, or when it is among the top weighted contributors. Risk-sum
// signals are zero-neutral, so only those carrying points are material.
func (e *Engine) buildRationale(signals []signal.Signal, strategy signal.AggregationStrategy) []string {
	top := make(map[string]bool)
	for _, name := range signal.TopContributors(signals, e.config.TopContributors) {
		top[name] = true
	}

	material := make([]signal.Signal, 0, len(signals))
	for _, s := range signals {
		if strategy == signal.RiskSum {
			if s.Value > 0 {
				material = append(material, s)
			}
			continue
		}
		if math.Abs(s.Value-50) > e.config.MaterialityFloor || top[s.Name] {
			material = append(material, s)
		}
	}
	sort.SliceStable(material, func(i, j int) bool {
		return math.Abs(material[i].Weighted) > math.Abs(material[j].Weighted)
	})

	clauses := make([]string, 0, len(material))
	for _, s := range material {
		clauses = append(clauses, clauseFor(s))
	}
	return clauses
}

// clauseFor renders a single human-readable clause, preferring the summary
// the extractor recorded in its evidence.
func clauseFor(s signal.Signal) string {
	if s.Evidence != nil {
		if summary, ok := s.Evidence["summary"].(string); ok && summary != "" {
			return summary
		}
		if reason, ok := s.Evidence["defaulted"].(string); ok && reason != "" {
			return fmt.Sprintf("%s defaulted to neutral (%s)", humanName(s.Name), reason)
		}
	}
	return fmt.Sprintf("%s scored %.0f", humanName(s.Name), s.Value)
}

func humanName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// completenessPenalty averages the given sub-confidences and then discounts
// for every signal that had to fall back to its neutral default. Confidence
// tracks how much reliable input was available, never the score itself.
func completenessPenalty(signals []signal.Signal, subs ...float64) float64 {
	confidence := avg(subs...)
	defaulted := 0
	for _, s := range signals {
		if !s.Available {
			defaulted++
		}
	}
	if defaulted > 0 && len(signals) > 0 {
		confidence *= 1 - 0.5*float64(defaulted)/float64(len(signals))
	}
	return signal.Clamp(confidence, 0, 100)
}
