package engine

import (
	"math"
	"strings"
	"unicode"
)

// Component weights for OverallSimilarity. Title and description contribute
// proportionally; category, location, and price contribute flat points.
const (
	titleSimilarityWeight = 0.30
	descSimilarityWeight  = 0.15
	categoryMatchPoints   = 20.0
	locationMatchPoints   = 15.0
	priceProximityPoints  = 20.0
	// priceProximityWindow is the divergence ratio inside which the full
	// price points are awarded; beyond it the points decay linearly to zero
	// at priceProximityWindow+priceProximityDecay.
	priceProximityWindow = 0.10
	priceProximityDecay  = 0.40
)

// TextSimilarity returns the Jaccard index of the two texts' token sets,
// tokenized on whitespace and punctuation, lowercased. Empty either side
// yields 0.
func TextSimilarity(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// PriceSimilarity measures how close two prices are on a 0-100 scale:
// 100 × (1 − |p1−p2|/avg(p1,p2)), 0 if either price is 0.
func PriceSimilarity(p1, p2 float64) float64 {
	if p1 <= 0 || p2 <= 0 {
		return 0
	}
	mean := (p1 + p2) / 2
	sim := 100 * (1 - math.Abs(p1-p2)/mean)
	if sim < 0 {
		return 0
	}
	return sim
}

// LocationSimilarity is exact-match only: 100 for equal locations, else 0.
// Two unset locations count as a match.
func LocationSimilarity(l1, l2 string) float64 {
	if strings.EqualFold(strings.TrimSpace(l1), strings.TrimSpace(l2)) {
		return 100
	}
	return 0
}

// priceProximity awards the full flat points when the two prices diverge by
// at most the window ratio (computed against the lower price, symmetric by
// construction), decaying linearly to zero beyond it.
func priceProximity(p1, p2 float64) float64 {
	if p1 <= 0 || p2 <= 0 {
		return 0
	}
	lo := math.Min(p1, p2)
	ratio := math.Abs(p1-p2) / lo
	if ratio <= priceProximityWindow {
		return priceProximityPoints
	}
	pts := priceProximityPoints * (1 - (ratio-priceProximityWindow)/priceProximityDecay)
	if pts < 0 {
		return 0
	}
	return pts
}
