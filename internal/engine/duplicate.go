package engine

import (
	"context"
	"fmt"

	"github.com/NorthLot-Market/Verdict/internal/market"
	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// OverallSimilarity combines the comparators into one 0-100 duplicate score:
// title similarity 30%, category exact-match 20 points, location exact-match
// 15 points, price proximity 20 points with linear decay past 10% divergence,
// description similarity 15%. Symmetric in its arguments.
func OverallSimilarity(a, b market.Ad) (float64, []signal.Signal) {
	titleSim := TextSimilarity(a.Title, b.Title) * 100
	descSim := TextSimilarity(a.Description, b.Description) * 100
	categoryPts := 0.0
	if a.Category != "" && a.Category == b.Category {
		categoryPts = categoryMatchPoints
	}
	locationPts := 0.0
	if LocationSimilarity(a.Location, b.Location) == 100 {
		locationPts = locationMatchPoints
	}
	pricePts := priceProximity(a.Price, b.Price)

	signals := []signal.Signal{
		{
			Name: SignalTitleSimilarity, Value: titleSim, Available: true,
			Weight: titleSimilarityWeight, Weighted: titleSim * titleSimilarityWeight,
			Evidence: map[string]interface{}{
				"jaccard": titleSim / 100,
				"summary": similarityClause("titles", titleSim),
			},
		},
		{
			Name: SignalCategoryMatch, Value: categoryPts / categoryMatchPoints * 100, Available: true,
			Weighted: categoryPts,
			Evidence: map[string]interface{}{
				"match":   categoryPts > 0,
				"summary": matchClause("both ads are listed in the same category", "the ads are listed in different categories", categoryPts > 0),
			},
		},
		{
			Name: SignalLocationMatch, Value: locationPts / locationMatchPoints * 100, Available: true,
			Weighted: locationPts,
			Evidence: map[string]interface{}{
				"match":   locationPts > 0,
				"summary": matchClause("both ads are listed in the same location", "the ads are listed in different locations", locationPts > 0),
			},
		},
		{
			Name: SignalPriceProximity, Value: pricePts / priceProximityPoints * 100, Available: a.Price > 0 && b.Price > 0,
			Weighted: pricePts,
			Evidence: map[string]interface{}{
				"price_a": a.Price,
				"price_b": b.Price,
				"summary": priceClause(pricePts),
			},
		},
		{
			Name: SignalDescriptionSimilarity, Value: descSim, Available: a.Description != "" && b.Description != "",
			Weight: descSimilarityWeight, Weighted: descSim * descSimilarityWeight,
			Evidence: map[string]interface{}{
				"jaccard": descSim / 100,
				"summary": similarityClause("descriptions", descSim),
			},
		},
	}

	total := titleSim*titleSimilarityWeight + categoryPts + locationPts + pricePts + descSim*descSimilarityWeight
	return signal.Clamp(total, 0, 100), signals
}

// duplicateLabel applies the duplicate action bands. These use strict lower
// bounds (a score of exactly 95 is review, not confirm), which is why the
// duplicate domain does not go through Profile.Classify.
func duplicateLabel(score float64) string {
	switch {
	case score > 95:
		return "confirm_duplicate"
	case score > 85:
		return "review_required"
	default:
		return "likely_duplicate"
	}
}

// DuplicateMatch pairs a flagged pool member with its decision.
type DuplicateMatch struct {
	OtherID  string          `json:"other_id"`
	Decision signal.Decision `json:"decision"`
}

// ScoreDuplicate compares the candidate against every pool member and
// returns one match per member whose similarity meets the flag threshold.
// An empty pool or no matches yields an empty slice, never an error.
func (e *Engine) ScoreDuplicate(ctx context.Context, candidate market.Ad, pool []market.Ad) ([]DuplicateMatch, error) {
	matches := []DuplicateMatch{}
	for _, other := range pool {
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		score, signals := OverallSimilarity(candidate, other)
		if score < e.config.DuplicateFlagThreshold {
			continue
		}

		dec := e.newDecision(signal.DomainDuplicate)
		dec.Score = score
		dec.Label = duplicateLabel(score)
		dec.Signals = signals
		dec.Rationale = e.buildRationale(signals, signal.WeightedMean)
		dec.Confidence = duplicateConfidence(candidate, other, signals)
		dec.RecommendedActions = duplicateActions(dec.Label, other.ID)
		matches = append(matches, DuplicateMatch{OtherID: other.ID, Decision: dec})
	}
	return matches, nil
}

func duplicateConfidence(a, b market.Ad, signals []signal.Signal) float64 {
	prices := 50.0
	if a.Price > 0 && b.Price > 0 {
		prices = 100
	}
	locations := 50.0
	if a.Location != "" && b.Location != "" {
		locations = 100
	}
	descriptions := 30.0
	if a.Description != "" && b.Description != "" {
		descriptions = 100
	}
	return completenessPenalty(signals, prices, locations, descriptions)
}

func duplicateActions(label, otherID string) []string {
	switch label {
	case "confirm_duplicate":
		return []string{fmt.Sprintf("remove the newer listing (duplicate of %s)", otherID)}
	case "review_required":
		return []string{fmt.Sprintf("queue for manual comparison against %s", otherID)}
	default:
		return []string{fmt.Sprintf("watch for further overlap with %s", otherID)}
	}
}

func similarityClause(what string, sim float64) string {
	switch {
	case sim >= 90:
		return fmt.Sprintf("both ads have nearly identical %s", what)
	case sim >= 60:
		return fmt.Sprintf("both ads have closely matching %s", what)
	default:
		return fmt.Sprintf("the ads' %s overlap by %.0f%%", what, sim)
	}
}

func matchClause(same, different string, matched bool) string {
	if matched {
		return same
	}
	return different
}

func priceClause(pts float64) string {
	switch {
	case pts >= priceProximityPoints:
		return "both ads have nearly identical pricing"
	case pts > 0:
		return "the ads are priced in the same range"
	default:
		return "the ads are priced far apart"
	}
}
