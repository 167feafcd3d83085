package engine

import (
	"context"
	"fmt"

	"github.com/NorthLot-Market/Verdict/internal/market"
	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// conditionFactors multiply the market-average base price. An unknown or
// empty condition falls back to "used".
var conditionFactors = map[string]float64{
	"new":      1.15,
	"like_new": 1.10,
	"good":     1.00,
	"used":     0.95,
	"fair":     0.90,
	"poor":     0.80,
}

// priceAdjustment is one multiplicative factor in the price-value pipeline.
type priceAdjustment struct {
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
	Reason string  `json:"reason"`
}

// RecommendPrice runs the two pricing pipelines. The price-value pipeline
// multiplies the market-average base by condition, image, description, and
// urgency factors, then bounds the result to [0.5×min, 1.5×max] of the
// comparables. The separate price-quality pipeline aggregates the weighted
// listing-quality signals; it informs the rationale and confidence, never
// the price itself. Decision.Score carries the recommended price and the
// label carries the pricing strategy.
func (e *Engine) RecommendPrice(ctx context.Context, ad market.Ad, snap market.Snapshot) (signal.Decision, error) {
	if ad.Title == "" && ad.Price <= 0 {
		return signal.Decision{}, fmt.Errorf("%w: pricing requires an ad with a title or price", ErrInvalidInput)
	}

	if snap.Empty() {
		// No market data: recommend the current price at neutral confidence.
		dec := e.insufficientData(signal.DomainPricing)
		dec.Score = ad.Price
		dec.Rationale = []string{"no market comparables available; keeping the current price"}
		dec.RecommendedActions = []string{"re-run once comparable listings exist"}
		return dec, nil
	}

	// Price-value pipeline.
	base := snap.AvgPrice
	adjustments := priceAdjustments(ad)
	recommended := base
	for _, adj := range adjustments {
		recommended *= adj.Factor
	}
	lowerBound := 0.5 * snap.MinPrice
	upperBound := 1.5 * snap.MaxPrice
	if snap.MinPrice <= 0 {
		lowerBound = 0
	}
	if upperBound > 0 {
		recommended = signal.Clamp(recommended, lowerBound, upperBound)
	}

	// Price-quality pipeline: weighted signals, independent of the price.
	names := []string{SignalTitleQuality, SignalDescriptionQuality, SignalImageQuality, SignalPriceCompetitiveness}
	signals := e.runExtractors(ctx, names, []extractorFunc{
		func() signal.Signal { return TitleQuality(ad.Title) },
		func() signal.Signal { return DescriptionQuality(ad.Description) },
		func() signal.Signal { return ImageQuality(ad.ImageCount) },
		func() signal.Signal { return PriceCompetitiveness(ad.Price, snap.AvgPrice) },
	})
	profile := e.profiles[signal.DomainPricing]
	quality := signal.Aggregate(signals, profile)

	dec := e.newDecision(signal.DomainPricing)
	dec.Score = recommended
	dec.Label = pricingStrategy(recommended, snap.AvgPrice)
	dec.Signals = signals
	dec.Rationale = append(adjustmentRationale(adjustments, base), e.buildRationale(signals, profile.Strategy)...)
	dec.Rationale = append(dec.Rationale, fmt.Sprintf("listing quality scored %.0f of 100", quality))
	dec.Confidence = pricingConfidence(snap, signals)
	dec.RecommendedActions = pricingActions(dec.Label, recommended, ad.Price)
	return dec, nil
}

// priceAdjustments derives the multiplicative factors for one listing.
func priceAdjustments(ad market.Ad) []priceAdjustment {
	condition := ad.Condition
	if _, ok := conditionFactors[condition]; !ok {
		condition = "used"
	}
	adjustments := []priceAdjustment{
		{Name: "condition", Factor: conditionFactors[condition], Reason: fmt.Sprintf("condition is %s", condition)},
	}

	switch {
	case ad.ImageCount >= 3:
		adjustments = append(adjustments, priceAdjustment{Name: "images", Factor: 1.05, Reason: fmt.Sprintf("%d photos", ad.ImageCount)})
	case ad.ImageCount == 0:
		adjustments = append(adjustments, priceAdjustment{Name: "images", Factor: 0.95, Reason: "no photos"})
	default:
		adjustments = append(adjustments, priceAdjustment{Name: "images", Factor: 1.0, Reason: fmt.Sprintf("%d photos", ad.ImageCount)})
	}

	if len([]rune(ad.Description)) >= 200 {
		adjustments = append(adjustments, priceAdjustment{Name: "description", Factor: 1.03, Reason: "detailed description"})
	} else {
		adjustments = append(adjustments, priceAdjustment{Name: "description", Factor: 1.0, Reason: "short description"})
	}

	adjustments = append(adjustments, urgencyAdjustment(ad.DaysActive, viewsPerDay(ad)))
	return adjustments
}

// urgencyAdjustment is the pricing domain's multiplicative scalar, applied
// after the other factors rather than scored as a 0-100 signal.
func urgencyAdjustment(daysActive int, viewsPerDay float64) priceAdjustment {
	switch {
	case daysActive > 30 && viewsPerDay < 1:
		return priceAdjustment{Name: "urgency", Factor: 0.92, Reason: "listing is stale with little interest"}
	case viewsPerDay > 10:
		return priceAdjustment{Name: "urgency", Factor: 1.05, Reason: "listing is drawing heavy interest"}
	default:
		return priceAdjustment{Name: "urgency", Factor: 1.0, Reason: "normal interest"}
	}
}

func viewsPerDay(ad market.Ad) float64 {
	days := ad.DaysActive
	if days < 1 {
		days = 1
	}
	return float64(ad.Views) / float64(days)
}

// pricingStrategy labels the recommendation by its deviation from the
// market average.
func pricingStrategy(recommended, marketAvg float64) string {
	if marketAvg <= 0 {
		return signal.LabelInsufficientData
	}
	deltaPct := (recommended - marketAvg) / marketAvg * 100
	switch {
	case deltaPct >= -5 && deltaPct <= 5:
		return "competitive"
	case deltaPct > 10:
		return "premium"
	case deltaPct < -10:
		return "discount"
	default:
		return "balanced"
	}
}

func adjustmentRationale(adjustments []priceAdjustment, base float64) []string {
	clauses := make([]string, 0, len(adjustments)+1)
	clauses = append(clauses, fmt.Sprintf("market average for comparable listings is %.2f", base))
	for _, adj := range adjustments {
		if adj.Factor == 1.0 {
			continue
		}
		direction := "raises"
		if adj.Factor < 1.0 {
			direction = "lowers"
		}
		clauses = append(clauses, fmt.Sprintf("%s %s the base price by %.0f%%", adj.Reason, direction, absPct(adj.Factor)))
	}
	return clauses
}

func absPct(factor float64) float64 {
	pct := (factor - 1) * 100
	if pct < 0 {
		return -pct
	}
	return pct
}

func pricingConfidence(snap market.Snapshot, signals []signal.Signal) float64 {
	comparables := 0.0
	switch n := len(snap.Comparables); {
	case n >= 10:
		comparables = 100
	case n >= 3:
		comparables = 75
	case n >= 1:
		comparables = 50
	}
	provider := signal.Clamp(snap.Confidence, 0, 100)
	if provider == 0 && comparables > 0 {
		provider = comparables
	}
	return completenessPenalty(signals, comparables, provider)
}

func pricingActions(strategy string, recommended, current float64) []string {
	actions := []string{fmt.Sprintf("set the asking price to %.2f", recommended)}
	switch strategy {
	case "premium":
		actions = append(actions, "highlight condition and photos to justify the premium")
	case "discount":
		actions = append(actions, "flag the listing for quick-sale promotion")
	}
	if current > 0 && recommended < current*0.9 {
		actions = append(actions, "current price is well above the recommendation; expect slow interest")
	}
	return actions
}
