package engine

import (
	"context"
	"fmt"

	"github.com/NorthLot-Market/Verdict/internal/market"
	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// PredictSuccess estimates the probability that a listing sells, as a 0-1
// score aggregated from the weighted quality signals plus a comparative
// signal against the caller-supplied pool. There is no discrete label; risk
// factors surface as recommended actions. Predicted traffic metrics are a
// separate, non-deterministic Estimator concern.
func (e *Engine) PredictSuccess(ctx context.Context, ad market.Ad, pool []market.Ad) (signal.Decision, error) {
	if ad.Title == "" && ad.Description == "" {
		return signal.Decision{}, fmt.Errorf("%w: success prediction requires ad content", ErrInvalidInput)
	}

	poolAvg := poolAveragePrice(pool)

	names := []string{
		SignalTitleQuality, SignalDescriptionQuality, SignalImageQuality,
		SignalPriceCompetitiveness, SignalComparativePerformance,
	}
	signals := e.runExtractors(ctx, names, []extractorFunc{
		func() signal.Signal { return TitleQuality(ad.Title) },
		func() signal.Signal { return DescriptionQuality(ad.Description) },
		func() signal.Signal { return ImageQuality(ad.ImageCount) },
		func() signal.Signal { return PriceCompetitiveness(ad.Price, poolAvg) },
		func() signal.Signal { return comparativePerformance(ad, pool) },
	})

	profile := e.profiles[signal.DomainSuccess]
	aggregate := signal.Aggregate(signals, profile)

	dec := e.newDecision(signal.DomainSuccess)
	dec.Score = aggregate / 100
	dec.Signals = signals
	dec.Rationale = e.buildRationale(signals, profile.Strategy)
	dec.Confidence = successConfidence(ad, pool, signals)
	dec.RecommendedActions = successRiskFactors(ad, poolAvg)
	return dec, nil
}

// comparativePerformance measures how closely the listing resembles the
// comparable pool, reusing the similarity engine. A listing similar to what
// already sells in its segment is a better market fit.
func comparativePerformance(ad market.Ad, pool []market.Ad) signal.Signal {
	if len(pool) == 0 {
		return signal.Neutral(SignalComparativePerformance, "no comparable pool")
	}

	var sum float64
	for _, other := range pool {
		score, _ := OverallSimilarity(ad, other)
		sum += score
	}
	mean := sum / float64(len(pool))

	return signal.Signal{
		Name:      SignalComparativePerformance,
		Value:     signal.Clamp(mean, 0, 100),
		Available: true,
		Evidence: map[string]interface{}{
			"pool_size": len(pool),
			"summary":   fmt.Sprintf("listing resembles its %d comparables at %.0f%%", len(pool), mean),
		},
	}
}

func poolAveragePrice(pool []market.Ad) float64 {
	var sum float64
	var n int
	for _, ad := range pool {
		if ad.Price > 0 {
			sum += ad.Price
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// successRiskFactors applies the threshold-based risk triggers.
func successRiskFactors(ad market.Ad, poolAvg float64) []string {
	var actions []string
	if poolAvg > 0 && ad.Price/poolAvg > 2.0 {
		actions = append(actions, "price is more than double the market average; consider lowering it")
	}
	if ad.ImageCount == 0 {
		actions = append(actions, "add photos; listings without photos rarely sell")
	}
	if len([]rune(ad.Title)) < 10 {
		actions = append(actions, "expand the title; it is too short to attract searches")
	}
	return actions
}

func successConfidence(ad market.Ad, pool []market.Ad, signals []signal.Signal) float64 {
	poolSize := 0.0
	switch n := len(pool); {
	case n >= 10:
		poolSize = 100
	case n >= 3:
		poolSize = 75
	case n >= 1:
		poolSize = 50
	}
	images := 30.0
	if ad.ImageCount > 0 {
		images = 100
	}
	history := 50.0
	if ad.DaysActive > 0 && ad.Views > 0 {
		history = 100
	}
	return completenessPenalty(signals, poolSize, images, history)
}
