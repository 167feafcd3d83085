package engine

import (
	"fmt"

	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// Signal names shared across domains.
const (
	SignalTitleQuality           = "title_quality"
	SignalDescriptionQuality     = "description_quality"
	SignalImageQuality           = "image_quality"
	SignalPriceCompetitiveness   = "price_competitiveness"
	SignalComparativePerformance = "comparative_performance"

	SignalUserBehaviorRisk = "user_behavior_risk"
	SignalAdContentRisk    = "ad_content_risk"
	SignalPaymentRisk      = "payment_risk"

	SignalTitleSimilarity       = "title_similarity"
	SignalDescriptionSimilarity = "description_similarity"
	SignalCategoryMatch         = "category_match"
	SignalLocationMatch         = "location_match"
	SignalPriceProximity        = "price_proximity"

	SignalEvidenceCredibility   = "evidence_credibility"
	SignalTransactionLegitimacy = "transaction_legitimacy"
	SignalUserReputation        = "user_reputation"
	SignalPatternPrecedence     = "pattern_precedence"
)

// DefaultProfiles returns the five immutable domain profiles.
//
// Fraud deliberately diverges from the other four: it sums raw risk points
// and clamps, with no per-signal weight table. The duplicate and dispute
// domains classify through dedicated band functions because their published
// action tables use strict lower bounds; their profiles carry the bands for
// introspection only.
func DefaultProfiles() map[signal.Domain]signal.Profile {
	return map[signal.Domain]signal.Profile{
		signal.DomainFraud: {
			Domain:   signal.DomainFraud,
			Strategy: signal.RiskSum,
			Thresholds: []signal.ThresholdBand{
				{Lower: 80, Label: "critical"},
				{Lower: 60, Label: "high"},
				{Lower: 40, Label: "medium"},
				{Lower: 0, Label: "low"},
			},
		},
		signal.DomainDuplicate: {
			Domain:   signal.DomainDuplicate,
			Strategy: signal.WeightedMean,
			Thresholds: []signal.ThresholdBand{
				{Lower: 95, Label: "confirm_duplicate"},
				{Lower: 85, Label: "review_required"},
				{Lower: 80, Label: "likely_duplicate"},
			},
		},
		signal.DomainPricing: {
			Domain:   signal.DomainPricing,
			Strategy: signal.WeightedMean,
			Weights: map[string]float64{
				SignalPriceCompetitiveness: 0.35,
				SignalTitleQuality:         0.25,
				SignalImageQuality:         0.25,
				SignalDescriptionQuality:   0.15,
			},
		},
		signal.DomainSuccess: {
			Domain:   signal.DomainSuccess,
			Strategy: signal.WeightedMean,
			Weights: map[string]float64{
				SignalPriceCompetitiveness:   0.30,
				SignalTitleQuality:           0.20,
				SignalImageQuality:           0.20,
				SignalDescriptionQuality:     0.15,
				SignalComparativePerformance: 0.15,
			},
		},
		signal.DomainDispute: {
			Domain:   signal.DomainDispute,
			Strategy: signal.WeightedMean,
			Weights: map[string]float64{
				SignalEvidenceCredibility:   0.35,
				SignalTransactionLegitimacy: 0.25,
				SignalUserReputation:        0.20,
				SignalPatternPrecedence:     0.20,
			},
		},
	}
}

// ProfilesWithOverrides applies configured weight tables on top of the
// defaults. An override replaces the domain's whole table so the configured
// weights stay self-consistent.
func ProfilesWithOverrides(weights map[string]map[string]float64) (map[signal.Domain]signal.Profile, error) {
	profiles := DefaultProfiles()
	for domain, table := range weights {
		p, ok := profiles[signal.Domain(domain)]
		if !ok {
			return nil, fmt.Errorf("unknown scoring domain in config: %s", domain)
		}
		if p.Strategy == signal.RiskSum {
			return nil, fmt.Errorf("domain %s uses risk-point aggregation and has no weight table", domain)
		}
		replaced := make(map[string]float64, len(table))
		for name, w := range table {
			replaced[name] = w
		}
		p.Weights = replaced
		profiles[signal.Domain(domain)] = p
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}
