package engine

import (
	"context"
	"fmt"

	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// EvidenceItem is one piece of dispute evidence.
type EvidenceItem struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// TxnDetails is the transaction read-model for dispute resolution.
type TxnDetails struct {
	PaymentMethod   string  `json:"payment_method"`
	ShippingDays    int     `json:"shipping_days"`
	HasReturnPolicy bool    `json:"has_return_policy"`
	Amount          float64 `json:"amount"`
	MarketValue     float64 `json:"market_value"`
}

// UserHistory summarizes the disputing parties' track record.
type UserHistory struct {
	PositiveFeedback  int `json:"positive_feedback"`
	NegativeFeedback  int `json:"negative_feedback"`
	PriorDisputes     int `json:"prior_disputes"`
	PriorTransactions int `json:"prior_transactions"`
}

// DisputeRequest bundles the inputs for one escrow dispute resolution.
type DisputeRequest struct {
	Evidence    []EvidenceItem
	Transaction TxnDetails
	History     UserHistory
	DisputeType string
}

// evidenceCredibilityWeights rates each evidence type's reliability.
var evidenceCredibilityWeights = map[string]float64{
	"photo":       0.80,
	"video":       0.90,
	"document":    0.70,
	"receipt":     0.85,
	"third_party": 0.95,
	"logs":        0.60,
	"witness":     0.50,
}

// disputePrecedence is the static historical-outcome lookup per dispute
// category, on the dispute's 0-1 scale.
var disputePrecedence = map[string]float64{
	"item_not_received":     0.70,
	"item_not_as_described": 0.55,
	"damaged_in_transit":    0.60,
	"unauthorized_charge":   0.75,
	"counterfeit":           0.80,
	"quality_dispute":       0.45,
}

// reliabilityCoefficients discount each meta-signal's weight class before
// classification. This second multiplication compounds the first weighting
// on purpose; it mirrors the historical behavior of the resolution model.
var reliabilityCoefficients = map[string]float64{
	SignalEvidenceCredibility:   0.70,
	SignalTransactionLegitimacy: 0.80,
	SignalUserReputation:        0.60,
	SignalPatternPrecedence:     0.50,
}

// ResolveDispute aggregates the four meta-signals under the dispute weight
// table, applies the weighted-average reliability coefficient, and
// classifies the result. The dispute score lives on a [0,1] scale, unlike
// the 0-100 domains.
func (e *Engine) ResolveDispute(ctx context.Context, req DisputeRequest) (signal.Decision, error) {
	if req.DisputeType == "" {
		return signal.Decision{}, fmt.Errorf("%w: dispute resolution requires a dispute type", ErrInvalidInput)
	}

	names := []string{
		SignalEvidenceCredibility, SignalTransactionLegitimacy,
		SignalUserReputation, SignalPatternPrecedence,
	}
	signals := e.runExtractors(ctx, names, []extractorFunc{
		func() signal.Signal { return evidenceCredibility(req.Evidence) },
		func() signal.Signal { return transactionLegitimacy(req.Transaction) },
		func() signal.Signal { return userReputation(req.History) },
		func() signal.Signal { return patternPrecedence(req.DisputeType) },
	})

	profile := e.profiles[signal.DomainDispute]
	aggregate := signal.Aggregate(signals, profile)

	var reliability float64
	for _, s := range signals {
		reliability += s.Weight * reliabilityCoefficients[s.Name]
	}

	score := signal.Clamp(aggregate/100*reliability, 0, 1)

	dec := e.newDecision(signal.DomainDispute)
	dec.Score = score
	dec.Label = disputeLabel(score)
	dec.Signals = signals
	dec.Rationale = e.buildRationale(signals, profile.Strategy)
	dec.Confidence = disputeConfidence(req, signals)
	dec.RecommendedActions = disputeActions(dec.Label)
	return dec, nil
}

// evidenceCredibility averages the per-item credibility weights, adds 0.1
// when at least three distinct evidence types are present, clamps to [0,1],
// and scales to the signal's 0-100 range.
func evidenceCredibility(items []EvidenceItem) signal.Signal {
	if len(items) == 0 {
		return signal.Neutral(SignalEvidenceCredibility, "no evidence submitted")
	}

	distinct := make(map[string]struct{})
	var sum float64
	for _, item := range items {
		w, ok := evidenceCredibilityWeights[item.Type]
		if !ok {
			w = 0.50
		}
		sum += w
		distinct[item.Type] = struct{}{}
	}
	credibility := sum / float64(len(items))
	if len(distinct) >= 3 {
		credibility += 0.1
	}
	credibility = signal.Clamp(credibility, 0, 1)

	return signal.Signal{
		Name:      SignalEvidenceCredibility,
		Value:     credibility * 100,
		Available: true,
		Evidence: map[string]interface{}{
			"items":          len(items),
			"distinct_types": len(distinct),
			"summary":        fmt.Sprintf("%d evidence items across %d types averaged %.0f%% credibility", len(items), len(distinct), credibility*100),
		},
	}
}

// transactionLegitimacy scores how ordinary the transaction looks from its
// payment method, shipping time, return policy, and price versus market.
func transactionLegitimacy(txn TxnDetails) signal.Signal {
	if txn.Amount == 0 && txn.PaymentMethod == "" {
		return signal.Neutral(SignalTransactionLegitimacy, "no transaction details")
	}

	legitimacy := 0.5
	switch txn.PaymentMethod {
	case "escrow", "card":
		legitimacy += 0.15
	case "wire", "cash":
		legitimacy -= 0.10
	}
	switch {
	case txn.ShippingDays > 0 && txn.ShippingDays <= 7:
		legitimacy += 0.10
	case txn.ShippingDays > 21:
		legitimacy -= 0.15
	}
	if txn.HasReturnPolicy {
		legitimacy += 0.10
	}
	if txn.MarketValue > 0 {
		ratio := txn.Amount / txn.MarketValue
		if ratio >= 0.5 && ratio <= 1.5 {
			legitimacy += 0.10
		} else {
			legitimacy -= 0.15
		}
	}
	legitimacy = signal.Clamp(legitimacy, 0, 1)

	return signal.Signal{
		Name:      SignalTransactionLegitimacy,
		Value:     legitimacy * 100,
		Available: true,
		Evidence: map[string]interface{}{
			"payment_method": txn.PaymentMethod,
			"shipping_days":  txn.ShippingDays,
			"summary":        fmt.Sprintf("transaction via %s looks %.0f%% legitimate", txn.PaymentMethod, legitimacy*100),
		},
	}
}

// userReputation scores the parties' feedback ratio and dispute rate.
func userReputation(h UserHistory) signal.Signal {
	feedback := h.PositiveFeedback + h.NegativeFeedback
	if feedback == 0 && h.PriorTransactions == 0 {
		return signal.Neutral(SignalUserReputation, "no user history")
	}

	reputation := 0.5
	if feedback > 0 {
		reputation = float64(h.PositiveFeedback) / float64(feedback)
	}
	if h.PriorTransactions > 0 {
		disputeRate := float64(h.PriorDisputes) / float64(h.PriorTransactions)
		switch {
		case disputeRate <= 0.05:
			reputation += 0.10
		case disputeRate > 0.20:
			reputation -= 0.20
		}
	}
	reputation = signal.Clamp(reputation, 0, 1)

	return signal.Signal{
		Name:      SignalUserReputation,
		Value:     reputation * 100,
		Available: true,
		Evidence: map[string]interface{}{
			"positive_feedback": h.PositiveFeedback,
			"negative_feedback": h.NegativeFeedback,
			"prior_disputes":    h.PriorDisputes,
			"summary":           fmt.Sprintf("user reputation stands at %.0f%%", reputation*100),
		},
	}
}

// patternPrecedence looks up the historical outcome rate for the dispute
// category. Unknown categories resolve to the neutral midpoint.
func patternPrecedence(disputeType string) signal.Signal {
	rate, ok := disputePrecedence[disputeType]
	if !ok {
		rate = 0.50
	}
	return signal.Signal{
		Name:      SignalPatternPrecedence,
		Value:     rate * 100,
		Available: ok,
		Evidence: map[string]interface{}{
			"dispute_type": disputeType,
			"summary":      fmt.Sprintf("%.0f%% of %s disputes historically resolved for the buyer", rate*100, disputeType),
		},
	}
}

// disputeLabel applies the outcome bands on the dispute's 0-1 scale. Bounds
// are strict, matching the published outcome table.
func disputeLabel(score float64) string {
	switch {
	case score > 0.70:
		return "refund_high_confidence"
	case score > 0.55:
		return "refund_moderate_confidence"
	case score > 0.45:
		return "negotiate"
	case score > 0.30:
		return "release_moderate_confidence"
	default:
		return "release_high_confidence"
	}
}

func disputeConfidence(req DisputeRequest, signals []signal.Signal) float64 {
	evidence := 30.0
	switch n := len(req.Evidence); {
	case n >= 3:
		evidence = 100
	case n >= 1:
		evidence = 70
	}
	history := 50.0
	if req.History.PriorTransactions > 0 {
		history = 100
	}
	txn := 50.0
	if req.Transaction.Amount > 0 {
		txn = 100
	}
	return completenessPenalty(signals, evidence, history, txn)
}

func disputeActions(label string) []string {
	switch label {
	case "refund_high_confidence", "refund_moderate_confidence":
		return []string{"release escrow funds to the buyer", "notify the seller of the outcome"}
	case "negotiate":
		return []string{"propose a partial refund split between the parties"}
	default:
		return []string{"release escrow funds to the seller", "notify the buyer of the outcome"}
	}
}
