package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/NorthLot-Market/Verdict/internal/market"
	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// User is the account read-model the fraud extractors inspect.
type User struct {
	ID                  string `json:"id"`
	Verified            bool   `json:"verified"`
	PhonePresent        bool   `json:"phone_present"`
	AddressPresent      bool   `json:"address_present"`
	AccountAgeDays      int    `json:"account_age_days"`
	AdsPosted           int    `json:"ads_posted"`
	AdsLast24h          int    `json:"ads_last_24h"`
	SharedTitleAccounts int    `json:"shared_title_accounts"`
}

// Payment is the payment read-model for fraud checks.
type Payment struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}

// FraudRequest bundles the entities for one fraud check. At least one of the
// three must be non-nil.
type FraudRequest struct {
	User    *User
	Ad      *market.Ad
	Payment *Payment
}

// suspiciousPhrases in a title or description add risk points.
var suspiciousPhrases = []string{
	"wire transfer", "western union", "gift card", "pay outside", "whatsapp only",
}

// ScoreFraud tallies risk points across the user, ad, and payment extractors
// and classifies the total against the fraud severity bands. Fraud is the
// one domain that sums unbounded risk points and clamps, rather than
// weighting normalized signals.
func (e *Engine) ScoreFraud(ctx context.Context, req FraudRequest) (signal.Decision, error) {
	if req.User == nil && req.Ad == nil && req.Payment == nil {
		return signal.Decision{}, fmt.Errorf("%w: fraud check requires a user, ad, or payment", ErrInvalidInput)
	}

	names := []string{SignalUserBehaviorRisk, SignalAdContentRisk, SignalPaymentRisk}
	signals := e.runExtractors(ctx, names, []extractorFunc{
		func() signal.Signal { return userBehaviorRisk(req.User) },
		func() signal.Signal { return adContentRisk(req.Ad) },
		func() signal.Signal { return paymentRisk(req.Payment, req.Ad) },
	})

	profile := e.profiles[signal.DomainFraud]
	dec := e.newDecision(signal.DomainFraud)
	dec.Score = signal.Aggregate(signals, profile)
	dec.Label = profile.Classify(dec.Score)
	dec.Signals = signals
	dec.Rationale = e.buildRationale(signals, profile.Strategy)
	dec.Confidence = fraudConfidence(req, signals)
	dec.RecommendedActions = fraudActions(dec.Label)
	return dec, nil
}

// userBehaviorRisk accumulates account-behavior risk points: +20 for more
// than 5 ads created in the trailing 24h, +10 for missing phone or address,
// +5 for an unverified account, +15 when another account shares a
// recently-created ad title.
func userBehaviorRisk(user *User) signal.Signal {
	if user == nil {
		return zeroRisk(SignalUserBehaviorRisk, "no user supplied")
	}

	points := 0.0
	findings := []string{}
	if user.AdsLast24h > 5 {
		points += 20
		findings = append(findings, fmt.Sprintf("%d ads created in the last 24 hours", user.AdsLast24h))
	}
	if !user.PhonePresent || !user.AddressPresent {
		points += 10
		findings = append(findings, "contact details are incomplete")
	}
	if !user.Verified {
		points += 5
		findings = append(findings, "account is unverified")
	}
	if user.SharedTitleAccounts >= 1 {
		points += 15
		findings = append(findings, fmt.Sprintf("%d other accounts share a recent ad title", user.SharedTitleAccounts))
	}

	return riskSignal(SignalUserBehaviorRisk, points, findings)
}

// adContentRisk tallies listing-content risk points.
func adContentRisk(ad *market.Ad) signal.Signal {
	if ad == nil {
		return zeroRisk(SignalAdContentRisk, "no ad supplied")
	}

	points := 0.0
	findings := []string{}
	text := strings.ToLower(ad.Title + " " + ad.Description)
	for _, phrase := range suspiciousPhrases {
		if strings.Contains(text, phrase) {
			points += 10
			findings = append(findings, fmt.Sprintf("listing mentions %q", phrase))
		}
	}
	if ad.ImageCount == 0 {
		points += 10
		findings = append(findings, "listing has no photos")
	}
	if ad.Price > 0 && ad.Price <= 1 {
		points += 15
		findings = append(findings, "listing uses a placeholder price")
	}

	return riskSignal(SignalAdContentRisk, points, findings)
}

// paymentRisk tallies payment-shape risk points.
func paymentRisk(payment *Payment, ad *market.Ad) signal.Signal {
	if payment == nil {
		return zeroRisk(SignalPaymentRisk, "no payment supplied")
	}

	points := 0.0
	findings := []string{}
	switch payment.Status {
	case "failed", "chargeback":
		points += 15
		findings = append(findings, fmt.Sprintf("payment status is %s", payment.Status))
	}
	if ad != nil && ad.Price > 0 && payment.Amount > 2*ad.Price {
		points += 20
		findings = append(findings, "payment amount is more than double the listing price")
	}

	return riskSignal(SignalPaymentRisk, points, findings)
}

// zeroRisk is the fraud-domain degraded default: a missing optional entity
// contributes no risk points, only a confidence penalty. The normalized
// domains default to 50; defaulting risk points to 50 would invent risk.
func zeroRisk(name, reason string) signal.Signal {
	return signal.Signal{
		Name:      name,
		Value:     0,
		Available: false,
		Evidence:  map[string]interface{}{"defaulted": reason},
	}
}

func riskSignal(name string, points float64, findings []string) signal.Signal {
	ev := map[string]interface{}{"risk_points": points}
	if len(findings) > 0 {
		ev["findings"] = findings
		ev["summary"] = strings.Join(findings, "; ")
	}
	return signal.Signal{
		Name:      name,
		Value:     points,
		Available: true,
		Evidence:  ev,
	}
}

// fraudConfidence measures how much reliable input was available, not how
// severe the score is.
func fraudConfidence(req FraudRequest, signals []signal.Signal) float64 {
	accountAge := 50.0
	adsPosted := 50.0
	if req.User != nil {
		if req.User.AccountAgeDays > 30 {
			accountAge = 100
		}
		switch {
		case req.User.AdsPosted > 10:
			adsPosted = 100
		case req.User.AdsPosted > 5:
			adsPosted = 75
		}
	}
	images := 30.0
	if req.Ad != nil && req.Ad.ImageCount > 0 {
		images = 100
	}
	payment := 50.0
	if req.Payment != nil {
		payment = 100
	}
	return completenessPenalty(signals, accountAge, adsPosted, images, payment)
}

func fraudActions(severity string) []string {
	switch severity {
	case "critical":
		return []string{
			"suspend the listing and freeze associated payouts",
			"escalate to the manual review queue",
		}
	case "high":
		return []string{"hold the listing pending manual review"}
	case "medium":
		return []string{"request identity verification from the seller"}
	default:
		return []string{"no action required"}
	}
}
