package engine

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// attentionKeywords are title/description words buyers respond to. Up to
// three of them earn 5 points each in TitleQuality.
var attentionKeywords = []string{
	"new", "sealed", "original", "warranty", "rare", "limited", "mint", "boxed",
}

// TitleQuality scores a listing title: base 50, +15 for a length between 10
// and 100 runes, +5 per attention keyword (max 3), and a capitalization
// adjustment (+10 when 50-90% of letters are uppercase, -10 at 90% or more).
func TitleQuality(title string) signal.Signal {
	if strings.TrimSpace(title) == "" {
		return signal.Neutral(SignalTitleQuality, "no title")
	}

	score := 50.0
	length := len([]rune(title))
	if length >= 10 && length <= 100 {
		score += 15
	}

	lower := strings.ToLower(title)
	keywords := 0
	for _, kw := range attentionKeywords {
		if strings.Contains(lower, kw) {
			keywords++
			if keywords == 3 {
				break
			}
		}
	}
	score += float64(keywords) * 5

	upper, letters := 0, 0
	for _, r := range title {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	capRatio := 0.0
	if letters > 0 {
		capRatio = float64(upper) / float64(letters)
	}
	switch {
	case capRatio >= 0.9:
		score -= 10
	case capRatio >= 0.5:
		score += 10
	}

	return signal.Signal{
		Name:      SignalTitleQuality,
		Value:     signal.Clamp(score, 0, 100),
		Available: true,
		Evidence: map[string]interface{}{
			"length":               length,
			"attention_keywords":   keywords,
			"capitalization_ratio": capRatio,
			"summary":              fmt.Sprintf("title is %d characters with %d attention keywords", length, keywords),
		},
	}
}

// DescriptionQuality scores a listing description: base 50, +15 for a length
// between 100 and 2000 runes, +5 per attention keyword (max 3).
func DescriptionQuality(description string) signal.Signal {
	if strings.TrimSpace(description) == "" {
		return signal.Neutral(SignalDescriptionQuality, "no description")
	}

	score := 50.0
	length := len([]rune(description))
	if length >= 100 && length <= 2000 {
		score += 15
	}

	lower := strings.ToLower(description)
	keywords := 0
	for _, kw := range attentionKeywords {
		if strings.Contains(lower, kw) {
			keywords++
			if keywords == 3 {
				break
			}
		}
	}
	score += float64(keywords) * 5

	return signal.Signal{
		Name:      SignalDescriptionQuality,
		Value:     signal.Clamp(score, 0, 100),
		Available: true,
		Evidence: map[string]interface{}{
			"length":  length,
			"summary": fmt.Sprintf("description is %d characters long", length),
		},
	}
}

// PriceCompetitiveness bands the price/market-average ratio: within ±20% of
// market earns +25, ±40% +15, ±60% +5, anything further -10, on a base of 50.
func PriceCompetitiveness(price, marketAverage float64) signal.Signal {
	if price <= 0 || marketAverage <= 0 {
		return signal.Neutral(SignalPriceCompetitiveness, "no market average")
	}

	ratio := price / marketAverage
	score := 50.0
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		score += 25
	case ratio >= 0.6 && ratio <= 1.4:
		score += 15
	case ratio >= 0.4 && ratio <= 1.6:
		score += 5
	default:
		score -= 10
	}

	return signal.Signal{
		Name:      SignalPriceCompetitiveness,
		Value:     signal.Clamp(score, 0, 100),
		Available: true,
		Evidence: map[string]interface{}{
			"price":          price,
			"market_average": marketAverage,
			"ratio":          ratio,
			"summary":        fmt.Sprintf("price is %.0f%% of the market average", ratio*100),
		},
	}
}

// ImageQuality scores photo coverage. No photos is a hard 20; otherwise
// base 50 plus count bonuses capped at 40 and 10.
func ImageQuality(imageCount int) signal.Signal {
	if imageCount <= 0 {
		return signal.Signal{
			Name:      SignalImageQuality,
			Value:     20,
			Available: true,
			Evidence: map[string]interface{}{
				"image_count": 0,
				"summary":     "listing has no photos",
			},
		}
	}

	score := 50.0
	score += minf(float64(imageCount)*10, 40)
	score += minf(float64(imageCount)*5, 10)

	return signal.Signal{
		Name:      SignalImageQuality,
		Value:     signal.Clamp(score, 0, 100),
		Available: true,
		Evidence: map[string]interface{}{
			"image_count": imageCount,
			"summary":     fmt.Sprintf("listing has %d photos", imageCount),
		},
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
