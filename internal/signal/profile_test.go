package signal

import (
	"math"
	"testing"
)

func TestProfileValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p := Profile{
			Domain:   DomainPricing,
			Strategy: WeightedMean,
			Weights:  map[string]float64{"a": 0.6, "b": 0.4},
			Thresholds: []ThresholdBand{
				{Lower: 80, Label: "high"},
				{Lower: 40, Label: "medium"},
				{Lower: 0, Label: "low"},
			},
		}
		if err := p.Validate(); err != nil {
			t.Errorf("expected valid profile, got %v", err)
		}
	})

	t.Run("negative weight", func(t *testing.T) {
		p := Profile{Domain: DomainPricing, Weights: map[string]float64{"a": -0.1}}
		if err := p.Validate(); err == nil {
			t.Error("expected error for negative weight")
		}
	})

	t.Run("weights exceed one", func(t *testing.T) {
		p := Profile{Domain: DomainPricing, Weights: map[string]float64{"a": 0.7, "b": 0.5}}
		if err := p.Validate(); err == nil {
			t.Error("expected error for weights summing above 1.0")
		}
	})

	t.Run("non-descending thresholds", func(t *testing.T) {
		p := Profile{
			Domain: DomainFraud,
			Thresholds: []ThresholdBand{
				{Lower: 40, Label: "medium"},
				{Lower: 80, Label: "high"},
			},
		}
		if err := p.Validate(); err == nil {
			t.Error("expected error for ascending threshold bands")
		}
	})
}

func TestProfileClassify(t *testing.T) {
	p := Profile{
		Thresholds: []ThresholdBand{
			{Lower: 80, Label: "critical"},
			{Lower: 60, Label: "high"},
			{Lower: 40, Label: "medium"},
			{Lower: 0, Label: "low"},
		},
	}

	tests := []struct {
		name  string
		score float64
		want  string
	}{
		{"above top band", 95, "critical"},
		{"exact lower bound is inclusive", 80, "critical"},
		{"mid band", 65, "high"},
		{"exact middle bound", 60, "high"},
		{"bottom band", 10, "low"},
		{"zero", 0, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Classify(tt.score); got != tt.want {
				t.Errorf("Classify(%f) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}

	t.Run("no bands", func(t *testing.T) {
		if got := (Profile{}).Classify(50); got != "" {
			t.Errorf("expected empty label, got %q", got)
		}
	})
}

func TestAggregateWeightedMean(t *testing.T) {
	t.Run("assigned weights only", func(t *testing.T) {
		p := Profile{Strategy: WeightedMean, Weights: map[string]float64{"a": 0.6, "b": 0.4}}
		signals := []Signal{
			{Name: "a", Value: 100, Available: true},
			{Name: "b", Value: 50, Available: true},
		}
		got := Aggregate(signals, p)
		if math.Abs(got-80) > 1e-9 {
			t.Errorf("expected 80, got %f", got)
		}
	})

	t.Run("unassigned signals share the remainder equally", func(t *testing.T) {
		p := Profile{Strategy: WeightedMean, Weights: map[string]float64{"a": 0.5}}
		signals := []Signal{
			{Name: "a", Value: 100, Available: true},
			{Name: "b", Value: 50, Available: true},
			{Name: "c", Value: 0, Available: true},
		}
		got := Aggregate(signals, p)
		// 100×0.5 + 50×0.25 + 0×0.25
		if math.Abs(got-62.5) > 1e-9 {
			t.Errorf("expected 62.5, got %f", got)
		}
		if math.Abs(signals[1].Weight-0.25) > 1e-9 || math.Abs(signals[2].Weight-0.25) > 1e-9 {
			t.Errorf("expected shared weight 0.25, got %f and %f", signals[1].Weight, signals[2].Weight)
		}
	})

	t.Run("effective weights always sum to one", func(t *testing.T) {
		p := Profile{Strategy: WeightedMean, Weights: map[string]float64{"a": 0.35, "b": 0.25}}
		signals := []Signal{
			{Name: "a", Value: 70, Available: true},
			{Name: "b", Value: 30, Available: true},
			{Name: "c", Value: 90, Available: true},
			{Name: "d", Value: 10, Available: true},
		}
		Aggregate(signals, p)
		if sum := EffectiveWeightSum(signals); math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("effective weights sum to %f, want 1.0", sum)
		}
	})

	t.Run("fully assigned underweight table rescales pro-rata", func(t *testing.T) {
		p := Profile{Strategy: WeightedMean, Weights: map[string]float64{"a": 0.5, "b": 0.3}}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		signals := []Signal{
			{Name: "a", Value: 100, Available: true},
			{Name: "b", Value: 60, Available: true},
		}
		got := Aggregate(signals, p)
		// 100×0.625 + 60×0.375
		if math.Abs(got-85) > 1e-9 {
			t.Errorf("expected 85, got %f", got)
		}
		if sum := EffectiveWeightSum(signals); math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("effective weights sum to %f, want 1.0", sum)
		}
	})

	t.Run("all-zero table falls back to equal shares", func(t *testing.T) {
		p := Profile{Strategy: WeightedMean, Weights: map[string]float64{"a": 0, "b": 0}}
		signals := []Signal{
			{Name: "a", Value: 100, Available: true},
			{Name: "b", Value: 0, Available: true},
		}
		got := Aggregate(signals, p)
		if math.Abs(got-50) > 1e-9 {
			t.Errorf("expected 50, got %f", got)
		}
		if sum := EffectiveWeightSum(signals); math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("effective weights sum to %f, want 1.0", sum)
		}
	})

	t.Run("empty signals default to the neutral midpoint", func(t *testing.T) {
		if got := Aggregate(nil, Profile{Strategy: WeightedMean}); got != 50 {
			t.Errorf("expected 50, got %f", got)
		}
	})

	t.Run("fills weighted contribution in place", func(t *testing.T) {
		p := Profile{Strategy: WeightedMean, Weights: map[string]float64{"a": 1.0}}
		signals := []Signal{{Name: "a", Value: 80, Available: true}}
		Aggregate(signals, p)
		if math.Abs(signals[0].Weighted-80) > 1e-9 {
			t.Errorf("expected weighted 80, got %f", signals[0].Weighted)
		}
	})
}

func TestAggregateRiskSum(t *testing.T) {
	p := Profile{Strategy: RiskSum}

	t.Run("sums raw points", func(t *testing.T) {
		signals := []Signal{
			{Name: "a", Value: 30, Available: true},
			{Name: "b", Value: 25, Available: true},
		}
		if got := Aggregate(signals, p); got != 55 {
			t.Errorf("expected 55, got %f", got)
		}
	})

	t.Run("clamps at 100", func(t *testing.T) {
		signals := []Signal{
			{Name: "a", Value: 60, Available: true},
			{Name: "b", Value: 70, Available: true},
		}
		if got := Aggregate(signals, p); got != 100 {
			t.Errorf("expected 100, got %f", got)
		}
	})
}

func TestAggregateMonotonicity(t *testing.T) {
	base := []Signal{
		{Name: "a", Value: 40, Available: true},
		{Name: "b", Value: 55, Available: true},
		{Name: "c", Value: 70, Available: true},
	}
	profiles := map[string]Profile{
		"weighted mean": {Strategy: WeightedMean, Weights: map[string]float64{"a": 0.5, "b": 0.2}},
		"risk sum":      {Strategy: RiskSum},
	}

	for name, p := range profiles {
		t.Run(name, func(t *testing.T) {
			orig := make([]Signal, len(base))
			copy(orig, base)
			before := Aggregate(orig, p)

			// raising any single signal never lowers the aggregate
			for i := range base {
				bumped := make([]Signal, len(base))
				copy(bumped, base)
				bumped[i].Value += 10
				if after := Aggregate(bumped, p); after < before {
					t.Errorf("raising %s lowered the aggregate: %f -> %f", base[i].Name, before, after)
				}
			}
		})
	}
}

func TestTopContributors(t *testing.T) {
	signals := []Signal{
		{Name: "small", Weighted: 5},
		{Name: "big", Weighted: 40},
		{Name: "medium", Weighted: -20},
	}
	got := TopContributors(signals, 2)
	if len(got) != 2 || got[0] != "big" || got[1] != "medium" {
		t.Errorf("expected [big medium], got %v", got)
	}

	if got := TopContributors(signals, 10); len(got) != 3 {
		t.Errorf("expected all 3 names when n exceeds len, got %v", got)
	}
}

func TestNeutral(t *testing.T) {
	s := Neutral("title_quality", "no title")
	if s.Value != 50 {
		t.Errorf("expected value 50, got %f", s.Value)
	}
	if s.Available {
		t.Error("neutral signals must be unavailable")
	}
	if s.Evidence["defaulted"] != "no title" {
		t.Errorf("expected defaulted reason, got %v", s.Evidence["defaulted"])
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-5, 0, 100); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
	if got := Clamp(150, 0, 100); got != 100 {
		t.Errorf("expected 100, got %f", got)
	}
	if got := Clamp(42, 0, 100); got != 42 {
		t.Errorf("expected 42, got %f", got)
	}
}
