package market

import "time"

// Ad is the listing read-model the engine scores against. It is supplied by
// the caller and never mutated by the engine.
type Ad struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Category    string    `json:"category,omitempty"`
	Location    string    `json:"location,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	ImageCount  int       `json:"image_count"`
	Views       int       `json:"views"`
	DaysActive  int       `json:"days_active"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Snapshot is one consistent view of market comparables for a
// category+location+condition, fetched once per scoring call so that every
// extractor in that call sees the same numbers.
type Snapshot struct {
	AvgPrice    float64 `json:"avg_price"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	Confidence  float64 `json:"confidence"`
	Comparables []Ad    `json:"comparables,omitempty"`
}

// Empty reports whether the snapshot carries no usable market data.
func (s Snapshot) Empty() bool {
	return s.AvgPrice <= 0 && len(s.Comparables) == 0
}
