package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NorthLot-Market/Verdict/internal/signal"
)

// ErrInvalidInput is returned when a scoring call is missing the entity
// bundle fields its domain requires. All other degraded inputs resolve to
// neutral defaults, never errors.
var ErrInvalidInput = errors.New("invalid input")

// Clock abstracts time so scoring runs are reproducible under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// Engine evaluates the five scoring domains. It is stateless and
// request-scoped: profiles are immutable after construction and no scoring
// call shares mutable state with another. The engine performs no I/O; any
// market data is snapshotted by the caller and passed in.
type Engine struct {
	profiles map[signal.Domain]signal.Profile
	config   Config
	clock    Clock
	logger   *slog.Logger
}

// Config carries the tunables that are not part of a domain profile.
type Config struct {
	// MaterialityFloor is the |value-50| distance a signal must exceed to
	// earn a rationale clause on its own.
	MaterialityFloor float64
	// TopContributors always earn a rationale clause regardless of floor.
	TopContributors int
	// DuplicateFlagThreshold is the minimum similarity for a pool member to
	// appear in ScoreDuplicate results.
	DuplicateFlagThreshold float64
}

// DefaultConfig returns the engine tunables used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaterialityFloor:       15,
		TopContributors:        3,
		DuplicateFlagThreshold: 80,
	}
}

// New creates an Engine. Profiles are validated; an invalid profile is a
// startup error, never a per-request one.
func New(profiles map[signal.Domain]signal.Profile, cfg Config, clock Clock, logger *slog.Logger) (*Engine, error) {
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("engine profiles: %w", err)
		}
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{profiles: profiles, config: cfg, clock: clock, logger: logger}, nil
}

// Profile returns the immutable profile for a domain.
func (e *Engine) Profile(d signal.Domain) signal.Profile {
	return e.profiles[d]
}

type extractorFunc func() signal.Signal

// runExtractors evaluates all extractors for one call concurrently. Each
// extractor is pure and independent, so order never matters; results land in
// the slot matching the extractor's position. A panicking extractor degrades
// to the neutral default rather than aborting the call.
func (e *Engine) runExtractors(ctx context.Context, names []string, extractors []extractorFunc) []signal.Signal {
	out := make([]signal.Signal, len(extractors))
	g, _ := errgroup.WithContext(ctx)
	for i, fn := range extractors {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Warn("extractor panicked", "signal", names[i], "panic", r)
					out[i] = signal.Neutral(names[i], "extractor failure")
				}
			}()
			out[i] = fn()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) newDecision(d signal.Domain) signal.Decision {
	return signal.Decision{
		Domain:      d,
		EvaluatedAt: e.clock.Now().UTC(),
	}
}

// insufficientData builds the documented neutral decision for degenerate
// input: score 50, confidence 0.
func (e *Engine) insufficientData(d signal.Domain) signal.Decision {
	dec := e.newDecision(d)
	dec.Score = 50
	dec.Label = signal.LabelInsufficientData
	dec.Confidence = 0
	dec.Rationale = []string{"not enough input data to score"}
	return dec
}

func avg(vals ...float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
