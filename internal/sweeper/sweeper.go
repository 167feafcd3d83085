package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/NorthLot-Market/Verdict/internal/events"
	"github.com/NorthLot-Market/Verdict/internal/store"
)

// Sweeper expires flagged decisions that outlive the review window and
// publishes periodic decision stats.
type Sweeper struct {
	store        store.Store
	events       events.Client
	tick         time.Duration
	reviewWindow time.Duration
	logger       *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, ev events.Client, tick, reviewWindow time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:        s,
		events:       ev,
		tick:         tick,
		reviewWindow: reviewWindow,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

func (sw *Sweeper) Start(ctx context.Context) {
	sw.wg.Add(1)
	go sw.loop(ctx)
}

func (sw *Sweeper) Stop() {
	sw.stopOnce.Do(func() { close(sw.stopCh) })
	sw.wg.Wait()
}

func (sw *Sweeper) loop(ctx context.Context) {
	defer sw.wg.Done()
	ticker := time.NewTicker(sw.tick)
	defer ticker.Stop()

	for {
		select {
		case <-sw.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.expireStale(ctx)
			sw.publishStats(ctx)
		}
	}
}

// expireStale moves flagged decisions past the review window to expired so
// the review queue never grows without bound.
func (sw *Sweeper) expireStale(ctx context.Context) {
	cutoff := time.Now().Add(-sw.reviewWindow)
	stale, err := sw.store.GetStaleFlagged(ctx, cutoff)
	if err != nil {
		sw.logger.Error("failed to get stale flagged decisions", "error", err)
		return
	}

	for _, rec := range stale {
		if err := sw.store.UpdateDecisionStatus(ctx, rec.ID, store.StatusExpired); err != nil {
			sw.logger.Error("failed to expire decision", "decision_id", rec.ID, "error", err)
			continue
		}
		sw.logger.Warn("decision expired unreviewed",
			"decision_id", rec.ID,
			"domain", rec.Domain,
			"flagged_at", rec.CreatedAt,
		)
		_ = sw.store.CreateDecisionEvent(ctx, &store.DecisionEvent{
			DecisionID: rec.ID,
			Event:      "expired",
			Actor:      "sweeper",
			Payload: map[string]interface{}{
				"review_window": sw.reviewWindow.String(),
			},
		})
		if sw.events != nil {
			_ = sw.events.Publish(events.SubjectDecisionExpired(rec.ID.String()), events.StatusChangedEvent{
				DecisionID: rec.ID.String(),
				OldStatus:  string(store.StatusFlagged),
				NewStatus:  string(store.StatusExpired),
				Actor:      "sweeper",
				Reason:     "review window elapsed",
			})
		}
	}
}

func (sw *Sweeper) publishStats(ctx context.Context) {
	if sw.events == nil {
		return
	}
	stats, err := sw.store.GetStats(ctx)
	if err != nil {
		sw.logger.Error("failed to get decision stats", "error", err)
		return
	}
	_ = sw.events.Publish(events.SubjectStats, events.StatsEvent{
		TotalByDomain: stats.TotalByDomain,
		Flagged:       stats.TotalFlagged,
		Confirmed:     stats.TotalConfirmed,
		Dismissed:     stats.TotalDismissed,
		AvgConfidence: stats.AvgConfidence,
		Timestamp:     time.Now().UTC(),
	})
}
