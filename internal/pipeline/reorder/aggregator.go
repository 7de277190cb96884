package reorder

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/repository"
)

const day = 24 * time.Hour

// Aggregator turns an item's bounded outflow window into Usage.
type Aggregator struct {
	ledger repository.LedgerReader
}

func NewAggregator(ledger repository.LedgerReader) *Aggregator {
	return &Aggregator{ledger: ledger}
}

// Aggregate reads the item's "out" movements of the last 90 days and sums
// them. Only when that window is empty does it ask the ledger for the newest
// outflow ever, so days-since-last-outflow stays exact for long-idle items.
func (a *Aggregator) Aggregate(ctx context.Context, itemID int64, now time.Time) (Usage, error) {
	windowStart := now.Add(-UsageWindowDays * day)
	recentStart := now.Add(-RecentWindowDays * day)

	movements, err := a.ledger.ListOutflowsSince(ctx, itemID, windowStart)
	if err != nil {
		return Usage{}, fmt.Errorf("read outflows: %w", err)
	}

	usage := Usage{ItemID: itemID}
	var latest time.Time
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return Usage{}, fmt.Errorf("%w: %w", ErrMalformedMovement, err)
		}
		if m.Type != domain.MovementOut || m.ItemID != itemID {
			return Usage{}, fmt.Errorf("%w: movement %d is %q for item %d", ErrMalformedMovement, m.ID, m.Type, m.ItemID)
		}
		if m.CreatedAt.Before(windowStart) {
			continue
		}

		usage.TotalOut90d += m.Quantity
		if !m.CreatedAt.Before(recentStart) {
			usage.TotalOut30d += m.Quantity
		}
		if m.CreatedAt.After(latest) {
			latest = m.CreatedAt
		}
	}

	if !latest.IsZero() {
		usage.LastOutflowAt = &latest
	} else {
		last, err := a.ledger.LastOutflowAt(ctx, itemID)
		if err != nil {
			return Usage{}, fmt.Errorf("read last outflow: %w", err)
		}
		usage.LastOutflowAt = last
	}

	usage.AvgDailyUsage = float64(usage.TotalOut90d) / UsageWindowDays
	usage.RecentDailyUsage = float64(usage.TotalOut30d) / RecentWindowDays
	usage.DaysSinceLastOutflow = daysSince(usage.LastOutflowAt, now)

	return usage, nil
}

func daysSince(t *time.Time, now time.Time) domain.DayCount {
	if t == nil {
		return domain.Unbounded()
	}
	return domain.Days(int(math.Floor(now.Sub(*t).Hours() / 24)))
}
