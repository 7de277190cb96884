package reorder

import (
	"errors"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
)

const (
	// UsageWindowDays bounds the ledger read; nothing older is loaded.
	UsageWindowDays = 90
	// RecentWindowDays is the short outflow window reported alongside the 90-day one.
	RecentWindowDays = 30

	HealthyMaxDays = 7
	SlowMaxDays    = 90

	// DefaultServiceLevelZ is the ~95% service-level z-score.
	DefaultServiceLevelZ = 1.65
	// DefaultTargetCoverDays is the days of supply a suggested order covers.
	DefaultTargetCoverDays = 30

	SoonMaxDays    = 7
	PlannedMaxDays = 14
)

var (
	// ErrCatalogUnavailable aborts a whole run: the item list could not be read.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrMalformedMovement fails a single item whose ledger rows are invalid.
	ErrMalformedMovement = errors.New("malformed movement data")
)

// Usage is the aggregated outflow picture of one item at a point in time.
type Usage struct {
	ItemID      int64
	TotalOut30d int
	TotalOut90d int
	// AvgDailyUsage is the flat 90-day rate: TotalOut90d / 90.
	AvgDailyUsage float64
	// RecentDailyUsage is TotalOut30d / 30.
	RecentDailyUsage     float64
	DaysSinceLastOutflow domain.DayCount
	LastOutflowAt        *time.Time
}

// Stage names the step of the per-item pipeline that failed.
type Stage string

const (
	StageAggregate Stage = "aggregate"
	StageLock      Stage = "lock"
	StageWrite     Stage = "write"
)

// ItemFailure records an item skipped by a run.
type ItemFailure struct {
	ItemID int64
	Stage  Stage
	Err    error
}

// Report is the full outcome of a Recompute call.
type Report struct {
	Summary  domain.RecomputeSummary
	Results  []domain.ItemResult
	Failures []ItemFailure
}
