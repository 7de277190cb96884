package reorder

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/lock"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// Config carries the engine knobs loaded from ENGINE_* settings.
type Config struct {
	Workers             int
	DefaultLeadTimeDays int
	ServiceLevelZ       float64
	TargetCoverDays     int
}

// Option customizes an Engine.
type Option func(*Engine)

func WithForecaster(f Forecaster) Option {
	return func(e *Engine) {
		if f != nil {
			e.forecaster = f
		}
	}
}

func WithLocker(l lock.Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithClock overrides the time source. Each run reads it once.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine recomputes item analytics and reorder recommendations over the
// active catalog. Every run is a full recomputation; nothing is incremental.
type Engine struct {
	ledger     repository.LedgerReader
	store      repository.RecommendationStore
	aggregator *Aggregator
	calculator *Calculator
	forecaster Forecaster
	locker     lock.Locker
	now        func() time.Time

	workers         int
	defaultLeadTime int
}

func NewEngine(ledger repository.LedgerReader, store repository.RecommendationStore, cfg Config, opts ...Option) *Engine {
	workers := cfg.Workers
	if workers < 1 {
		workers = pipeline.DefaultPoolConfig("").WorkerCount
	}
	leadTime := cfg.DefaultLeadTimeDays
	if leadTime <= 0 {
		leadTime = domain.DefaultLeadTimeDays
	}

	e := &Engine{
		ledger:     ledger,
		store:      store,
		aggregator: NewAggregator(ledger),
		calculator: NewCalculator(CalculatorConfig{
			ServiceLevelZ:   cfg.ServiceLevelZ,
			TargetCoverDays: cfg.TargetCoverDays,
		}),
		forecaster:      FlatForecaster{},
		locker:          lock.NewKeyedMutex(),
		now:             time.Now,
		workers:         workers,
		defaultLeadTime: leadTime,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute derives both rows for one item. It performs no I/O.
func (e *Engine) Compute(item domain.StockItem, usage Usage, now time.Time) domain.ItemResult {
	balance := item.StockQuantity

	turnover := 0.0
	if balance > 0 {
		turnover = float64(usage.TotalOut90d) / float64(balance)
	}

	analytics := domain.ItemAnalytics{
		ItemID:               item.ID,
		DaysSinceLastOutflow: usage.DaysSinceLastOutflow,
		TotalOut30d:          usage.TotalOut30d,
		TotalOut90d:          usage.TotalOut90d,
		AvgDailyUsage:        usage.AvgDailyUsage,
		TurnoverRate:         turnover,
		HealthStatus:         Classify(usage.DaysSinceLastOutflow, usage.LastOutflowAt, balance),
		LastOutflowAt:        usage.LastOutflowAt,
		CalculatedAt:         now,
	}

	demand := e.forecaster.DailyDemand(usage)
	metrics := e.calculator.Calculate(ReorderInput{
		AvgDailyUsage: demand,
		CurrentStock:  balance,
		LeadTimeDays:  item.EffectiveLeadTime(e.defaultLeadTime),
		MinStock:      item.MinStock,
		Price:         item.Price,
	}, now)

	recommendation := domain.ReorderRecommendation{
		ItemID:                item.ID,
		CurrentStock:          balance,
		AvgDailyUsage:         demand,
		SafetyStock:           metrics.SafetyStock,
		ReorderPoint:          metrics.ReorderPoint,
		SuggestedQty:          metrics.SuggestedQty,
		DaysUntilReorder:      metrics.DaysUntilReorder,
		Priority:              metrics.Priority,
		EstimatedStockoutDate: metrics.EstimatedStockoutDate,
		EstimatedOrderCost:    metrics.EstimatedOrderCost,
		CalculatedAt:          now,
	}

	return domain.ItemResult{Analytics: analytics, Recommendation: recommendation}
}

// Recompute runs the whole catalog. Only a catalog read failure aborts the
// run; item failures are logged, counted and skipped. Each item's rows are
// either fully written or left as they were.
func (e *Engine) Recompute(ctx context.Context) (Report, error) {
	now := e.now()
	report := Report{Summary: domain.RecomputeSummary{StartedAt: now}}

	items, err := e.ledger.ListActiveItems(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	report.Summary.TotalItems = len(items)

	log.Info().
		Int("items", len(items)).
		Str("forecaster", e.forecaster.Name()).
		Time("as_of", now).
		Msg("Starting reorder recompute")

	var mu sync.Mutex
	record := func(result *domain.ItemResult, failure *ItemFailure) {
		mu.Lock()
		defer mu.Unlock()
		if failure != nil {
			report.Failures = append(report.Failures, *failure)
			report.Summary.Failed++
			return
		}
		report.Results = append(report.Results, *result)
		report.Summary.Health.Add(result.Analytics.HealthStatus)
		report.Summary.Reorder.Add(result.Recommendation.Priority)
	}

	poolCfg := pipeline.PoolConfig{Name: "reorder", WorkerCount: e.workers}
	poolErr := pipeline.ForEach(ctx, poolCfg, items, func(ctx context.Context, workerID int, item domain.StockItem) {
		result, failure := e.processItem(ctx, item, now)
		if failure != nil {
			log.Warn().
				Err(failure.Err).
				Int64("item_id", item.ID).
				Str("stage", string(failure.Stage)).
				Int("worker", workerID).
				Msg("Skipping item")
		}
		record(result, failure)
	})

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Analytics.ItemID < report.Results[j].Analytics.ItemID
	})
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].ItemID < report.Failures[j].ItemID
	})

	report.Summary.CompletedAt = e.now()

	if poolErr != nil {
		// Rows written before cancellation stay; a rerun is safe.
		log.Warn().Err(poolErr).
			Int("total", report.Summary.TotalItems).
			Int("processed", report.Summary.Health.Total).
			Int("failed", report.Summary.Failed).
			Msg("Reorder recompute interrupted")
		return report, fmt.Errorf("recompute interrupted: %w", poolErr)
	}

	log.Info().
		Int("processed", report.Summary.Health.Total).
		Int("failed", report.Summary.Failed).
		Int("urgent", report.Summary.Reorder.Urgent).
		Int("dead", report.Summary.Health.Dead).
		Dur("took", report.Summary.CompletedAt.Sub(report.Summary.StartedAt)).
		Msg("Reorder recompute completed")

	return report, nil
}

func (e *Engine) processItem(ctx context.Context, item domain.StockItem, now time.Time) (*domain.ItemResult, *ItemFailure) {
	usage, err := e.aggregator.Aggregate(ctx, item.ID, now)
	if err != nil {
		return nil, &ItemFailure{ItemID: item.ID, Stage: StageAggregate, Err: err}
	}

	result := e.Compute(item, usage, now)

	unlock, err := e.locker.Lock(ctx, ItemLockKey(item.ID))
	if err != nil {
		return nil, &ItemFailure{ItemID: item.ID, Stage: StageLock, Err: err}
	}
	defer unlock()

	if err := e.store.SaveItemResult(ctx, result); err != nil {
		return nil, &ItemFailure{ItemID: item.ID, Stage: StageWrite, Err: err}
	}

	return &result, nil
}

// ItemLockKey is the lock key guarding one item's rows.
func ItemLockKey(itemID int64) string {
	return "reorder:item:" + strconv.FormatInt(itemID, 10)
}
