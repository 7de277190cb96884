package reorder

import (
	"math"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// CalculatorConfig holds the reorder policy constants.
type CalculatorConfig struct {
	ServiceLevelZ   float64
	TargetCoverDays int
}

func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		ServiceLevelZ:   DefaultServiceLevelZ,
		TargetCoverDays: DefaultTargetCoverDays,
	}
}

// Calculator derives reorder metrics from a daily demand estimate.
type Calculator struct {
	cfg CalculatorConfig
}

func NewCalculator(cfg CalculatorConfig) *Calculator {
	if cfg.ServiceLevelZ <= 0 {
		cfg.ServiceLevelZ = DefaultServiceLevelZ
	}
	if cfg.TargetCoverDays <= 0 {
		cfg.TargetCoverDays = DefaultTargetCoverDays
	}
	return &Calculator{cfg: cfg}
}

type ReorderInput struct {
	AvgDailyUsage float64
	CurrentStock  int
	LeadTimeDays  int
	MinStock      int
	Price         decimal.Decimal
}

type ReorderMetrics struct {
	SafetyStock           int
	ReorderPoint          int
	SuggestedQty          int
	DaysUntilReorder      domain.DayCount
	Priority              domain.Priority
	EstimatedStockoutDate *domain.Date
	EstimatedOrderCost    decimal.Decimal
}

// Calculate applies the reorder policy. Zero usage is not an error: days until
// reorder becomes unbounded and the stockout date stays nil.
func (c *Calculator) Calculate(in ReorderInput, now time.Time) ReorderMetrics {
	usage := in.AvgDailyUsage
	if usage < 0 || math.IsNaN(usage) || math.IsInf(usage, 0) {
		usage = 0
	}
	leadTime := in.LeadTimeDays
	if leadTime <= 0 {
		leadTime = domain.DefaultLeadTimeDays
	}

	var m ReorderMetrics
	m.SafetyStock = ceilQty(c.cfg.ServiceLevelZ * usage * math.Sqrt(float64(leadTime)))
	m.ReorderPoint = ceilQty(usage*float64(leadTime) + float64(m.SafetyStock))

	m.SuggestedQty = ceilQty(usage * float64(c.cfg.TargetCoverDays))
	if m.SuggestedQty < in.MinStock {
		m.SuggestedQty = in.MinStock
	}

	if usage == 0 {
		m.DaysUntilReorder = domain.Unbounded()
	} else {
		days := floorQty(float64(in.CurrentStock-m.ReorderPoint) / usage)
		if days < 0 {
			days = 0
		}
		m.DaysUntilReorder = domain.Days(days)

		stockoutDays := floorQty(float64(in.CurrentStock) / usage)
		if stockoutDays < 0 {
			stockoutDays = 0
		}
		date := domain.NewDate(now.AddDate(0, 0, stockoutDays))
		m.EstimatedStockoutDate = &date
	}

	m.Priority = priorityFor(in.CurrentStock, m.ReorderPoint, m.DaysUntilReorder)
	m.EstimatedOrderCost = in.Price.Mul(decimal.NewFromInt(int64(m.SuggestedQty)))

	return m
}

// priorityFor evaluates the tiers in order; the first match wins.
func priorityFor(balance, reorderPoint int, daysUntilReorder domain.DayCount) domain.Priority {
	days, bounded := daysUntilReorder.Get()
	switch {
	case balance <= reorderPoint, bounded && days == 0:
		return domain.PriorityUrgent
	case bounded && days <= SoonMaxDays:
		return domain.PrioritySoon
	case bounded && days <= PlannedMaxDays:
		return domain.PriorityPlanned
	default:
		return domain.PrioritySafe
	}
}
