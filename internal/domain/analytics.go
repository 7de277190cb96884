package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemAnalytics is the per-item usage health row. Fully recomputable; one row
// per item, replaced on every run.
type ItemAnalytics struct {
	ItemID               int64        `json:"item_id" db:"item_id"`
	DaysSinceLastOutflow DayCount     `json:"days_since_last_outflow" db:"days_since_last_outflow"`
	TotalOut30d          int          `json:"total_out_30d" db:"total_out_30d"`
	TotalOut90d          int          `json:"total_out_90d" db:"total_out_90d"`
	AvgDailyUsage        float64      `json:"avg_daily_usage" db:"avg_daily_usage"`
	TurnoverRate         float64      `json:"turnover_rate" db:"turnover_rate"`
	HealthStatus         HealthStatus `json:"health_status" db:"health_status"`
	LastOutflowAt        *time.Time   `json:"last_outflow_at" db:"last_outflow_at"`
	CalculatedAt         time.Time    `json:"calculated_at" db:"calculated_at"`
}

// ReorderRecommendation is the per-item reorder row, replaced on every run.
type ReorderRecommendation struct {
	ItemID                int64           `json:"item_id" db:"item_id"`
	CurrentStock          int             `json:"current_stock" db:"current_stock"`
	AvgDailyUsage         float64         `json:"avg_daily_usage" db:"avg_daily_usage"`
	SafetyStock           int             `json:"safety_stock" db:"safety_stock"`
	ReorderPoint          int             `json:"reorder_point" db:"reorder_point"`
	SuggestedQty          int             `json:"suggested_qty" db:"suggested_qty"`
	DaysUntilReorder      DayCount        `json:"days_until_reorder" db:"days_until_reorder"`
	Priority              Priority        `json:"priority" db:"priority"`
	EstimatedStockoutDate *Date           `json:"estimated_stockout_date" db:"estimated_stockout_date"`
	EstimatedOrderCost    decimal.Decimal `json:"estimated_order_cost" db:"estimated_order_cost"`
	CalculatedAt          time.Time       `json:"calculated_at" db:"calculated_at"`
}

// ItemResult is everything one item's recomputation writes.
type ItemResult struct {
	Analytics      ItemAnalytics
	Recommendation ReorderRecommendation
}

// AnalyticsView joins an analytics row with item master fields for display.
type AnalyticsView struct {
	ItemAnalytics
	ItemName     string `json:"item_name" db:"item_name"`
	Unit         string `json:"unit" db:"unit"`
	CurrentStock int    `json:"current_stock" db:"stock_quantity"`
	MinStock     int    `json:"min_stock" db:"min_stock"`
}

// RecommendationView joins a recommendation row with item master fields.
type RecommendationView struct {
	ReorderRecommendation
	ItemName     string          `json:"item_name" db:"item_name"`
	Unit         string          `json:"unit" db:"unit"`
	MinStock     int             `json:"min_stock" db:"min_stock"`
	LeadTimeDays *int            `json:"lead_time_days" db:"lead_time_days"`
	Price        decimal.Decimal `json:"price" db:"price"`
}

// ResultFilter narrows FetchLatest reads. Zero values mean "no filter".
type ResultFilter struct {
	Status   HealthStatus `json:"status,omitempty"`
	Priority Priority     `json:"priority,omitempty"`
	Limit    int          `json:"limit,omitempty"`
}

// HealthSummary counts items per health status. Total always equals the sum
// of the buckets.
type HealthSummary struct {
	Healthy int `json:"healthy"`
	Slow    int `json:"slow"`
	Dead    int `json:"dead"`
	Unknown int `json:"unknown"`
	Total   int `json:"total"`
}

func (s *HealthSummary) Add(status HealthStatus) {
	s.AddCount(status, 1)
}

// AddCount adds n items of the given status. Unrecognized statuses count as
// unknown so the partition stays complete.
func (s *HealthSummary) AddCount(status HealthStatus, n int) {
	switch status {
	case HealthHealthy:
		s.Healthy += n
	case HealthSlow:
		s.Slow += n
	case HealthDead:
		s.Dead += n
	default:
		s.Unknown += n
	}
	s.Total += n
}

// ReorderSummary counts recommendations per priority.
type ReorderSummary struct {
	Urgent  int `json:"urgent"`
	Soon    int `json:"soon"`
	Planned int `json:"planned"`
	Safe    int `json:"safe"`
	Total   int `json:"total"`
}

func (s *ReorderSummary) Add(p Priority) {
	s.AddCount(p, 1)
}

func (s *ReorderSummary) AddCount(p Priority, n int) {
	switch p {
	case PriorityUrgent:
		s.Urgent += n
	case PrioritySoon:
		s.Soon += n
	case PriorityPlanned:
		s.Planned += n
	default:
		s.Safe += n
	}
	s.Total += n
}

// RecomputeSummary is returned by a Recompute call. Failed counts items that
// were skipped; they appear in neither Health nor Reorder.
type RecomputeSummary struct {
	RunID       int64          `json:"run_id,omitempty"`
	// TotalItems is the catalog size at the start of the run. An interrupted
	// run processes fewer than this.
	TotalItems  int            `json:"total_items"`
	Health      HealthSummary  `json:"health"`
	Reorder     ReorderSummary `json:"reorder"`
	Failed      int            `json:"failed"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// ResultSummary is the persisted-state overview served to dashboards.
type ResultSummary struct {
	Health  HealthSummary  `json:"health"`
	Reorder ReorderSummary `json:"reorder"`
}
