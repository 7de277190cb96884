package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/repository"
	"github.com/jmoiron/sqlx"
)

const (
	upsertAnalyticsQuery = `
		INSERT INTO atk_item_analytics (
			item_id, days_since_last_outflow, total_out_30d, total_out_90d,
			avg_daily_usage, turnover_rate, health_status, last_outflow_at, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (item_id) DO UPDATE SET
			days_since_last_outflow = EXCLUDED.days_since_last_outflow,
			total_out_30d = EXCLUDED.total_out_30d,
			total_out_90d = EXCLUDED.total_out_90d,
			avg_daily_usage = EXCLUDED.avg_daily_usage,
			turnover_rate = EXCLUDED.turnover_rate,
			health_status = EXCLUDED.health_status,
			last_outflow_at = EXCLUDED.last_outflow_at,
			calculated_at = EXCLUDED.calculated_at
	`

	upsertRecommendationQuery = `
		INSERT INTO atk_reorder_recommendations (
			item_id, current_stock, avg_daily_usage, safety_stock, reorder_point,
			suggested_qty, days_until_reorder, priority, estimated_stockout_date,
			estimated_order_cost, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (item_id) DO UPDATE SET
			current_stock = EXCLUDED.current_stock,
			avg_daily_usage = EXCLUDED.avg_daily_usage,
			safety_stock = EXCLUDED.safety_stock,
			reorder_point = EXCLUDED.reorder_point,
			suggested_qty = EXCLUDED.suggested_qty,
			days_until_reorder = EXCLUDED.days_until_reorder,
			priority = EXCLUDED.priority,
			estimated_stockout_date = EXCLUDED.estimated_stockout_date,
			estimated_order_cost = EXCLUDED.estimated_order_cost,
			calculated_at = EXCLUDED.calculated_at
	`

	// stock_quantity is owned by the ledger writer and is never part of this
	// statement.
	updateItemReorderFieldsQuery = `
		UPDATE atk_items
		SET reorder_point = $1, suggested_order_qty = $2, updated_at = NOW()
		WHERE id = $3
	`
)

type recommendationRepository struct {
	db *DB
}

func NewRecommendationRepository(db *DB) repository.RecommendationStore {
	return &recommendationRepository{db: db}
}

func (r *recommendationRepository) SaveItemResult(ctx context.Context, result domain.ItemResult) error {
	a := result.Analytics
	rec := result.Recommendation
	if a.ItemID != rec.ItemID {
		return fmt.Errorf("item result mismatch: analytics for %d, recommendation for %d", a.ItemID, rec.ItemID)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertAnalyticsQuery,
			a.ItemID, a.DaysSinceLastOutflow, a.TotalOut30d, a.TotalOut90d,
			a.AvgDailyUsage, a.TurnoverRate, a.HealthStatus, a.LastOutflowAt, a.CalculatedAt,
		); err != nil {
			return fmt.Errorf("error upserting analytics for item %d: %w", a.ItemID, err)
		}

		if _, err := tx.ExecContext(ctx, upsertRecommendationQuery,
			rec.ItemID, rec.CurrentStock, rec.AvgDailyUsage, rec.SafetyStock, rec.ReorderPoint,
			rec.SuggestedQty, rec.DaysUntilReorder, rec.Priority, rec.EstimatedStockoutDate,
			rec.EstimatedOrderCost, rec.CalculatedAt,
		); err != nil {
			return fmt.Errorf("error upserting recommendation for item %d: %w", rec.ItemID, err)
		}

		if _, err := tx.ExecContext(ctx, updateItemReorderFieldsQuery,
			rec.ReorderPoint, rec.SuggestedQty, rec.ItemID,
		); err != nil {
			return fmt.Errorf("error updating reorder fields for item %d: %w", rec.ItemID, err)
		}

		return nil
	})
}

func (r *recommendationRepository) ListAnalytics(ctx context.Context, filter domain.ResultFilter) ([]domain.AnalyticsView, error) {
	query := `
		SELECT
			a.item_id, a.days_since_last_outflow, a.total_out_30d, a.total_out_90d,
			a.avg_daily_usage, a.turnover_rate, a.health_status, a.last_outflow_at,
			a.calculated_at,
			i.name AS item_name, i.unit, i.stock_quantity, i.min_stock
		FROM atk_item_analytics a
		JOIN atk_items i ON i.id = a.item_id
		WHERE i.is_active = TRUE
	`

	var args []interface{}
	argCounter := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND a.health_status = $%d", argCounter)
		args = append(args, filter.Status)
		argCounter++
	}

	query += " ORDER BY a.days_since_last_outflow DESC NULLS FIRST, i.name ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCounter)
		args = append(args, filter.Limit)
	}

	items := []domain.AnalyticsView{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error listing item analytics: %w", err)
	}

	return items, nil
}

func (r *recommendationRepository) ListRecommendations(ctx context.Context, filter domain.ResultFilter) ([]domain.RecommendationView, error) {
	query := `
		SELECT
			r.item_id, r.current_stock, r.avg_daily_usage, r.safety_stock, r.reorder_point,
			r.suggested_qty, r.days_until_reorder, r.priority, r.estimated_stockout_date,
			r.estimated_order_cost, r.calculated_at,
			i.name AS item_name, i.unit, i.min_stock, i.lead_time_days, i.price
		FROM atk_reorder_recommendations r
		JOIN atk_items i ON i.id = r.item_id
		WHERE i.is_active = TRUE
	`

	var args []interface{}
	argCounter := 1

	if filter.Priority != "" {
		query += fmt.Sprintf(" AND r.priority = $%d", argCounter)
		args = append(args, filter.Priority)
		argCounter++
	}

	query += " ORDER BY r.days_until_reorder ASC NULLS LAST, i.name ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCounter)
		args = append(args, filter.Limit)
	}

	items := []domain.RecommendationView{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error listing reorder recommendations: %w", err)
	}

	return items, nil
}

type bucketCount struct {
	Bucket string `db:"bucket"`
	Count  int    `db:"count"`
}

func (r *recommendationRepository) GetResultSummary(ctx context.Context) (domain.ResultSummary, error) {
	var summary domain.ResultSummary

	var health []bucketCount
	if err := r.db.SelectContext(ctx, &health, `
		SELECT a.health_status AS bucket, COUNT(*) AS count
		FROM atk_item_analytics a
		JOIN atk_items i ON i.id = a.item_id
		WHERE i.is_active = TRUE
		GROUP BY a.health_status
	`); err != nil {
		return summary, fmt.Errorf("error counting health statuses: %w", err)
	}
	for _, b := range health {
		summary.Health.AddCount(domain.HealthStatus(b.Bucket), b.Count)
	}

	var priorities []bucketCount
	if err := r.db.SelectContext(ctx, &priorities, `
		SELECT r.priority AS bucket, COUNT(*) AS count
		FROM atk_reorder_recommendations r
		JOIN atk_items i ON i.id = r.item_id
		WHERE i.is_active = TRUE
		GROUP BY r.priority
	`); err != nil {
		return summary, fmt.Errorf("error counting priorities: %w", err)
	}
	for _, b := range priorities {
		summary.Reorder.AddCount(domain.Priority(b.Bucket), b.Count)
	}

	return summary, nil
}
