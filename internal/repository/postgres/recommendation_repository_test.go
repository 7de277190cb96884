package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return Wrap(sqlx.NewDb(raw, "sqlmock"), 2), mock
}

func sampleResult(now time.Time) domain.ItemResult {
	last := now.Add(-48 * time.Hour)
	stockout := domain.NewDate(now.AddDate(0, 0, 50))
	return domain.ItemResult{
		Analytics: domain.ItemAnalytics{
			ItemID:               1,
			DaysSinceLastOutflow: domain.Days(2),
			TotalOut30d:          60,
			TotalOut90d:          180,
			AvgDailyUsage:        2,
			TurnoverRate:         1.8,
			HealthStatus:         domain.HealthHealthy,
			LastOutflowAt:        &last,
			CalculatedAt:         now,
		},
		Recommendation: domain.ReorderRecommendation{
			ItemID:                1,
			CurrentStock:          100,
			AvgDailyUsage:         2,
			SafetyStock:           9,
			ReorderPoint:          23,
			SuggestedQty:          60,
			DaysUntilReorder:      domain.Days(38),
			Priority:              domain.PrioritySafe,
			EstimatedStockoutDate: &stockout,
			EstimatedOrderCost:    decimal.NewFromInt(2700000),
			CalculatedAt:          now,
		},
	}
}

func TestSaveItemResultCommitsAllThreeWrites(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecommendationRepository(db)
	now := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO atk_item_analytics")).
		WithArgs(int64(1), int64(2), 60, 180, 2.0, 1.8, "healthy", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO atk_reorder_recommendations")).
		WithArgs(int64(1), 100, 2.0, 9, 23, 60, int64(38), "safe", "2025-05-20", "2700000", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE atk_items")).
		WithArgs(23, 60, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveItemResult(context.Background(), sampleResult(now)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveItemResultRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecommendationRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO atk_item_analytics")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO atk_reorder_recommendations")).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.SaveItemResult(context.Background(), sampleResult(now))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveItemResultRejectsMismatchedRows(t *testing.T) {
	db, _ := newMockDB(t)
	result := sampleResult(time.Now())
	result.Recommendation.ItemID = 2

	assert.Error(t, NewRecommendationRepository(db).SaveItemResult(context.Background(), result))
}

func TestListRecommendationsScansDayCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecommendationRepository(db)
	now := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)

	columns := []string{
		"item_id", "current_stock", "avg_daily_usage", "safety_stock", "reorder_point",
		"suggested_qty", "days_until_reorder", "priority", "estimated_stockout_date",
		"estimated_order_cost", "calculated_at", "item_name", "unit", "min_stock",
		"lead_time_days", "price",
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM atk_reorder_recommendations r")).
		WithArgs("safe", 10).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(4), int64(5), 0.0, int64(0), int64(0), int64(2), nil, "safe", nil,
				[]byte("50000.00"), now, "Stapler", "pcs", int64(2), nil, []byte("25000.00")).
			AddRow(int64(1), int64(100), 2.0, int64(9), int64(23), int64(60), int64(38), "safe", now.AddDate(0, 0, 50),
				[]byte("2700000.00"), now, "Kertas HVS A4", "rim", int64(10), int64(7), []byte("45000.00")).
			AddRow(int64(9), int64(50), 1.0/90, int64(1), int64(1), int64(10), int64(4320), "safe", now.AddDate(0, 0, 4500),
				[]byte("100000.00"), now, "Map Plastik", "pcs", int64(10), int64(7), []byte("10000.00")))

	rows, err := repo.ListRecommendations(context.Background(), domain.ResultFilter{Priority: domain.PrioritySafe, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].DaysUntilReorder.IsUnbounded())
	assert.Nil(t, rows[0].EstimatedStockoutDate)
	assert.Nil(t, rows[0].LeadTimeDays)
	assert.True(t, decimal.NewFromInt(25000).Equal(rows[0].Price))

	assert.Equal(t, domain.Days(38), rows[1].DaysUntilReorder)
	require.NotNil(t, rows[1].EstimatedStockoutDate)
	assert.Equal(t, "2025-05-20", rows[1].EstimatedStockoutDate.String())
	require.NotNil(t, rows[1].LeadTimeDays)
	assert.Equal(t, 7, *rows[1].LeadTimeDays)
	assert.Equal(t, "Kertas HVS A4", rows[1].ItemName)

	// Slow movers keep their real count; only NULL means unbounded.
	assert.False(t, rows[2].DaysUntilReorder.IsUnbounded())
	assert.Equal(t, domain.Days(4320), rows[2].DaysUntilReorder)
	require.NotNil(t, rows[2].EstimatedStockoutDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveItemResultStoresUnboundedAsNull(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecommendationRepository(db)
	now := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)

	result := sampleResult(now)
	result.Analytics.DaysSinceLastOutflow = domain.Unbounded()
	result.Analytics.LastOutflowAt = nil
	result.Recommendation.DaysUntilReorder = domain.Unbounded()
	result.Recommendation.EstimatedStockoutDate = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO atk_item_analytics")).
		WithArgs(int64(1), nil, 60, 180, 2.0, 1.8, "healthy", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO atk_reorder_recommendations")).
		WithArgs(int64(1), 100, 2.0, 9, 23, 60, nil, "safe", sqlmock.AnyArg(), "2700000", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE atk_items")).
		WithArgs(23, 60, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveItemResult(context.Background(), result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQueriesOrderUnboundedExplicitly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecommendationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY a.days_since_last_outflow DESC NULLS FIRST")).
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY r.days_until_reorder ASC NULLS LAST")).
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}))

	_, err := repo.ListAnalytics(context.Background(), domain.ResultFilter{})
	require.NoError(t, err)
	_, err = repo.ListRecommendations(context.Background(), domain.ResultFilter{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAnalyticsEmptyIsNotNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecommendationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY a.days_since_last_outflow DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}))

	rows, err := repo.ListAnalytics(context.Background(), domain.ResultFilter{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGetResultSummary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecommendationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY a.health_status")).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "count"}).
			AddRow("healthy", int64(3)).
			AddRow("dead", int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY r.priority")).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "count"}).
			AddRow("urgent", int64(1)).
			AddRow("safe", int64(4)))

	summary, err := repo.GetResultSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.HealthSummary{Healthy: 3, Dead: 2, Total: 5}, summary.Health)
	assert.Equal(t, domain.ReorderSummary{Urgent: 1, Safe: 4, Total: 5}, summary.Reorder)
}
