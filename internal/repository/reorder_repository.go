// backend-go/internal/repository/reorder_repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
)

// LedgerReader is the read-only view the engine has over the ATK catalog and
// the append-only movement ledger.
type LedgerReader interface {
	ListActiveItems(ctx context.Context) ([]domain.StockItem, error)
	// ListOutflowsSince returns the item's "out" movements with created_at >= since.
	ListOutflowsSince(ctx context.Context, itemID int64, since time.Time) ([]domain.MovementRecord, error)
	// LastOutflowAt returns the newest "out" timestamp for the item, or nil.
	LastOutflowAt(ctx context.Context, itemID int64) (*time.Time, error)
}

// RecommendationStore persists and reads the derived per-item rows.
type RecommendationStore interface {
	// SaveItemResult replaces the analytics and recommendation rows for one
	// item and refreshes the item's cached reorder fields, atomically.
	SaveItemResult(ctx context.Context, result domain.ItemResult) error
	ListAnalytics(ctx context.Context, filter domain.ResultFilter) ([]domain.AnalyticsView, error)
	ListRecommendations(ctx context.Context, filter domain.ResultFilter) ([]domain.RecommendationView, error)
	GetResultSummary(ctx context.Context) (domain.ResultSummary, error)
}
