package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/repository"
	"github.com/jmoiron/sqlx"
)

type ledgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository reads the ATK catalog and movement ledger. It never
// writes.
func NewLedgerRepository(db *sqlx.DB) repository.LedgerReader {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ListActiveItems(ctx context.Context) ([]domain.StockItem, error) {
	query := `
		SELECT
			id, name, unit, stock_quantity, min_stock, price,
			lead_time_days, reorder_point, suggested_order_qty, is_active
		FROM atk_items
		WHERE is_active = TRUE
		ORDER BY id
	`

	var items []domain.StockItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("error listing active items: %w", err)
	}

	return items, nil
}

func (r *ledgerRepository) ListOutflowsSince(ctx context.Context, itemID int64, since time.Time) ([]domain.MovementRecord, error) {
	query := `
		SELECT id, item_id, type, quantity, created_at, note
		FROM atk_stock_movements
		WHERE item_id = $1
		  AND type = 'out'
		  AND created_at >= $2
		ORDER BY created_at
	`

	var movements []domain.MovementRecord
	if err := r.db.SelectContext(ctx, &movements, query, itemID, since); err != nil {
		return nil, fmt.Errorf("error listing outflows for item %d: %w", itemID, err)
	}

	return movements, nil
}

func (r *ledgerRepository) LastOutflowAt(ctx context.Context, itemID int64) (*time.Time, error) {
	query := `
		SELECT MAX(created_at)
		FROM atk_stock_movements
		WHERE item_id = $1 AND type = 'out'
	`

	var last sql.NullTime
	err := r.db.GetContext(ctx, &last, query, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting last outflow for item %d: %w", itemID, err)
	}
	if !last.Valid {
		return nil, nil
	}

	return &last.Time, nil
}
