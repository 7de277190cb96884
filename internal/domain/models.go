// backend-go/internal/domain/models.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLeadTimeDays applies when an item has no configured lead time.
const DefaultLeadTimeDays = 7

// StockItem is an ATK catalog entry. StockQuantity is owned by the ledger
// writer; the engine only writes ReorderPoint and SuggestedOrderQty back.
type StockItem struct {
	ID                int64           `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Unit              string          `json:"unit" db:"unit"`
	StockQuantity     int             `json:"stock_quantity" db:"stock_quantity"`
	MinStock          int             `json:"min_stock" db:"min_stock"`
	Price             decimal.Decimal `json:"price" db:"price"`
	LeadTimeDays      *int            `json:"lead_time_days" db:"lead_time_days"`
	ReorderPoint      int             `json:"reorder_point" db:"reorder_point"`
	SuggestedOrderQty int             `json:"suggested_order_qty" db:"suggested_order_qty"`
	IsActive          bool            `json:"is_active" db:"is_active"`
}

// EffectiveLeadTime returns the configured lead time, or fallback when the
// item has none. A non-positive fallback means DefaultLeadTimeDays.
func (i StockItem) EffectiveLeadTime(fallback int) int {
	if i.LeadTimeDays != nil && *i.LeadTimeDays > 0 {
		return *i.LeadTimeDays
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultLeadTimeDays
}

// MovementType is the direction of a ledger movement.
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// MovementRecord is an immutable ledger fact.
type MovementRecord struct {
	ID        int64        `json:"id" db:"id"`
	ItemID    int64        `json:"item_id" db:"item_id"`
	Type      MovementType `json:"type" db:"type"`
	Quantity  int          `json:"quantity" db:"quantity"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	Note      *string      `json:"note,omitempty" db:"note"`
}

var ErrInvalidMovement = errors.New("invalid movement record")

// Validate reports whether the record can be trusted by the aggregator.
func (m MovementRecord) Validate() error {
	if m.Type != MovementIn && m.Type != MovementOut {
		return fmt.Errorf("%w: movement %d has type %q", ErrInvalidMovement, m.ID, m.Type)
	}
	if m.Quantity <= 0 {
		return fmt.Errorf("%w: movement %d has quantity %d", ErrInvalidMovement, m.ID, m.Quantity)
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("%w: movement %d has no timestamp", ErrInvalidMovement, m.ID)
	}
	return nil
}
