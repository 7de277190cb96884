package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func runSeed(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	log.Info().Msg("Starting database seeding...")

	err = db.WithTx(c.Context, func(tx *sqlx.Tx) error {
		ids, err := seedItems(c.Context, tx, c.String("items"))
		if err != nil {
			return fmt.Errorf("failed to seed items: %w", err)
		}
		if err := seedMovements(c.Context, tx, c.String("movements"), ids); err != nil {
			return fmt.Errorf("failed to seed movements: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Msg("Database seeding completed successfully!")
	return nil
}

// readCSV returns the header index and the remaining records.
func readCSV(r io.Reader) (map[string]int, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV records: %w", err)
	}
	return index, records, nil
}

func field(header map[string]int, record []string, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func atoiOr(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

func parseItemRow(header map[string]int, record []string) (domain.StockItem, error) {
	item := domain.StockItem{
		Name:     field(header, record, "name"),
		Unit:     field(header, record, "unit"),
		IsActive: true,
	}
	if item.Name == "" {
		return item, errors.New("item name is required")
	}
	if item.Unit == "" {
		item.Unit = "pcs"
	}

	var err error
	if item.StockQuantity, err = atoiOr(field(header, record, "stock_quantity"), 0); err != nil || item.StockQuantity < 0 {
		return item, fmt.Errorf("invalid stock_quantity for %s", item.Name)
	}
	if item.MinStock, err = atoiOr(field(header, record, "min_stock"), 0); err != nil {
		return item, fmt.Errorf("invalid min_stock for %s: %w", item.Name, err)
	}

	if raw := field(header, record, "price"); raw != "" {
		if item.Price, err = decimal.NewFromString(raw); err != nil {
			return item, fmt.Errorf("invalid price for %s: %w", item.Name, err)
		}
	}

	if raw := field(header, record, "lead_time_days"); raw != "" {
		lead, err := strconv.Atoi(raw)
		if err != nil {
			return item, fmt.Errorf("invalid lead_time_days for %s: %w", item.Name, err)
		}
		item.LeadTimeDays = &lead
	}

	return item, nil
}

var movementTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseMovementRow(header map[string]int, record []string) (string, domain.MovementRecord, error) {
	itemName := field(header, record, "item_name")
	if itemName == "" {
		return "", domain.MovementRecord{}, errors.New("item_name is required")
	}

	m := domain.MovementRecord{Type: domain.MovementType(strings.ToLower(field(header, record, "type")))}

	qty, err := strconv.Atoi(field(header, record, "quantity"))
	if err != nil {
		return itemName, m, fmt.Errorf("invalid quantity for %s: %w", itemName, err)
	}
	m.Quantity = qty

	raw := field(header, record, "created_at")
	for _, layout := range movementTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			m.CreatedAt = t
			break
		}
	}

	if note := field(header, record, "note"); note != "" {
		m.Note = &note
	}

	if err := m.Validate(); err != nil {
		return itemName, m, err
	}
	return itemName, m, nil
}

func seedItems(ctx context.Context, tx *sqlx.Tx, path string) (map[string]int64, error) {
	log.Info().Str("file", path).Msg("Seeding atk_items")

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	header, records, err := readCSV(file)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(records))
	for i, record := range records {
		item, err := parseItemRow(header, record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		var id int64
		err = tx.GetContext(ctx, &id, `SELECT id FROM atk_items WHERE name = $1`, item.Name)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.GetContext(ctx, &id, `
				INSERT INTO atk_items (name, unit, stock_quantity, min_stock, price, lead_time_days, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, TRUE)
				RETURNING id
			`, item.Name, item.Unit, item.StockQuantity, item.MinStock, item.Price, item.LeadTimeDays)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to upsert item %s: %w", item.Name, err)
		}
		ids[item.Name] = id
	}

	log.Info().Int("items", len(ids)).Msg("Successfully seeded atk_items")
	return ids, nil
}

func seedMovements(ctx context.Context, tx *sqlx.Tx, path string, ids map[string]int64) error {
	log.Info().Str("file", path).Msg("Seeding atk_stock_movements")

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	header, records, err := readCSV(file)
	if err != nil {
		return err
	}

	for i, record := range records {
		itemName, m, err := parseMovementRow(header, record)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		itemID, ok := ids[itemName]
		if !ok {
			return fmt.Errorf("row %d: unknown item %q", i+2, itemName)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO atk_stock_movements (item_id, type, quantity, created_at, note)
			VALUES ($1, $2, $3, $4, $5)
		`, itemID, m.Type, m.Quantity, m.CreatedAt, m.Note); err != nil {
			return fmt.Errorf("failed to insert movement for %s: %w", itemName, err)
		}
	}

	log.Info().Int("movements", len(records)).Msg("Successfully seeded atk_stock_movements")
	return nil
}
