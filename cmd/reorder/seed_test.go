package main

import (
	"strings"
	"testing"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemRow(t *testing.T) {
	header, records, err := readCSV(strings.NewReader(
		"name,unit,stock_quantity,min_stock,price,lead_time_days\n" +
			"Kertas HVS A4,rim,100,10,45000,7\n" +
			"Pulpen Hitam,,5,20,3000,\n" +
			",pcs,1,1,1,1\n"))
	require.NoError(t, err)
	require.Len(t, records, 3)

	item, err := parseItemRow(header, records[0])
	require.NoError(t, err)
	assert.Equal(t, "Kertas HVS A4", item.Name)
	assert.Equal(t, 100, item.StockQuantity)
	assert.True(t, decimal.NewFromInt(45000).Equal(item.Price))
	require.NotNil(t, item.LeadTimeDays)
	assert.Equal(t, 7, *item.LeadTimeDays)

	item, err = parseItemRow(header, records[1])
	require.NoError(t, err)
	assert.Equal(t, "pcs", item.Unit)
	assert.Nil(t, item.LeadTimeDays)

	_, err = parseItemRow(header, records[2])
	assert.Error(t, err)
}

func TestParseMovementRow(t *testing.T) {
	header, records, err := readCSV(strings.NewReader(
		"item_name,type,quantity,created_at,note\n" +
			"Kertas HVS A4,OUT,3,2025-03-01,permintaan bagian umum\n" +
			"Kertas HVS A4,out,0,2025-03-01,\n" +
			"Kertas HVS A4,out,2,kemarin,\n"))
	require.NoError(t, err)

	name, m, err := parseMovementRow(header, records[0])
	require.NoError(t, err)
	assert.Equal(t, "Kertas HVS A4", name)
	assert.Equal(t, domain.MovementOut, m.Type)
	assert.Equal(t, "2025-03-01", m.CreatedAt.Format("2006-01-02"))
	require.NotNil(t, m.Note)

	_, _, err = parseMovementRow(header, records[1])
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)

	_, _, err = parseMovementRow(header, records[2])
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)
}
