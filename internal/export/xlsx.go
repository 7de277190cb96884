// Package export renders reorder results as XLSX workbooks for purchasing.
package export

import (
	"bytes"
	"fmt"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	recommendationsSheet = "Rekomendasi"
	analyticsSheet       = "Analitik"
)

var recommendationHeaders = []string{
	"ID", "Nama Barang", "Satuan", "Stok", "Min Stok", "Lead Time", "Safety Stock",
	"Reorder Point", "Saran Order", "Hari s/d Reorder", "Prioritas", "Perkiraan Habis",
	"Harga", "Estimasi Biaya", "Dihitung",
}

var analyticsHeaders = []string{
	"ID", "Nama Barang", "Satuan", "Stok", "Hari Sejak Keluar Terakhir", "Keluar 30 Hari",
	"Keluar 90 Hari", "Rata-rata Harian", "Turnover", "Status", "Keluar Terakhir", "Dihitung",
}

// RecommendationsWorkbook lays out one row per recommendation in the given
// order. Unbounded day counts render as "-".
func RecommendationsWorkbook(rows []domain.RecommendationView) (*excelize.File, error) {
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		leadTime := interface{}("-")
		if r.LeadTimeDays != nil {
			leadTime = *r.LeadTimeDays
		}
		stockout := ""
		if r.EstimatedStockoutDate != nil {
			stockout = r.EstimatedStockoutDate.String()
		}

		values = append(values, []interface{}{
			r.ItemID,
			r.ItemName,
			r.Unit,
			r.CurrentStock,
			r.MinStock,
			leadTime,
			r.SafetyStock,
			r.ReorderPoint,
			r.SuggestedQty,
			dayCountCell(r.DaysUntilReorder),
			string(r.Priority),
			stockout,
			r.Price.InexactFloat64(),
			r.EstimatedOrderCost.InexactFloat64(),
			r.CalculatedAt.Format("2006-01-02 15:04"),
		})
	}

	return buildWorkbook(recommendationsSheet, recommendationHeaders, values)
}

// AnalyticsWorkbook lays out one row per item analytics record.
func AnalyticsWorkbook(rows []domain.AnalyticsView) (*excelize.File, error) {
	values := make([][]interface{}, 0, len(rows))
	for _, a := range rows {
		lastOut := ""
		if a.LastOutflowAt != nil {
			lastOut = a.LastOutflowAt.Format("2006-01-02")
		}

		values = append(values, []interface{}{
			a.ItemID,
			a.ItemName,
			a.Unit,
			a.CurrentStock,
			dayCountCell(a.DaysSinceLastOutflow),
			a.TotalOut30d,
			a.TotalOut90d,
			a.AvgDailyUsage,
			a.TurnoverRate,
			string(a.HealthStatus),
			lastOut,
			a.CalculatedAt.Format("2006-01-02 15:04"),
		})
	}

	return buildWorkbook(analyticsSheet, analyticsHeaders, values)
}

// Bytes serializes a workbook and closes it.
func Bytes(f *excelize.File) ([]byte, error) {
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func dayCountCell(d domain.DayCount) interface{} {
	if days, ok := d.Get(); ok {
		return days
	}
	return "-"
}

func buildWorkbook(sheet string, headers []string, rows [][]interface{}) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "C", lastCol, 14)
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return f, nil
}
