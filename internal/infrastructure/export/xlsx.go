package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Comparison"

var headers = []string{"#", "Store", "Product", "Price", "Currency", "Price (USD)", "Description", "URL", "Cheapest"}

// Row is one product line of the exported comparison
type Row struct {
	Position    int
	Store       string
	Name        string
	Price       string
	Currency    string
	PriceUSD    *float64
	Description string
	URL         string
	Cheapest    bool
}

// WriteComparisonXLSX writes rows as a single-sheet workbook to w.
// The cheapest row is highlighted.
func WriteComparisonXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return err
	}
	cheapestStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2EFDA"}},
	})
	if err != nil {
		return err
	}
	usdStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastColumn(1), headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		line := i + 2
		values := []interface{}{r.Position, r.Store, r.Name, r.Price, r.Currency, nil, r.Description, r.URL, ""}
		if r.PriceUSD != nil {
			values[5] = *r.PriceUSD
		}
		if r.Cheapest {
			values[8] = "yes"
		}

		start, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return err
		}

		usdCell, _ := excelize.CoordinatesToCellName(6, line)
		if err := f.SetCellStyle(sheetName, usdCell, usdCell, usdStyle); err != nil {
			return err
		}
		if r.Cheapest {
			if err := f.SetCellStyle(sheetName, start, lastColumn(line), cheapestStyle); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheetName, "C", "C", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "G", "G", 60); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func lastColumn(line int) string {
	cell, _ := excelize.CoordinatesToCellName(len(headers), line)
	return cell
}
