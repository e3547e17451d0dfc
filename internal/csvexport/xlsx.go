package csvexport

import (
	"io"

	"github.com/xuri/excelize/v2"

	"tributa/internal/money"
	"tributa/internal/reform"
)

const sheetName = "Comparison"

// WriteXLSX writes the comparison as a single-sheet workbook: the lines, a totals row,
// then the percentage change and recommendation.
func WriteXLSX(out io.Writer, cmp *reform.Comparison) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "G1", bold); err != nil {
		return err
	}

	row := 2
	for i, l := range cmp.Lines {
		values := []interface{}{
			i + 1, l.CFOP, l.NCM,
			number(l.Base), number(l.Current), number(l.New),
			l.New.Amount().Sub(l.Current.Amount()).Round(2).InexactFloat64(),
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	totals := []interface{}{totalLabel, "", "", "", number(cmp.CurrentTotal), number(cmp.NewTotal), number(cmp.Difference)}
	if err := setRow(f, row, totals); err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, first, last, bold); err != nil {
		return err
	}

	row += 2
	if err := setRow(f, row, []interface{}{"Percentage Change", cmp.PercentageChange.Round(2).InexactFloat64()}); err != nil {
		return err
	}
	if err := setRow(f, row+1, []interface{}{"Recommendation", string(cmp.Recommendation)}); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", "G", 16); err != nil {
		return err
	}
	return f.Write(out)
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &values)
}

func number(m money.Money) float64 {
	return m.Round().Amount().InexactFloat64()
}
